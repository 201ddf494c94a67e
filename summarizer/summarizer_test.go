package summarizer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

func TestSummarizeConversation(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{reply: "\n- Chose SQLite\n- Wrote tests\n"}
	client := New(completer)

	summary, err := client.SummarizeConversation(context.Background(), `  "role","system" ... "moderation_results"  `)
	require.NoError(t, err)
	require.Equal(t, "- Chose SQLite\n- Wrote tests", summary)
	require.Contains(t, completer.prompt, "The following is a conversation between a user and an AI.")
	require.Contains(t, completer.prompt, `"role","system" ... "moderation_results"`)
	require.Contains(t, completer.prompt, "bullet-point format")
}

func TestSummarizeConversation_Errors(t *testing.T) {
	t.Parallel()

	_, err := New(&fakeCompleter{reply: "x"}).SummarizeConversation(context.Background(), "   ")
	require.Error(t, err)

	_, err = New(&fakeCompleter{reply: "  \n"}).SummarizeConversation(context.Background(), "block")
	require.ErrorIs(t, err, ErrEmptyCompletion)

	boom := errors.New("rate limited")
	_, err = New(&fakeCompleter{err: boom}).SummarizeConversation(context.Background(), "block")
	require.ErrorIs(t, err, boom)
}

func TestSuggestProjects(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{reply: "Here you go:\n```json\n[" +
		`{"project_name": "Trackboard", "summary": "dashboard", "in_progress": true},` +
		`{"project_name": " Garden ", "summary": " raised beds ", "in_progress": false},` +
		`{"project_name": "", "summary": "nameless"},` +
		`{"project_name": "garden", "summary": "duplicate"}` +
		"]\n```"}

	suggestions, err := New(completer).SuggestProjects(context.Background(), "home and code", []string{"trackboard"})
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	require.Equal(t, "Garden", suggestions[0].Name)
	require.Equal(t, "raised beds", suggestions[0].Summary)
	require.False(t, suggestions[0].InProgress)

	require.Contains(t, completer.prompt, "home and code")
	require.Contains(t, completer.prompt, "- trackboard")
}

func TestSuggestProjects_NoArray(t *testing.T) {
	t.Parallel()

	_, err := New(&fakeCompleter{reply: "I don't know your projects."}).SuggestProjects(context.Background(), "", nil)
	require.ErrorContains(t, err, "no JSON array")
}
