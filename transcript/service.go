package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"trackboard/project"
)

var ErrMissingInput = errors.New("project id and link are required")

type pageFetcher interface {
	Fetch(ctx context.Context, link string) (string, error)
}

type Summarizer interface {
	SummarizeConversation(ctx context.Context, block string) (string, error)
}

type ActivityRecorder interface {
	RecordActivity(ctx context.Context, projectID, summary string) (project.Activity, error)
}

type Service struct {
	fetcher    pageFetcher
	summarizer Summarizer
	recorder   ActivityRecorder
	logger     *slog.Logger
}

func NewService(fetcher pageFetcher, summarizer Summarizer, recorder ActivityRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		fetcher:    fetcher,
		summarizer: summarizer,
		recorder:   recorder,
		logger:     logger,
	}
}

// SummarizeInto fetches the shared conversation at link, summarizes it and
// stores the summary as an activity of projectID.
func (s *Service) SummarizeInto(ctx context.Context, projectID, link string) (project.Activity, error) {
	projectID = strings.TrimSpace(projectID)
	link = strings.TrimSpace(link)
	if projectID == "" || link == "" {
		return project.Activity{}, ErrMissingInput
	}

	block, err := s.fetcher.Fetch(ctx, link)
	if err != nil {
		return project.Activity{}, err
	}
	s.logger.DebugContext(ctx, "conversation block extracted", slog.String("link", link), slog.Int("bytes", len(block)))

	summary, err := s.summarizer.SummarizeConversation(ctx, block)
	if err != nil {
		return project.Activity{}, fmt.Errorf("%w: summarize conversation: %w", ErrUpstream, err)
	}

	activity, err := s.recorder.RecordActivity(ctx, projectID, summary)
	if err != nil {
		return project.Activity{}, err
	}
	s.logger.InfoContext(ctx, "conversation summarized", slog.String("project_id", projectID), slog.String("activity_id", activity.ID))
	return activity, nil
}
