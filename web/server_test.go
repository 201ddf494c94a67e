package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"trackboard/blobstore"
	"trackboard/project"
	"trackboard/storage"
	"trackboard/summarizer"
	"trackboard/timelog"
	"trackboard/transcript"
)

var fixedNow = time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)

type testEnv struct {
	server   *httptest.Server
	store    *storage.SQLiteStore
	shareURL string
}

type envOptions struct {
	timeLogStore timelog.Store
	completer    summarizer.Completer
	sharePage    string
}

type fakeCompleter struct {
	reply string
	err   error
}

func (f fakeCompleter) Complete(context.Context, string) (string, error) {
	return f.reply, f.err
}

type failingUpsertStore struct {
	storage.Store
}

func (failingUpsertStore) AddTimeLogSeconds(context.Context, string, string, int64) (project.TimeLog, error) {
	return project.TimeLog{}, errors.New("disk full")
}

func newTestEnv(t *testing.T, opts envOptions) testEnv {
	t.Helper()

	store := openTestStore(t)
	files := blobstore.New(afero.NewMemMapFs(), "http://trackboard.test")

	var timeLogStore timelog.Store = store
	if opts.timeLogStore != nil {
		timeLogStore = opts.timeLogStore
	}
	timeLogs := timelog.NewService(timeLogStore, timelog.WithClock(func() time.Time { return fixedNow }))

	env := testEnv{store: store}
	deps := Deps{
		Store:    store,
		TimeLogs: timeLogs,
		Files:    files,
	}

	if opts.completer != nil {
		share := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, opts.sharePage)
		}))
		t.Cleanup(share.Close)
		env.shareURL = share.URL + "/share/"

		fetcher, err := transcript.NewFetcher(transcript.FetcherConfig{AllowedPrefixes: []string{env.shareURL}})
		if err != nil {
			t.Fatalf("new fetcher: %v", err)
		}
		client := summarizer.New(opts.completer)
		deps.Suggester = client
		deps.Transcripts = transcript.NewService(fetcher, client, timeLogs, nil)
	}

	env.server = httptest.NewServer(NewServer(deps))
	t.Cleanup(env.server.Close)
	return env
}

func openTestStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()

	store, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "trackboard_test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func createProject(t *testing.T, store storage.Store, name string) project.Project {
	t.Helper()
	created, err := store.CreateProject(context.Background(), project.NewProject{Name: name})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return created
}

func doJSON(t *testing.T, method, target string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	switch typed := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(typed)
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, target, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()

	decoded := map[string]any{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decode response %q: %v", raw, err)
		}
	}
	return resp, decoded
}

func expectStatus(t *testing.T, resp *http.Response, body map[string]any, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("expected %d, got %d (body %v)", want, resp.StatusCode, body)
	}
}

func TestServer_LogTimeAccumulatesPerDay(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, envOptions{})
	created := createProject(t, env.store, "Dashboard")

	resp, body := doJSON(t, http.MethodPost, env.server.URL+"/api/projects/log-time", map[string]any{
		"projectId": created.ID,
		"duration":  90,
		"summary":   "  wired the **store**  ",
	})
	expectStatus(t, resp, body, http.StatusOK)
	if body["status"] != "ok" || body["date"] != "2026-03-01" || body["totalSeconds"] != float64(90) {
		t.Fatalf("unexpected first response: %v", body)
	}
	if body["activityId"] == nil {
		t.Fatalf("expected activity id in %v", body)
	}

	resp, body = doJSON(t, http.MethodPost, env.server.URL+"/api/projects/log-time", map[string]any{
		"projectId": created.ID,
		"duration":  30,
		"summary":   "   ",
	})
	expectStatus(t, resp, body, http.StatusOK)
	if body["totalSeconds"] != float64(120) {
		t.Fatalf("expected accumulated 120 seconds, got %v", body["totalSeconds"])
	}
	if _, ok := body["activityId"]; ok {
		t.Fatalf("blank summary must not create an activity: %v", body)
	}

	resp, body = doJSON(t, http.MethodGet, env.server.URL+"/api/projects/"+created.ID+"/time-logs", nil)
	expectStatus(t, resp, body, http.StatusOK)
	logs, _ := body["timeLogs"].([]any)
	if len(logs) != 1 {
		t.Fatalf("expected one time log row, got %v", body)
	}
	row := logs[0].(map[string]any)
	if row["date"] != "2026-03-01" || row["duration"] != float64(120) {
		t.Fatalf("unexpected time log row: %v", row)
	}

	activities, err := env.store.ListActivities(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("list activities: %v", err)
	}
	if len(activities) != 1 || activities[0].Summary != "wired the **store**" {
		t.Fatalf("unexpected activities: %+v", activities)
	}
}

func TestServer_LogTimeRejectsBadInput(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, envOptions{})
	created := createProject(t, env.store, "Dashboard")

	tests := []struct {
		name      string
		body      any
		status    int
		wantError string
		wantStage string
	}{
		{name: "zero duration", body: map[string]any{"projectId": created.ID, "duration": 0}, status: http.StatusBadRequest},
		{name: "negative duration", body: map[string]any{"projectId": created.ID, "duration": -5}, status: http.StatusBadRequest},
		{name: "missing project", body: map[string]any{"duration": 10}, status: http.StatusBadRequest},
		{name: "unknown field", body: map[string]any{"projectId": created.ID, "duration": 10, "extra": true}, status: http.StatusBadRequest},
		{name: "not json", body: "{", status: http.StatusBadRequest},
		{
			name:      "unknown project",
			body:      map[string]any{"projectId": "missing", "duration": 10},
			status:    http.StatusNotFound,
			wantError: "Project not found.",
			wantStage: "upsert",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := doJSON(t, http.MethodPost, env.server.URL+"/api/projects/log-time", tc.body)
			expectStatus(t, resp, body, tc.status)
			if body["error"] == "" || body["error"] == nil {
				t.Fatalf("expected error message, got %v", body)
			}
			if tc.wantError != "" && body["error"] != tc.wantError {
				t.Fatalf("expected error %q, got %v", tc.wantError, body)
			}
			if tc.wantStage != "" && body["stage"] != tc.wantStage {
				t.Fatalf("expected stage %q, got %v", tc.wantStage, body)
			}
			if msg, _ := body["error"].(string); strings.Contains(msg, "constraint") || strings.Contains(msg, "not found:") {
				t.Fatalf("driver detail leaked to client: %q", msg)
			}
		})
	}

	logs, err := env.store.ListTimeLogs(context.Background(), storage.TimeLogFilter{})
	if err != nil {
		t.Fatalf("list time logs: %v", err)
	}
	if len(logs) != 0 {
		t.Fatalf("rejected requests must not write, got %+v", logs)
	}
}

func TestServer_LogTimeStageFailureNamesStage(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	env := newTestEnv(t, envOptions{timeLogStore: failingUpsertStore{Store: store}})
	created := createProject(t, store, "Dashboard")

	resp, body := doJSON(t, http.MethodPost, env.server.URL+"/api/projects/log-time", map[string]any{
		"projectId": created.ID,
		"duration":  60,
	})
	expectStatus(t, resp, body, http.StatusInternalServerError)
	if body["error"] != "Failed to log time." || body["stage"] != "upsert" {
		t.Fatalf("unexpected stage error body: %v", body)
	}
}

func TestServer_ProjectLifecycle(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, envOptions{})
	base := env.server.URL + "/api/projects"

	resp, body := doJSON(t, http.MethodPost, base, map[string]any{"project_name": "  ", "summary": "x"})
	expectStatus(t, resp, body, http.StatusBadRequest)

	resp, body = doJSON(t, http.MethodPost, base, map[string]any{"project_name": "CLI", "summary": "terminal", "in_progress": true})
	expectStatus(t, resp, body, http.StatusCreated)
	created := body["project"].(map[string]any)
	id := created["id"].(string)
	if created["project_name"] != "CLI" || created["in_progress"] != true {
		t.Fatalf("unexpected created project: %v", created)
	}

	resp, body = doJSON(t, http.MethodPost, base+"/update-project-name", map[string]any{"projectId": id, "projectName": "Shell"})
	expectStatus(t, resp, body, http.StatusOK)
	resp, body = doJSON(t, http.MethodPost, base+"/update-project-name", map[string]any{"projectId": id})
	expectStatus(t, resp, body, http.StatusBadRequest)
	if body["error"] != "Missing project ID or name." {
		t.Fatalf("unexpected rename error: %v", body)
	}

	resp, body = doJSON(t, http.MethodPost, base+"/update-project", map[string]any{"projectId": id, "inProgress": false})
	expectStatus(t, resp, body, http.StatusOK)

	resp, body = doJSON(t, http.MethodGet, base+"/"+id, nil)
	expectStatus(t, resp, body, http.StatusOK)
	got := body["project"].(map[string]any)
	if got["project_name"] != "Shell" || got["in_progress"] != false {
		t.Fatalf("unexpected project after updates: %v", got)
	}

	resp, body = doJSON(t, http.MethodGet, base, nil)
	expectStatus(t, resp, body, http.StatusOK)
	if list, _ := body["projects"].([]any); len(list) != 1 {
		t.Fatalf("expected one project, got %v", body)
	}

	resp, body = doJSON(t, http.MethodDelete, base+"/"+id, nil)
	expectStatus(t, resp, body, http.StatusOK)
	resp, body = doJSON(t, http.MethodDelete, base+"/"+id, nil)
	expectStatus(t, resp, body, http.StatusNotFound)
	resp, body = doJSON(t, http.MethodGet, base+"/"+id, nil)
	expectStatus(t, resp, body, http.StatusNotFound)
}

func TestServer_ImportProjects(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, envOptions{})

	resp, body := doJSON(t, http.MethodPost, env.server.URL+"/api/projects/import", map[string]any{
		"projects": []map[string]any{
			{"project_name": "A", "summary": "first", "in_progress": true},
			{"project_name": "B"},
			{"summary": "no name"},
		},
	})
	expectStatus(t, resp, body, http.StatusOK)
	if body["imported"] != float64(2) || body["skipped"] != float64(1) {
		t.Fatalf("unexpected import response: %v", body)
	}

	resp, body = doJSON(t, http.MethodPost, env.server.URL+"/api/projects/import", "not json")
	expectStatus(t, resp, body, http.StatusBadRequest)
}

func TestServer_Links(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, envOptions{})
	created := createProject(t, env.store, "Dashboard")
	base := env.server.URL + "/api/projects/" + created.ID + "/links"

	resp, body := doJSON(t, http.MethodPost, base, map[string]any{"url": "not a url"})
	expectStatus(t, resp, body, http.StatusBadRequest)

	resp, body = doJSON(t, http.MethodPost, base, map[string]any{"url": "https://go.dev/doc", "description": "docs"})
	expectStatus(t, resp, body, http.StatusCreated)
	linkID := body["id"].(string)

	resp, body = doJSON(t, http.MethodGet, base, nil)
	expectStatus(t, resp, body, http.StatusOK)
	if links, _ := body["links"].([]any); len(links) != 1 {
		t.Fatalf("expected one link, got %v", body)
	}

	resp, body = doJSON(t, http.MethodDelete, base+"/"+linkID, nil)
	expectStatus(t, resp, body, http.StatusOK)
	resp, body = doJSON(t, http.MethodDelete, base+"/"+linkID, nil)
	expectStatus(t, resp, body, http.StatusNotFound)
	if body["error"] != "Link not found." {
		t.Fatalf("unexpected link delete error: %v", body)
	}

	resp, body = doJSON(t, http.MethodPost, env.server.URL+"/api/projects/missing/links", map[string]any{"url": "https://go.dev"})
	expectStatus(t, resp, body, http.StatusNotFound)
}

func TestServer_FilesUploadServeDelete(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, envOptions{})
	created := createProject(t, env.store, "Dashboard")
	base := env.server.URL + "/api/projects/" + created.ID + "/files"

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	part, err := writer.CreateFormFile("file", "notes.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write([]byte("hello files"))
	_ = writer.Close()

	resp, err := http.Post(base, writer.FormDataContentType(), &form)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	var uploaded map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", resp.StatusCode, uploaded)
	}
	name := uploaded["name"]
	if !strings.HasSuffix(name, "-notes.txt") {
		t.Fatalf("unexpected object name %q", name)
	}
	if uploaded["url"] != "http://trackboard.test/files/"+created.ID+"/"+url.PathEscape(name) {
		t.Fatalf("unexpected public url %q", uploaded["url"])
	}

	listResp, body := doJSON(t, http.MethodGet, base, nil)
	expectStatus(t, listResp, body, http.StatusOK)
	if files, _ := body["files"].([]any); len(files) != 1 {
		t.Fatalf("expected one file, got %v", body)
	}

	download, err := http.Get(env.server.URL + "/files/" + created.ID + "/" + url.PathEscape(name))
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	content, _ := io.ReadAll(download.Body)
	download.Body.Close()
	if download.StatusCode != http.StatusOK || string(content) != "hello files" {
		t.Fatalf("unexpected download: %d %q", download.StatusCode, content)
	}

	delResp, body := doJSON(t, http.MethodDelete, base, map[string]any{"fileName": name})
	expectStatus(t, delResp, body, http.StatusOK)
	delResp, body = doJSON(t, http.MethodDelete, base, map[string]any{"fileName": name})
	expectStatus(t, delResp, body, http.StatusNotFound)
	delResp, body = doJSON(t, http.MethodDelete, base, map[string]any{})
	expectStatus(t, delResp, body, http.StatusBadRequest)

	missing, err := http.Get(env.server.URL + "/files/" + created.ID + "/" + url.PathEscape(name))
	if err != nil {
		t.Fatalf("download deleted: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for deleted file, got %d", missing.StatusCode)
	}
}

func TestServer_FileUploadUnknownProject(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, envOptions{})
	resp, err := http.Post(env.server.URL+"/api/projects/missing/files", "text/plain", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestServer_SummarizerRoutesWithoutModel(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, envOptions{})

	resp, body := doJSON(t, http.MethodPost, env.server.URL+"/api/scrape-conversation", map[string]any{"projectId": "p", "link": "x"})
	expectStatus(t, resp, body, http.StatusServiceUnavailable)
	resp, body = doJSON(t, http.MethodPost, env.server.URL+"/api/sync-projects", nil)
	expectStatus(t, resp, body, http.StatusServiceUnavailable)
}

const sharePage = `<script>"{\"role\",\"system\",\"text\":\"choose a db\"},\"moderation_results\":[]"</script>`

func TestServer_ScrapeConversationRejectsLinks(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, envOptions{completer: fakeCompleter{reply: "- Chose SQLite"}, sharePage: sharePage})
	created := createProject(t, env.store, "Dashboard")

	for _, link := range []string{"https://elsewhere.example/share/abc", ""} {
		resp, body := doJSON(t, http.MethodPost, env.server.URL+"/api/scrape-conversation", map[string]any{
			"projectId": created.ID,
			"link":      link,
		})
		expectStatus(t, resp, body, http.StatusBadRequest)
	}
}

func TestServer_ScrapeConversationRecordsSummary(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, envOptions{completer: fakeCompleter{reply: "- Chose SQLite"}, sharePage: sharePage})
	created := createProject(t, env.store, "Dashboard")
	link := env.shareURL + "abc"

	resp, body := doJSON(t, http.MethodPost, env.server.URL+"/api/scrape-conversation", map[string]any{
		"projectId": created.ID,
		"link":      link,
	})
	expectStatus(t, resp, body, http.StatusOK)
	activity := body["activity"].(map[string]any)
	if activity["activity_summary"] != "- Chose SQLite" {
		t.Fatalf("unexpected activity: %v", activity)
	}

	resp, body = doJSON(t, http.MethodPost, env.server.URL+"/api/activities/add-link", map[string]any{
		"projectId": created.ID,
		"link":      link,
	})
	expectStatus(t, resp, body, http.StatusOK)

	activities, err := env.store.ListActivities(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("list activities: %v", err)
	}
	if len(activities) != 2 || activities[0].Summary != "Conversation link: "+link {
		t.Fatalf("unexpected activities: %+v", activities)
	}
}

func TestServer_ScrapeConversationModelFailure(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, envOptions{completer: fakeCompleter{err: errors.New("overloaded")}, sharePage: sharePage})
	created := createProject(t, env.store, "Dashboard")

	resp, body := doJSON(t, http.MethodPost, env.server.URL+"/api/scrape-conversation", map[string]any{
		"projectId": created.ID,
		"link":      env.shareURL + "abc",
	})
	expectStatus(t, resp, body, http.StatusBadGateway)

	resp, body = doJSON(t, http.MethodPost, env.server.URL+"/api/sync-projects", map[string]any{"focus": "go"})
	expectStatus(t, resp, body, http.StatusBadGateway)

	activities, err := env.store.ListActivities(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("list activities: %v", err)
	}
	if len(activities) != 0 {
		t.Fatalf("expected no activities, got %+v", activities)
	}
}

func TestServer_SyncProjectsImportsSuggestions(t *testing.T) {
	t.Parallel()

	reply := `Here you go: [{"project_name":"Dashboard","summary":"dup"},{"project_name":"Blog","summary":"writing","in_progress":true},{"project_name":""}]`
	env := newTestEnv(t, envOptions{completer: fakeCompleter{reply: reply}})
	createProject(t, env.store, "Dashboard")

	resp, body := doJSON(t, http.MethodPost, env.server.URL+"/api/sync-projects", nil)
	expectStatus(t, resp, body, http.StatusOK)
	if body["imported"] != float64(1) {
		t.Fatalf("expected one imported project, got %v", body)
	}

	projects, err := env.store.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("list projects: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("expected 2 projects, got %+v", projects)
	}
}

func TestServer_Pages(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, envOptions{})
	created := createProject(t, env.store, "Dashboard <beta>")
	if _, err := env.store.InsertActivity(context.Background(), created.ID, "shipped **markdown**", fixedNow); err != nil {
		t.Fatalf("insert activity: %v", err)
	}
	if _, err := env.store.AddTimeLogSeconds(context.Background(), created.ID, "2026-03-01", 5400); err != nil {
		t.Fatalf("add time: %v", err)
	}

	index := getText(t, env.server.URL+"/", http.StatusOK)
	for _, want := range []string{"Dashboard &lt;beta&gt;", "<strong>markdown</strong>", "/projects/" + created.ID} {
		if !strings.Contains(index, want) {
			t.Fatalf("index page missing %q:\n%s", want, index)
		}
	}

	page := getText(t, env.server.URL+"/projects/"+created.ID, http.StatusOK)
	for _, want := range []string{"2026-03-01", "01:30:00", "1.50", "Stopwatch"} {
		if !strings.Contains(page, want) {
			t.Fatalf("project page missing %q", want)
		}
	}

	getText(t, env.server.URL+"/projects/missing", http.StatusNotFound)
}

func TestServer_HealthAndRequestID(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, envOptions{})

	resp, body := doJSON(t, http.MethodGet, env.server.URL+"/healthz", nil)
	expectStatus(t, resp, body, http.StatusOK)
	if body["status"] != "ok" {
		t.Fatalf("unexpected health body: %v", body)
	}
	if resp.Header.Get(requestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}
}

func getText(t *testing.T, target string, want int) string {
	t.Helper()
	resp, err := http.Get(target)
	if err != nil {
		t.Fatalf("GET %s: %v", target, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != want {
		t.Fatalf("GET %s: expected %d, got %d", target, want, resp.StatusCode)
	}
	return string(body)
}

func TestErrorStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{err: timelog.ErrInvalidInput, want: http.StatusBadRequest},
		{err: &timelog.StageError{Stage: timelog.StageUpsert, Err: storage.ErrNotFound}, want: http.StatusNotFound},
		{err: &timelog.StageError{Stage: timelog.StageLookup, Err: errors.New("boom")}, want: http.StatusInternalServerError},
		{err: blobstore.ErrInvalidName, want: http.StatusBadRequest},
		{err: storage.ErrConflict, want: http.StatusConflict},
		{err: transcript.ErrUpstream, want: http.StatusBadGateway},
		{err: errSummarizerUnavailable, want: http.StatusServiceUnavailable},
		{err: errors.New("other"), want: http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := errorStatus(tc.err); got != tc.want {
			t.Fatalf("errorStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestClientMessage(t *testing.T) {
	t.Parallel()

	driverErr := errors.New("constraint failed: FOREIGN KEY constraint failed (787)")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "stage error on unknown project",
			err:  &timelog.StageError{Stage: timelog.StageUpsert, Err: fmt.Errorf("upsert time log: %w: %v", storage.ErrNotFound, driverErr)},
			want: "Project not found.",
		},
		{name: "stage error on store failure", err: &timelog.StageError{Stage: timelog.StageLookup, Err: driverErr}, want: "Failed to fetch existing time log."},
		{name: "missing link", err: fmt.Errorf("%w: %w", errLinkNotFound, storage.ErrNotFound), want: "Link not found."},
		{name: "missing file", err: fmt.Errorf("open: %w", blobstore.ErrNotFound), want: "File not found."},
		{name: "conflict", err: fmt.Errorf("insert: %w: %v", storage.ErrConflict, driverErr), want: "Record already exists."},
		{name: "bad request", err: fmt.Errorf("%w: Missing project ID.", errBadRequest), want: "Missing project ID."},
		{name: "upstream", err: fmt.Errorf("%w: status 500 from share host", transcript.ErrUpstream), want: "Upstream service failed, try again later."},
		{name: "unexpected", err: driverErr, want: "An unexpected error occurred."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := clientMessage(tc.err, errorStatus(tc.err)); got != tc.want {
				t.Fatalf("clientMessage() = %q, want %q", got, tc.want)
			}
		})
	}
}
