// Package web serves a localhost-only single-user dashboard and JSON API; it
// intentionally has no auth/CSRF protection.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"trackboard/blobstore"
	"trackboard/importer"
	"trackboard/project"
	"trackboard/storage"
	"trackboard/summarizer"
	"trackboard/timelog"
	"trackboard/transcript"
)

const (
	maxJSONBody   = 1 << 20
	maxUploadBody = 32 << 20
)

var (
	errBadRequest            = errors.New("bad request")
	errSummarizerUnavailable = errors.New("summarizer is not configured (set llm.api_key)")
	errLinkNotFound          = errors.New("link not found")
)

// Deps are the collaborators the server routes to. Transcripts and Suggester
// may be nil when no model is configured; their routes answer 503.
type Deps struct {
	Store       storage.Store
	TimeLogs    *timelog.Service
	Files       *blobstore.Store
	Transcripts *transcript.Service
	Suggester   *summarizer.Client
	Logger      *slog.Logger
}

type Server struct {
	store       storage.Store
	timeLogs    *timelog.Service
	files       *blobstore.Store
	transcripts *transcript.Service
	suggester   *summarizer.Client
	logger      *slog.Logger
	validate    *validator.Validate

	handler http.Handler
}

type logTimeRequest struct {
	ProjectID string `json:"projectId"`
	Duration  int64  `json:"duration"`
	Summary   string `json:"summary"`
}

type logTimeResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	Date         string `json:"date"`
	TotalSeconds int64  `json:"totalSeconds"`
	ActivityID   string `json:"activityId,omitempty"`
}

type renameRequest struct {
	ProjectID   string `json:"projectId" validate:"required"`
	ProjectName string `json:"projectName" validate:"required"`
}

type stateRequest struct {
	ProjectID  string `json:"projectId" validate:"required"`
	InProgress bool   `json:"inProgress"`
}

type projectLinkRequest struct {
	ProjectID string `json:"projectId" validate:"required"`
	Link      string `json:"link" validate:"required"`
}

type deleteFileRequest struct {
	FileName string `json:"fileName" validate:"required"`
}

type syncRequest struct {
	Focus string `json:"focus"`
}

type errorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

func NewServer(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	server := &Server{
		store:       deps.Store,
		timeLogs:    deps.TimeLogs,
		files:       deps.Files,
		transcripts: deps.Transcripts,
		suggester:   deps.Suggester,
		logger:      logger,
		validate:    validator.New(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", server.handleIndex)
	mux.HandleFunc("GET /projects/{projectId}", server.handleProjectPage)
	mux.HandleFunc("GET /files/{projectId}/{name}", server.handleFileDownload)
	mux.HandleFunc("GET /healthz", server.handleHealth)

	mux.HandleFunc("POST /api/projects/log-time", server.handleAPILogTime)
	mux.HandleFunc("GET /api/projects", server.handleAPIProjectList)
	mux.HandleFunc("POST /api/projects", server.handleAPIProjectCreate)
	mux.HandleFunc("POST /api/projects/update-project-name", server.handleAPIProjectRename)
	mux.HandleFunc("POST /api/projects/update-project", server.handleAPIProjectState)
	mux.HandleFunc("POST /api/projects/import", server.handleAPIProjectImport)
	mux.HandleFunc("GET /api/projects/{projectId}", server.handleAPIProjectGet)
	mux.HandleFunc("DELETE /api/projects/{projectId}", server.handleAPIProjectDelete)
	mux.HandleFunc("GET /api/projects/{projectId}/time-logs", server.handleAPITimeLogs)
	mux.HandleFunc("GET /api/projects/{projectId}/links", server.handleAPILinkList)
	mux.HandleFunc("POST /api/projects/{projectId}/links", server.handleAPILinkCreate)
	mux.HandleFunc("DELETE /api/projects/{projectId}/links/{linkId}", server.handleAPILinkDelete)
	mux.HandleFunc("GET /api/projects/{projectId}/files", server.handleAPIFileList)
	mux.HandleFunc("POST /api/projects/{projectId}/files", server.handleAPIFileUpload)
	mux.HandleFunc("DELETE /api/projects/{projectId}/files", server.handleAPIFileDelete)
	mux.HandleFunc("POST /api/scrape-conversation", server.handleAPIScrapeConversation)
	mux.HandleFunc("POST /api/activities/add-link", server.handleAPIAddConversationLink)
	mux.HandleFunc("POST /api/sync-projects", server.handleAPISyncProjects)

	server.handler = Chain(RequestID, AccessLog(logger), Recovery(logger))(mux)
	return server
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAPILogTime(w http.ResponseWriter, r *http.Request) {
	var body logTimeRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.timeLogs.LogTime(r.Context(), timelog.LogTimeInput{
		ProjectID:       body.ProjectID,
		DurationSeconds: body.Duration,
		Summary:         body.Summary,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	response := logTimeResponse{
		Status:       "ok",
		Message:      "Time and activity logged successfully!",
		Date:         result.Date,
		TotalSeconds: result.TotalSeconds,
	}
	if result.Activity != nil {
		response.ActivityID = result.Activity.ID
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleAPIProjectList(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		s.writeError(w, r, fmt.Errorf("fetch projects with activities: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

func (s *Server) handleAPIProjectCreate(w http.ResponseWriter, r *http.Request) {
	var body project.NewProject
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	body.Name = strings.TrimSpace(body.Name)
	if err := s.validate.Struct(body); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: project_name is required", errBadRequest))
		return
	}

	created, err := s.store.CreateProject(r.Context(), body)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("create project: %w", err))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"project": created})
}

func (s *Server) handleAPIProjectGet(w http.ResponseWriter, r *http.Request) {
	found, err := s.store.GetProject(r.Context(), r.PathValue("projectId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"project": found})
}

func (s *Server) handleAPIProjectDelete(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.store.DeleteProject(r.Context(), projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	// Rows are gone at this point; orphaned blobs are only logged.
	if err := s.files.DeleteProject(r.Context(), projectID); err != nil {
		s.logger.WarnContext(r.Context(), "remove project files failed", slog.String("project_id", projectID), slog.Any("error", err))
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Project deleted successfully."})
}

func (s *Server) handleAPIProjectRename(w http.ResponseWriter, r *http.Request) {
	var body renameRequest
	if err := s.decodeValid(r, &body, "Missing project ID or name."); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.RenameProject(r.Context(), body.ProjectID, strings.TrimSpace(body.ProjectName)); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Project name updated successfully!"})
}

func (s *Server) handleAPIProjectState(w http.ResponseWriter, r *http.Request) {
	var body stateRequest
	if err := s.decodeValid(r, &body, "Missing project ID."); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.SetProjectInProgress(r.Context(), body.ProjectID, body.InProgress); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Project state updated successfully!"})
}

func (s *Server) handleAPIProjectImport(w http.ResponseWriter, r *http.Request) {
	content, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: read body: %v", errBadRequest, err))
		return
	}

	result, err := importer.ParseJSON(content)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	imported, err := s.store.ImportProjects(r.Context(), result.Projects)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("insert projects: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Projects imported successfully!",
		"imported": imported,
		"skipped":  result.RowsSkipped,
	})
}

func (s *Server) handleAPITimeLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.store.ListTimeLogs(r.Context(), storage.TimeLogFilter{ProjectID: r.PathValue("projectId")})
	if err != nil {
		s.writeError(w, r, fmt.Errorf("fetch time logs: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"timeLogs": logs})
}

func (s *Server) handleAPILinkList(w http.ResponseWriter, r *http.Request) {
	links, err := s.store.ListLinks(r.Context(), r.PathValue("projectId"))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("fetch links: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"links": links})
}

func (s *Server) handleAPILinkCreate(w http.ResponseWriter, r *http.Request) {
	var body project.NewLink
	if err := s.decodeValid(r, &body, "url must be an absolute URL"); err != nil {
		s.writeError(w, r, err)
		return
	}

	link, err := s.store.CreateLink(r.Context(), r.PathValue("projectId"), body.URL, body.Description)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

func (s *Server) handleAPILinkDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteLink(r.Context(), r.PathValue("projectId"), r.PathValue("linkId")); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			err = fmt.Errorf("%w: %w", errLinkNotFound, err)
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Link deleted successfully."})
}

func (s *Server) handleAPIFileList(w http.ResponseWriter, r *http.Request) {
	files, err := s.files.List(r.Context(), r.PathValue("projectId"))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("list files: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

func (s *Server) handleAPIFileUpload(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if _, err := s.store.GetProject(r.Context(), projectID); err != nil {
		s.writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxUploadBody); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: parse multipart form: %v", errBadRequest, err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: No file provided.", errBadRequest))
		return
	}
	defer file.Close()

	stored, err := s.files.Upload(r.Context(), projectID, header.Filename, file)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("upload file: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "File uploaded successfully.",
		"url":     stored.URL,
		"name":    stored.Name,
	})
}

func (s *Server) handleAPIFileDelete(w http.ResponseWriter, r *http.Request) {
	var body deleteFileRequest
	if err := s.decodeValid(r, &body, "File name is required."); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.files.Delete(r.Context(), r.PathValue("projectId"), body.FileName); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "File deleted successfully."})
}

func (s *Server) handleFileDownload(w http.ResponseWriter, r *http.Request) {
	file, info, err := s.files.Open(r.Context(), r.PathValue("projectId"), r.PathValue("name"))
	if err != nil {
		status := errorStatus(err)
		if status == http.StatusInternalServerError {
			s.logger.ErrorContext(r.Context(), "open file failed", slog.Any("error", err))
		}
		http.Error(w, http.StatusText(status), status)
		return
	}
	defer file.Close()

	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
}

func (s *Server) handleAPIScrapeConversation(w http.ResponseWriter, r *http.Request) {
	if s.transcripts == nil {
		s.writeError(w, r, errSummarizerUnavailable)
		return
	}
	var body projectLinkRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	activity, err := s.transcripts.SummarizeInto(r.Context(), body.ProjectID, body.Link)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Activity summarized and inserted successfully!",
		"activity": activity,
	})
}

func (s *Server) handleAPIAddConversationLink(w http.ResponseWriter, r *http.Request) {
	var body projectLinkRequest
	if err := s.decodeValid(r, &body, "Missing project ID or link."); err != nil {
		s.writeError(w, r, err)
		return
	}

	if _, err := s.timeLogs.RecordActivity(r.Context(), body.ProjectID, "Conversation link: "+strings.TrimSpace(body.Link)); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Conversation link added successfully!"})
}

func (s *Server) handleAPISyncProjects(w http.ResponseWriter, r *http.Request) {
	if s.suggester == nil {
		s.writeError(w, r, errSummarizerUnavailable)
		return
	}
	var body syncRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &body); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	imported, suggestions, err := SyncProjects(r.Context(), s.store, s.suggester, body.Focus)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Projects synced successfully!",
		"imported": imported,
		"data":     suggestions,
	})
}

// SyncProjects asks the model for projects not yet tracked and imports them.
func SyncProjects(ctx context.Context, store storage.Store, suggester *summarizer.Client, focus string) (int, []project.NewProject, error) {
	existing, err := store.ListProjects(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("list projects: %w", err)
	}
	names := make([]string, 0, len(existing))
	for _, item := range existing {
		names = append(names, item.Name)
	}

	suggestions, err := suggester.SuggestProjects(ctx, focus, names)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: suggest projects: %w", transcript.ErrUpstream, err)
	}
	if len(suggestions) == 0 {
		return 0, suggestions, nil
	}

	imported, err := store.ImportProjects(ctx, suggestions)
	if err != nil {
		return 0, nil, fmt.Errorf("import suggested projects: %w", err)
	}
	return imported, suggestions, nil
}

// decodeValid decodes the body and validates it, replacing validation detail
// with message.
func (s *Server) decodeValid(r *http.Request, out any, message string) error {
	if err := decodeJSON(r, out); err != nil {
		return err
	}
	if err := s.validate.Struct(out); err != nil {
		return fmt.Errorf("%w: %s", errBadRequest, message)
	}
	return nil
}

// writeError answers with a short client message; the full error only goes
// to the log.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	response := errorResponse{Error: clientMessage(err, status)}

	var stageErr *timelog.StageError
	if errors.As(err, &stageErr) {
		response.Stage = string(stageErr.Stage)
	}

	attrs := []any{
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.Any("error", err),
	}
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", attrs...)
	} else {
		s.logger.WarnContext(r.Context(), "request rejected", attrs...)
	}
	writeJSON(w, status, response)
}

func clientMessage(err error, status int) string {
	var stageErr *timelog.StageError
	switch {
	case errors.Is(err, errLinkNotFound):
		return "Link not found."
	case errors.Is(err, blobstore.ErrNotFound):
		return "File not found."
	case errors.Is(err, storage.ErrNotFound):
		return "Project not found."
	case errors.Is(err, storage.ErrConflict):
		return "Record already exists."
	case errors.As(err, &stageErr):
		return stageErr.Stage.Message()
	case errors.Is(err, errBadRequest):
		return strings.TrimPrefix(err.Error(), errBadRequest.Error()+": ")
	case status == http.StatusBadRequest, status == http.StatusServiceUnavailable:
		return err.Error()
	case status == http.StatusBadGateway:
		return "Upstream service failed, try again later."
	default:
		return "An unexpected error occurred."
	}
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, timelog.ErrInvalidInput),
		errors.Is(err, transcript.ErrInvalidLink),
		errors.Is(err, transcript.ErrMissingInput),
		errors.Is(err, transcript.ErrBlockNotFound),
		errors.Is(err, blobstore.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, blobstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, errSummarizerUnavailable), errors.Is(err, summarizer.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, transcript.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("%w: request body must contain a single JSON object", errBadRequest)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
