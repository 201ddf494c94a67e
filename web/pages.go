package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/yuin/goldmark"

	"trackboard/internal/timeutil"
	"trackboard/project"
	"trackboard/storage"
)

//go:embed templates/*.html
var templateFS embed.FS

type indexPageView struct {
	Title    string
	Projects []projectCardView
	Active   int
}

type projectCardView struct {
	Project    project.Project
	Activities []project.Activity
	More       int
}

type dayRowView struct {
	Date    string
	Seconds int64
}

type projectPageView struct {
	Title        string
	Project      project.Project
	Days         []dayRowView
	TotalSeconds int64
	Links        []project.Link
	Files        []project.File
}

const cardActivityLimit = 3

// BuildProjectCards keeps the latest activities per project for the list page.
func BuildProjectCards(projects []project.Project) ([]projectCardView, int) {
	cards := make([]projectCardView, 0, len(projects))
	active := 0
	for _, item := range projects {
		if item.InProgress {
			active++
		}
		card := projectCardView{Project: item, Activities: item.Activities}
		if len(card.Activities) > cardActivityLimit {
			card.More = len(card.Activities) - cardActivityLimit
			card.Activities = card.Activities[:cardActivityLimit]
		}
		cards = append(cards, card)
	}
	return cards, active
}

// BuildDayRows lists days newest first and sums their durations.
func BuildDayRows(logs []project.TimeLog) ([]dayRowView, int64) {
	rows := make([]dayRowView, 0, len(logs))
	var total int64
	for i := len(logs) - 1; i >= 0; i-- {
		rows = append(rows, dayRowView{Date: logs[i].Date, Seconds: logs[i].DurationSeconds})
		total += logs[i].DurationSeconds
	}
	return rows, total
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		s.pageError(w, r, err)
		return
	}

	cards, active := BuildProjectCards(projects)
	s.render(w, r, "projects.html", indexPageView{
		Title:    "Projects",
		Projects: cards,
		Active:   active,
	})
}

func (s *Server) handleProjectPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := r.PathValue("projectId")

	found, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		s.pageError(w, r, err)
		return
	}
	logs, err := s.store.ListTimeLogs(ctx, storage.TimeLogFilter{ProjectID: projectID})
	if err != nil {
		s.pageError(w, r, err)
		return
	}
	links, err := s.store.ListLinks(ctx, projectID)
	if err != nil {
		s.pageError(w, r, err)
		return
	}
	files, err := s.files.List(ctx, projectID)
	if err != nil {
		s.pageError(w, r, err)
		return
	}

	days, total := BuildDayRows(logs)
	s.render(w, r, "project.html", projectPageView{
		Title:        found.Name,
		Project:      found,
		Days:         days,
		TotalSeconds: total,
		Links:        links,
		Files:        files,
	})
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, page string, data any) {
	var buf bytes.Buffer
	if err := renderTemplate(&buf, page, data); err != nil {
		s.pageError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) pageError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "render page failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	http.Error(w, http.StatusText(status), status)
}

func renderTemplate(w *bytes.Buffer, pageTemplate string, data any) error {
	tmpl, err := template.New("base.html").Funcs(template.FuncMap{
		"clock":    timeutil.FormatClock,
		"markdown": renderMarkdown,
		"fmtHours": func(seconds int64) string {
			return fmt.Sprintf("%.2f", timeutil.Hours(seconds))
		},
		"fmtTime": func(value time.Time) string {
			return value.UTC().Format("2006-01-02 15:04")
		},
		"kib": func(size int64) string {
			return fmt.Sprintf("%.1f KiB", float64(size)/1024)
		},
	}).ParseFS(templateFS, "templates/base.html", "templates/"+pageTemplate)
	if err != nil {
		return fmt.Errorf("parse template %s: %w", pageTemplate, err)
	}
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		return fmt.Errorf("render template %s: %w", pageTemplate, err)
	}
	return nil
}

// renderMarkdown converts an activity summary to HTML. Raw HTML in the
// source is not passed through.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}
