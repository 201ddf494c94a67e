package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trackboard/config"
	"trackboard/project"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// TimeLogFilter narrows ListTimeLogs. Empty fields match everything;
// From and To are inclusive YYYY-MM-DD bounds.
type TimeLogFilter struct {
	ProjectID string
	From      string
	To        string
}

// Store is the persistence boundary shared by the SQLite and PostgreSQL backends.
//
// RunInTx runs fn in one transaction carried by the context passed to fn. Store
// calls made with that context join the transaction; a nested RunInTx joins the
// outer one instead of opening a second transaction.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error

	CreateProject(ctx context.Context, input project.NewProject) (project.Project, error)
	ImportProjects(ctx context.Context, inputs []project.NewProject) (int, error)
	GetProject(ctx context.Context, id string) (project.Project, error)
	ListProjects(ctx context.Context) ([]project.Project, error)
	RenameProject(ctx context.Context, id, name string) error
	SetProjectInProgress(ctx context.Context, id string, inProgress bool) error
	DeleteProject(ctx context.Context, id string) error

	InsertActivity(ctx context.Context, projectID, summary string, createdAt time.Time) (project.Activity, error)
	ListActivities(ctx context.Context, projectID string) ([]project.Activity, error)

	GetTimeLog(ctx context.Context, projectID, date string) (project.TimeLog, error)
	// AddTimeLogSeconds adds seconds to the (projectID, date) row in a single
	// statement, creating it when missing, and returns the stored row.
	AddTimeLogSeconds(ctx context.Context, projectID, date string, seconds int64) (project.TimeLog, error)
	ListTimeLogs(ctx context.Context, filter TimeLogFilter) ([]project.TimeLog, error)

	CreateLink(ctx context.Context, projectID, url, description string) (project.Link, error)
	ListLinks(ctx context.Context, projectID string) ([]project.Link, error)
	DeleteLink(ctx context.Context, projectID, linkID string) error

	Close() error
}

// Open connects the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		return OpenSQLite(cfg.Path)
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// groupActivities attaches activities (already sorted newest first) to their projects.
func groupActivities(projects []project.Project, activities []project.Activity) {
	byProject := make(map[string][]project.Activity, len(projects))
	for _, activity := range activities {
		byProject[activity.ProjectID] = append(byProject[activity.ProjectID], activity)
	}
	for i := range projects {
		projects[i].Activities = byProject[projects[i].ID]
		if projects[i].Activities == nil {
			projects[i].Activities = []project.Activity{}
		}
	}
}
