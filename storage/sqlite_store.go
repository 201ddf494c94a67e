package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"trackboard/project"
)

// timestampLayout is fixed width so TEXT ordering matches chronological ordering.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

const sqliteSchemaVersion = 1

type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

type sqliteTxKey struct{}

// sqlExecutor is implemented by both *sql.DB and *sql.Tx.
type sqlExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// One connection: pragmas stay applied and writers never contend.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	store := &SQLiteStore{db: db, now: time.Now}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	var version int
	if err := s.db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version >= sqliteSchemaVersion {
		return nil
	}

	const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id TEXT PRIMARY KEY,
	project_name TEXT NOT NULL,
	summary TEXT NOT NULL DEFAULT '',
	in_progress INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS activities (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	activity_summary TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_activities_project_created ON activities(project_id, created_at);

CREATE TABLE IF NOT EXISTS project_links (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	url TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS time_logs (
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	date TEXT NOT NULL,
	duration INTEGER NOT NULL CHECK(duration >= 0),
	UNIQUE(project_id, date)
);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", sqliteSchemaVersion)); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return nil
}

func (s *SQLiteStore) conn(ctx context.Context) sqlExecutor {
	if tx, ok := ctx.Value(sqliteTxKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

func (s *SQLiteStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(sqliteTxKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(context.WithValue(ctx, sqliteTxKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CreateProject(ctx context.Context, input project.NewProject) (project.Project, error) {
	created := project.Project{
		ID:         uuid.NewString(),
		Name:       strings.TrimSpace(input.Name),
		Summary:    strings.TrimSpace(input.Summary),
		InProgress: input.InProgress,
		CreatedAt:  s.now().UTC(),
		Activities: []project.Activity{},
	}

	const insertStmt = `
INSERT INTO projects (id, project_name, summary, in_progress, created_at)
VALUES (?, ?, ?, ?, ?);`

	if _, err := s.conn(ctx).ExecContext(
		ctx,
		insertStmt,
		created.ID,
		created.Name,
		created.Summary,
		created.InProgress,
		formatTimestamp(created.CreatedAt),
	); err != nil {
		return project.Project{}, fmt.Errorf("insert project: %w", mapSQLiteError(err))
	}
	return created, nil
}

func (s *SQLiteStore) ImportProjects(ctx context.Context, inputs []project.NewProject) (int, error) {
	if len(inputs) == 0 {
		return 0, nil
	}

	inserted := 0
	err := s.RunInTx(ctx, func(ctx context.Context) error {
		for _, input := range inputs {
			if _, err := s.CreateProject(ctx, input); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("import projects: %w", err)
	}
	return inserted, nil
}

func (s *SQLiteStore) GetProject(ctx context.Context, id string) (project.Project, error) {
	const query = `
SELECT id, project_name, summary, in_progress, created_at
FROM projects
WHERE id = ?;`

	row := s.conn(ctx).QueryRowContext(ctx, query, id)
	found, err := scanSQLiteProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return project.Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return project.Project{}, fmt.Errorf("query project: %w", err)
	}

	activities, err := s.ListActivities(ctx, id)
	if err != nil {
		return project.Project{}, err
	}
	found.Activities = activities
	return found, nil
}

func (s *SQLiteStore) ListProjects(ctx context.Context) ([]project.Project, error) {
	const query = `
SELECT id, project_name, summary, in_progress, created_at
FROM projects
ORDER BY created_at DESC, rowid DESC;`

	rows, err := s.conn(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	out := make([]project.Project, 0)
	for rows.Next() {
		found, err := scanSQLiteProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, found)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("close project rows: %w", err)
	}

	activities, err := s.queryActivities(ctx, "")
	if err != nil {
		return nil, err
	}
	groupActivities(out, activities)
	return out, nil
}

func (s *SQLiteStore) RenameProject(ctx context.Context, id, name string) error {
	res, err := s.conn(ctx).ExecContext(ctx, `UPDATE projects SET project_name = ? WHERE id = ?;`, strings.TrimSpace(name), id)
	if err != nil {
		return fmt.Errorf("rename project: %w", err)
	}
	return requireAffected(res, "project", id)
}

func (s *SQLiteStore) SetProjectInProgress(ctx context.Context, id string, inProgress bool) error {
	res, err := s.conn(ctx).ExecContext(ctx, `UPDATE projects SET in_progress = ? WHERE id = ?;`, inProgress, id)
	if err != nil {
		return fmt.Errorf("update project state: %w", err)
	}
	return requireAffected(res, "project", id)
}

func (s *SQLiteStore) DeleteProject(ctx context.Context, id string) error {
	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM projects WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return requireAffected(res, "project", id)
}

func (s *SQLiteStore) InsertActivity(ctx context.Context, projectID, summary string, createdAt time.Time) (project.Activity, error) {
	activity := project.Activity{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Summary:   summary,
		CreatedAt: createdAt.UTC(),
	}

	const insertStmt = `
INSERT INTO activities (id, project_id, activity_summary, created_at)
VALUES (?, ?, ?, ?);`

	if _, err := s.conn(ctx).ExecContext(
		ctx,
		insertStmt,
		activity.ID,
		activity.ProjectID,
		activity.Summary,
		formatTimestamp(activity.CreatedAt),
	); err != nil {
		return project.Activity{}, fmt.Errorf("insert activity: %w", mapSQLiteError(err))
	}
	return activity, nil
}

func (s *SQLiteStore) ListActivities(ctx context.Context, projectID string) ([]project.Activity, error) {
	return s.queryActivities(ctx, projectID)
}

func (s *SQLiteStore) queryActivities(ctx context.Context, projectID string) ([]project.Activity, error) {
	query := `
SELECT id, project_id, activity_summary, created_at
FROM activities`
	args := []any{}
	if projectID != "" {
		query += `
WHERE project_id = ?`
		args = append(args, projectID)
	}
	query += `
ORDER BY created_at DESC, rowid DESC;`

	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	out := make([]project.Activity, 0)
	for rows.Next() {
		var (
			activity  project.Activity
			createdAt string
		)
		if err := rows.Scan(&activity.ID, &activity.ProjectID, &activity.Summary, &createdAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		if activity.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, err
		}
		out = append(out, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) GetTimeLog(ctx context.Context, projectID, date string) (project.TimeLog, error) {
	const query = `
SELECT project_id, date, duration
FROM time_logs
WHERE project_id = ? AND date = ?;`

	var entry project.TimeLog
	err := s.conn(ctx).QueryRowContext(ctx, query, projectID, date).Scan(&entry.ProjectID, &entry.Date, &entry.DurationSeconds)
	if errors.Is(err, sql.ErrNoRows) {
		return project.TimeLog{}, fmt.Errorf("time log %s/%s: %w", projectID, date, ErrNotFound)
	}
	if err != nil {
		return project.TimeLog{}, fmt.Errorf("query time log: %w", err)
	}
	return entry, nil
}

func (s *SQLiteStore) AddTimeLogSeconds(ctx context.Context, projectID, date string, seconds int64) (project.TimeLog, error) {
	const upsertStmt = `
INSERT INTO time_logs (project_id, date, duration)
VALUES (?, ?, ?)
ON CONFLICT(project_id, date) DO UPDATE SET duration = time_logs.duration + excluded.duration
RETURNING project_id, date, duration;`

	var entry project.TimeLog
	err := s.conn(ctx).QueryRowContext(ctx, upsertStmt, projectID, date, seconds).Scan(&entry.ProjectID, &entry.Date, &entry.DurationSeconds)
	if err != nil {
		return project.TimeLog{}, fmt.Errorf("upsert time log: %w", mapSQLiteError(err))
	}
	return entry, nil
}

func (s *SQLiteStore) ListTimeLogs(ctx context.Context, filter TimeLogFilter) ([]project.TimeLog, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.ProjectID != "" {
		clauses = append(clauses, "project_id = ?")
		args = append(args, filter.ProjectID)
	}
	if filter.From != "" {
		clauses = append(clauses, "date >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		clauses = append(clauses, "date <= ?")
		args = append(args, filter.To)
	}

	query := `
SELECT project_id, date, duration
FROM time_logs`
	if len(clauses) > 0 {
		query += "\nWHERE " + strings.Join(clauses, " AND ")
	}
	query += "\nORDER BY date, project_id;"

	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query time logs: %w", err)
	}
	defer rows.Close()

	out := make([]project.TimeLog, 0)
	for rows.Next() {
		var entry project.TimeLog
		if err := rows.Scan(&entry.ProjectID, &entry.Date, &entry.DurationSeconds); err != nil {
			return nil, fmt.Errorf("scan time log: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate time logs: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) CreateLink(ctx context.Context, projectID, url, description string) (project.Link, error) {
	link := project.Link{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		URL:         strings.TrimSpace(url),
		Description: strings.TrimSpace(description),
		CreatedAt:   s.now().UTC(),
	}

	const insertStmt = `
INSERT INTO project_links (id, project_id, url, description, created_at)
VALUES (?, ?, ?, ?, ?);`

	if _, err := s.conn(ctx).ExecContext(
		ctx,
		insertStmt,
		link.ID,
		link.ProjectID,
		link.URL,
		link.Description,
		formatTimestamp(link.CreatedAt),
	); err != nil {
		return project.Link{}, fmt.Errorf("insert link: %w", mapSQLiteError(err))
	}
	return link, nil
}

func (s *SQLiteStore) ListLinks(ctx context.Context, projectID string) ([]project.Link, error) {
	const query = `
SELECT id, project_id, url, description, created_at
FROM project_links
WHERE project_id = ?
ORDER BY created_at, rowid;`

	rows, err := s.conn(ctx).QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	out := make([]project.Link, 0)
	for rows.Next() {
		var (
			link      project.Link
			createdAt string
		)
		if err := rows.Scan(&link.ID, &link.ProjectID, &link.URL, &link.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		if link.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, err
		}
		out = append(out, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) DeleteLink(ctx context.Context, projectID, linkID string) error {
	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM project_links WHERE id = ? AND project_id = ?;`, linkID, projectID)
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	return requireAffected(res, "link", linkID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteProject(row rowScanner) (project.Project, error) {
	var (
		found     project.Project
		createdAt string
	)
	if err := row.Scan(&found.ID, &found.Name, &found.Summary, &found.InProgress, &createdAt); err != nil {
		return project.Project{}, err
	}
	parsed, err := parseTimestamp(createdAt)
	if err != nil {
		return project.Project{}, err
	}
	found.CreatedAt = parsed
	return found, nil
}

func requireAffected(res sql.Result, entity, id string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected %s rows: %w", entity, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
	}
	return nil
}

// mapSQLiteError converts constraint failures to package sentinels.
// A foreign key failure means the referenced project does not exist.
func mapSQLiteError(err error) error {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

func formatTimestamp(value time.Time) string {
	return value.UTC().Format(timestampLayout)
}

func parseTimestamp(value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored timestamp %q: %w", value, err)
	}
	return parsed.UTC(), nil
}
