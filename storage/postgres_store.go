package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"trackboard/config"
	"trackboard/project"
)

// pgxQuerier is implemented by *pgxpool.Pool, pgx.Tx and pgxmock.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgxPool interface {
	pgxQuerier
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

type pgTxKey struct{}

const (
	projectColumns  = "id::text AS id, project_name, summary, in_progress, created_at"
	activityColumns = "id::text AS id, project_id::text AS project_id, activity_summary, created_at"
	linkColumns     = "id::text AS id, project_id::text AS project_id, url, description, created_at"
	timeLogColumns  = "project_id::text AS project_id, date::text AS date, duration"
)

type PostgresStore struct {
	pool    pgxPool
	builder squirrel.StatementBuilderType
	now     func() time.Time
}

// OpenPostgres applies pending migrations, then connects a pool and pings it.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig) (*PostgresStore, error) {
	if _, err := MigratePostgres(ctx, cfg.DSN); err != nil {
		return nil, err
	}

	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return newPostgresStore(pool), nil
}

// NewPool creates a PostgreSQL connection pool from cfg and pings it.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database DSN: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func newPostgresStore(pool pgxPool) *PostgresStore {
	return &PostgresStore{
		pool:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		now:     time.Now,
	}
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) q(ctx context.Context) pgxQuerier {
	if tx, ok := ctx.Value(pgTxKey{}).(pgx.Tx); ok {
		return tx
	}
	return s.pool
}

func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(pgTxKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			panic(r)
		}
	}()

	if err := fn(context.WithValue(ctx, pgTxKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback failed: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateProject(ctx context.Context, input project.NewProject) (project.Project, error) {
	query, args, err := s.builder.
		Insert("projects").
		Columns("id", "project_name", "summary", "in_progress", "created_at").
		Values(uuid.NewString(), strings.TrimSpace(input.Name), strings.TrimSpace(input.Summary), input.InProgress, s.now().UTC()).
		Suffix("RETURNING " + projectColumns).
		ToSql()
	if err != nil {
		return project.Project{}, fmt.Errorf("build insert project: %w", err)
	}

	var created project.Project
	if err := pgxscan.Get(ctx, s.q(ctx), &created, query, args...); err != nil {
		return project.Project{}, mapPgError(err, "insert project")
	}
	created.Activities = []project.Activity{}
	return created, nil
}

func (s *PostgresStore) ImportProjects(ctx context.Context, inputs []project.NewProject) (int, error) {
	if len(inputs) == 0 {
		return 0, nil
	}

	now := s.now().UTC()
	insert := s.builder.
		Insert("projects").
		Columns("id", "project_name", "summary", "in_progress", "created_at")
	for _, input := range inputs {
		insert = insert.Values(uuid.NewString(), strings.TrimSpace(input.Name), strings.TrimSpace(input.Summary), input.InProgress, now)
	}
	query, args, err := insert.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build import projects: %w", err)
	}

	tag, err := s.q(ctx).Exec(ctx, query, args...)
	if err != nil {
		return 0, mapPgError(err, "import projects")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) GetProject(ctx context.Context, id string) (project.Project, error) {
	query, args, err := s.builder.
		Select(projectColumns).
		From("projects").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return project.Project{}, fmt.Errorf("build get project: %w", err)
	}

	var found project.Project
	if err := pgxscan.Get(ctx, s.q(ctx), &found, query, args...); err != nil {
		return project.Project{}, mapPgError(err, "project "+id)
	}

	activities, err := s.ListActivities(ctx, id)
	if err != nil {
		return project.Project{}, err
	}
	found.Activities = activities
	return found, nil
}

func (s *PostgresStore) ListProjects(ctx context.Context) ([]project.Project, error) {
	query, args, err := s.builder.
		Select(projectColumns).
		From("projects").
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list projects: %w", err)
	}

	out := make([]project.Project, 0)
	if err := pgxscan.Select(ctx, s.q(ctx), &out, query, args...); err != nil {
		return nil, mapPgError(err, "list projects")
	}

	activities, err := s.selectActivities(ctx, s.builder.Select(activityColumns).From("activities"))
	if err != nil {
		return nil, err
	}
	groupActivities(out, activities)
	return out, nil
}

func (s *PostgresStore) RenameProject(ctx context.Context, id, name string) error {
	return s.execAffecting(ctx, "project "+id, s.builder.
		Update("projects").
		Set("project_name", strings.TrimSpace(name)).
		Where(squirrel.Eq{"id": id}))
}

func (s *PostgresStore) SetProjectInProgress(ctx context.Context, id string, inProgress bool) error {
	return s.execAffecting(ctx, "project "+id, s.builder.
		Update("projects").
		Set("in_progress", inProgress).
		Where(squirrel.Eq{"id": id}))
}

func (s *PostgresStore) DeleteProject(ctx context.Context, id string) error {
	return s.execAffecting(ctx, "project "+id, s.builder.
		Delete("projects").
		Where(squirrel.Eq{"id": id}))
}

func (s *PostgresStore) InsertActivity(ctx context.Context, projectID, summary string, createdAt time.Time) (project.Activity, error) {
	query, args, err := s.builder.
		Insert("activities").
		Columns("id", "project_id", "activity_summary", "created_at").
		Values(uuid.NewString(), projectID, summary, createdAt.UTC()).
		Suffix("RETURNING " + activityColumns).
		ToSql()
	if err != nil {
		return project.Activity{}, fmt.Errorf("build insert activity: %w", err)
	}

	var activity project.Activity
	if err := pgxscan.Get(ctx, s.q(ctx), &activity, query, args...); err != nil {
		return project.Activity{}, mapPgError(err, "insert activity")
	}
	return activity, nil
}

func (s *PostgresStore) ListActivities(ctx context.Context, projectID string) ([]project.Activity, error) {
	return s.selectActivities(ctx, s.builder.
		Select(activityColumns).
		From("activities").
		Where(squirrel.Eq{"project_id": projectID}))
}

func (s *PostgresStore) selectActivities(ctx context.Context, builder squirrel.SelectBuilder) ([]project.Activity, error) {
	query, args, err := builder.OrderBy("created_at DESC", "id DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list activities: %w", err)
	}

	out := make([]project.Activity, 0)
	if err := pgxscan.Select(ctx, s.q(ctx), &out, query, args...); err != nil {
		return nil, mapPgError(err, "list activities")
	}
	return out, nil
}

func (s *PostgresStore) GetTimeLog(ctx context.Context, projectID, date string) (project.TimeLog, error) {
	if uuid.Validate(projectID) != nil {
		return project.TimeLog{}, fmt.Errorf("time log %s/%s: %w", projectID, date, ErrNotFound)
	}
	query, args, err := s.builder.
		Select(timeLogColumns).
		From("time_logs").
		Where(squirrel.Eq{"project_id": projectID, "date": date}).
		ToSql()
	if err != nil {
		return project.TimeLog{}, fmt.Errorf("build get time log: %w", err)
	}

	var entry project.TimeLog
	if err := pgxscan.Get(ctx, s.q(ctx), &entry, query, args...); err != nil {
		return project.TimeLog{}, mapTimeLogError(err, "time log "+projectID+"/"+date)
	}
	return entry, nil
}

// AddTimeLogSeconds rejects a malformed project id before querying so a
// surrounding transaction is not aborted.
func (s *PostgresStore) AddTimeLogSeconds(ctx context.Context, projectID, date string, seconds int64) (project.TimeLog, error) {
	if uuid.Validate(projectID) != nil {
		return project.TimeLog{}, fmt.Errorf("upsert time log: project %s: %w", projectID, ErrNotFound)
	}
	query, args, err := s.builder.
		Insert("time_logs").
		Columns("project_id", "date", "duration").
		Values(projectID, date, seconds).
		Suffix("ON CONFLICT (project_id, date) DO UPDATE SET duration = time_logs.duration + EXCLUDED.duration RETURNING " + timeLogColumns).
		ToSql()
	if err != nil {
		return project.TimeLog{}, fmt.Errorf("build upsert time log: %w", err)
	}

	var entry project.TimeLog
	if err := pgxscan.Get(ctx, s.q(ctx), &entry, query, args...); err != nil {
		return project.TimeLog{}, mapTimeLogError(err, "upsert time log")
	}
	return entry, nil
}

func (s *PostgresStore) ListTimeLogs(ctx context.Context, filter TimeLogFilter) ([]project.TimeLog, error) {
	builder := s.builder.Select(timeLogColumns).From("time_logs")
	if filter.ProjectID != "" {
		builder = builder.Where(squirrel.Eq{"project_id": filter.ProjectID})
	}
	if filter.From != "" {
		builder = builder.Where(squirrel.GtOrEq{"date": filter.From})
	}
	if filter.To != "" {
		builder = builder.Where(squirrel.LtOrEq{"date": filter.To})
	}

	query, args, err := builder.OrderBy("date", "project_id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list time logs: %w", err)
	}

	out := make([]project.TimeLog, 0)
	if err := pgxscan.Select(ctx, s.q(ctx), &out, query, args...); err != nil {
		return nil, mapPgError(err, "list time logs")
	}
	return out, nil
}

func (s *PostgresStore) CreateLink(ctx context.Context, projectID, url, description string) (project.Link, error) {
	query, args, err := s.builder.
		Insert("project_links").
		Columns("id", "project_id", "url", "description", "created_at").
		Values(uuid.NewString(), projectID, strings.TrimSpace(url), strings.TrimSpace(description), s.now().UTC()).
		Suffix("RETURNING " + linkColumns).
		ToSql()
	if err != nil {
		return project.Link{}, fmt.Errorf("build insert link: %w", err)
	}

	var link project.Link
	if err := pgxscan.Get(ctx, s.q(ctx), &link, query, args...); err != nil {
		return project.Link{}, mapPgError(err, "insert link")
	}
	return link, nil
}

func (s *PostgresStore) ListLinks(ctx context.Context, projectID string) ([]project.Link, error) {
	query, args, err := s.builder.
		Select(linkColumns).
		From("project_links").
		Where(squirrel.Eq{"project_id": projectID}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list links: %w", err)
	}

	out := make([]project.Link, 0)
	if err := pgxscan.Select(ctx, s.q(ctx), &out, query, args...); err != nil {
		return nil, mapPgError(err, "list links")
	}
	return out, nil
}

func (s *PostgresStore) DeleteLink(ctx context.Context, projectID, linkID string) error {
	return s.execAffecting(ctx, "link "+linkID, s.builder.
		Delete("project_links").
		Where(squirrel.Eq{"id": linkID, "project_id": projectID}))
}

func (s *PostgresStore) execAffecting(ctx context.Context, entity string, builder squirrel.Sqlizer) error {
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build statement for %s: %w", entity, err)
	}

	tag, err := s.q(ctx).Exec(ctx, query, args...)
	if err != nil {
		return mapPgError(err, entity)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", entity, ErrNotFound)
	}
	return nil
}

// mapTimeLogError is mapPgError without the 22P02 case: project ids are
// validated up front, so a bad text representation here is a real failure.
func mapTimeLogError(err error, entity string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "22P02" {
		return fmt.Errorf("%s: %w", entity, err)
	}
	return mapPgError(err, entity)
}

// mapPgError converts pgx errors to package sentinels. Context errors pass through.
func mapPgError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", entity, err)
	}
	if pgxscan.NotFound(err) {
		return fmt.Errorf("%s: %w", entity, ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s: %w: %v", entity, ErrConflict, err)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s: %w: %v", entity, ErrNotFound, err)
		case "22P02": // invalid_text_representation, e.g. a malformed uuid
			return fmt.Errorf("%s: %w: %v", entity, ErrNotFound, err)
		}
	}
	return fmt.Errorf("%s: %w", entity, err)
}
