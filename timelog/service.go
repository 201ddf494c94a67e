// Package timelog records stopwatch time against a project's UTC day bucket
// and attaches optional activity summaries.
package timelog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"trackboard/internal/timeutil"
	"trackboard/project"
	"trackboard/storage"
)

// ErrInvalidInput is returned before any store access when input is unusable.
var ErrInvalidInput = errors.New("invalid input")

// Stage names the step of LogTime that failed.
type Stage string

const (
	StageLookup   Stage = "lookup"
	StageUpsert   Stage = "upsert"
	StageActivity Stage = "activity"
)

// Message is the short user-facing text for a failed stage.
func (s Stage) Message() string {
	switch s {
	case StageLookup:
		return "Failed to fetch existing time log."
	case StageUpsert:
		return "Failed to log time."
	case StageActivity:
		return "Failed to log activity summary."
	default:
		return "Failed to log time."
	}
}

// StageError wraps a store failure with the stage it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Store is the subset of storage.Store the workflow needs.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetTimeLog(ctx context.Context, projectID, date string) (project.TimeLog, error)
	AddTimeLogSeconds(ctx context.Context, projectID, date string, seconds int64) (project.TimeLog, error)
	InsertActivity(ctx context.Context, projectID, summary string, createdAt time.Time) (project.Activity, error)
}

type LogTimeInput struct {
	ProjectID       string `validate:"required"`
	DurationSeconds int64  `validate:"gt=0"`
	Summary         string
}

type LogTimeResult struct {
	ProjectID    string
	Date         string
	PriorSeconds int64
	TotalSeconds int64
	// Activity is nil when the summary was blank.
	Activity *project.Activity
}

type Service struct {
	store    Store
	now      func() time.Time
	validate *validator.Validate
	logger   *slog.Logger
}

type Option func(*Service)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		now:      time.Now,
		validate: validator.New(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LogTime adds DurationSeconds to today's (UTC) time log for the project and,
// when the trimmed summary is non-empty, records it as an activity. Both writes
// commit together or not at all.
func (s *Service) LogTime(ctx context.Context, input LogTimeInput) (LogTimeResult, error) {
	input.ProjectID = strings.TrimSpace(input.ProjectID)
	if err := s.validate.Struct(input); err != nil {
		return LogTimeResult{}, invalidInput(err)
	}

	now := s.now()
	result := LogTimeResult{
		ProjectID: input.ProjectID,
		Date:      timeutil.DayKey(now),
	}
	summary := strings.TrimSpace(input.Summary)

	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := s.store.GetTimeLog(ctx, result.ProjectID, result.Date)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			result.PriorSeconds = 0
		case err != nil:
			return &StageError{Stage: StageLookup, Err: err}
		default:
			result.PriorSeconds = existing.DurationSeconds
		}

		stored, err := s.store.AddTimeLogSeconds(ctx, result.ProjectID, result.Date, input.DurationSeconds)
		if err != nil {
			return &StageError{Stage: StageUpsert, Err: err}
		}
		result.TotalSeconds = stored.DurationSeconds

		if summary == "" {
			return nil
		}
		activity, err := s.store.InsertActivity(ctx, result.ProjectID, summary, now)
		if err != nil {
			return &StageError{Stage: StageActivity, Err: err}
		}
		result.Activity = &activity
		return nil
	})
	if err != nil {
		var stageErr *StageError
		if !errors.As(err, &stageErr) {
			// begin/commit failures happen around the upsert
			err = &StageError{Stage: StageUpsert, Err: err}
		}
		s.logger.ErrorContext(ctx, "log time failed",
			slog.String("project_id", result.ProjectID),
			slog.String("date", result.Date),
			slog.Any("error", err),
		)
		return LogTimeResult{}, err
	}

	s.logger.InfoContext(ctx, "time logged",
		slog.String("project_id", result.ProjectID),
		slog.String("date", result.Date),
		slog.Int64("added_seconds", input.DurationSeconds),
		slog.Int64("total_seconds", result.TotalSeconds),
		slog.Bool("activity", result.Activity != nil),
	)
	return result, nil
}

// RecordActivity stores a summary without touching time logs.
func (s *Service) RecordActivity(ctx context.Context, projectID, summary string) (project.Activity, error) {
	projectID = strings.TrimSpace(projectID)
	summary = strings.TrimSpace(summary)
	if projectID == "" {
		return project.Activity{}, fmt.Errorf("%w: project id is required", ErrInvalidInput)
	}
	if summary == "" {
		return project.Activity{}, fmt.Errorf("%w: summary is required", ErrInvalidInput)
	}

	activity, err := s.store.InsertActivity(ctx, projectID, summary, s.now())
	if err != nil {
		return project.Activity{}, &StageError{Stage: StageActivity, Err: err}
	}
	s.logger.InfoContext(ctx, "activity recorded", slog.String("project_id", projectID), slog.String("activity_id", activity.ID))
	return activity, nil
}

func invalidInput(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		switch validationErrs[0].Field() {
		case "ProjectID":
			return fmt.Errorf("%w: project id is required", ErrInvalidInput)
		case "DurationSeconds":
			return fmt.Errorf("%w: duration must be a positive number of seconds", ErrInvalidInput)
		}
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}
