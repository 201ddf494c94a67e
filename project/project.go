package project

import "time"

// Project is a tracked piece of work. Reads embed its activities, newest first.
type Project struct {
	ID         string     `json:"id" db:"id"`
	Name       string     `json:"project_name" db:"project_name"`
	Summary    string     `json:"summary" db:"summary"`
	InProgress bool       `json:"in_progress" db:"in_progress"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	Activities []Activity `json:"activities" db:"-"`
}

// Activity is a free-text note attached to a project.
type Activity struct {
	ID        string    `json:"id" db:"id"`
	ProjectID string    `json:"project_id" db:"project_id"`
	Summary   string    `json:"activity_summary" db:"activity_summary"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Link is a URL stored against a project.
type Link struct {
	ID          string    `json:"id" db:"id"`
	ProjectID   string    `json:"project_id" db:"project_id"`
	URL         string    `json:"url" db:"url"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// TimeLog is the accumulated duration for one project on one UTC day.
// Date uses the YYYY-MM-DD layout.
type TimeLog struct {
	ProjectID       string `json:"project_id" db:"project_id"`
	Date            string `json:"date" db:"date"`
	DurationSeconds int64  `json:"duration" db:"duration"`
}

// File describes a stored blob under a project's namespace.
type File struct {
	Name      string    `json:"name"`
	Key       string    `json:"-"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
	URL       string    `json:"url"`
}

// NewProject is the input for creating or importing a project.
type NewProject struct {
	Name       string `json:"project_name" validate:"required"`
	Summary    string `json:"summary"`
	InProgress bool   `json:"in_progress"`
}

// NewLink is the input for attaching a link to a project.
type NewLink struct {
	URL         string `json:"url" validate:"required,url"`
	Description string `json:"description"`
}
