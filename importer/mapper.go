package importer

import (
	"fmt"
	"strings"

	"trackboard/project"
)

// MapProject turns a record into a project. Rows without a name are skipped
// (ok=false); a malformed in-progress flag is an error.
func MapProject(record Record) (project.NewProject, bool, error) {
	name := record.Get("project_name", "name", "project", "projekt")
	if name == "" {
		return project.NewProject{}, false, nil
	}

	inProgress, err := parseFlag(record.Get("in_progress", "active", "status"))
	if err != nil {
		return project.NewProject{}, false, fmt.Errorf("row %d: parse in_progress: %w", record.RowNumber, err)
	}

	return project.NewProject{
		Name:       name,
		Summary:    strings.TrimSpace(record.Get("summary", "description", "beschreibung")),
		InProgress: inProgress,
	}, true, nil
}
