package importer

import (
	"trackboard/project"
)

type Result struct {
	FilesProcessed int
	RowsRead       int
	RowsMapped     int
	RowsSkipped    int
	Projects       []project.NewProject
}

// Run reads every path and maps its rows to projects. An empty format is
// inferred per file from its extension.
func Run(paths []string, format string) (*Result, error) {
	result := &Result{Projects: make([]project.NewProject, 0, 64)}
	for _, path := range paths {
		sourceFormat, err := InferFormat(path, format)
		if err != nil {
			return nil, err
		}
		reader, err := ReaderForFormat(sourceFormat)
		if err != nil {
			return nil, err
		}

		records, err := reader.Read(path)
		if err != nil {
			return nil, err
		}

		result.FilesProcessed++
		result.RowsRead += len(records)
		if err := result.add(records); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// ParseJSON maps an in-memory JSON payload, used by the HTTP import route.
func ParseJSON(content []byte) (*Result, error) {
	records, err := readJSON(content)
	if err != nil {
		return nil, err
	}
	result := &Result{FilesProcessed: 1, RowsRead: len(records)}
	if err := result.add(records); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Result) add(records []Record) error {
	for _, record := range records {
		mapped, ok, err := MapProject(record)
		if err != nil {
			return err
		}
		if !ok {
			r.RowsSkipped++
			continue
		}
		r.RowsMapped++
		r.Projects = append(r.Projects, mapped)
	}
	return nil
}
