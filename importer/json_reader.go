package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// JSONReader accepts either a bare array of project objects or an object
// with a "projects" array, the shape the dashboard's import box posts.
type JSONReader struct{}

func (r *JSONReader) Read(path string) ([]Record, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open json file %s: %w", path, err)
	}
	return readJSON(content)
}

func readJSON(content []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("json input is empty")
	}

	var items []map[string]any
	if trimmed[0] == '{' {
		var wrapper struct {
			Projects []map[string]any `json:"projects"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("decode json projects: %w", err)
		}
		items = wrapper.Projects
	} else if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("decode json projects: %w", err)
	}

	records := make([]Record, 0, len(items))
	for i, item := range items {
		values := make(map[string]string, len(item))
		for key, raw := range item {
			values[normalizeHeader(key)] = jsonScalar(raw)
		}
		records = append(records, Record{RowNumber: i + 1, Values: values})
	}
	return records, nil
}

func jsonScalar(raw any) string {
	switch value := raw.(type) {
	case nil:
		return ""
	case string:
		return value
	case bool:
		return strconv.FormatBool(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}
