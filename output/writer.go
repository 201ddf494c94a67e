package output

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	FormatCSV   = "csv"
	FormatExcel = "excel"
)

// Table is a header row plus data rows, the unit every writer consumes.
type Table struct {
	Headers []string
	Rows    [][]any
}

type Writer interface {
	Write(path string, table Table) error
}

func WriterForFormat(format string) (Writer, error) {
	switch normalizeFormat(format) {
	case FormatCSV:
		return &CSVWriter{}, nil
	case FormatExcel, "xlsx":
		return &ExcelWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// DetectFormat infers the format from the output extension, defaulting to CSV.
func DetectFormat(path string) string {
	switch strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".") {
	case "xlsx", "xlsm":
		return FormatExcel
	default:
		return FormatCSV
	}
}

func normalizeFormat(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}
