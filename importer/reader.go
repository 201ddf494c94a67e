package importer

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	FormatCSV   = "csv"
	FormatExcel = "excel"
	FormatJSON  = "json"
)

type Reader interface {
	Read(path string) ([]Record, error)
}

func SupportedFormats() []string {
	return []string{FormatCSV, FormatExcel, FormatJSON}
}

func ReaderForFormat(format string) (Reader, error) {
	switch normalizeHeader(format) {
	case FormatCSV:
		return &CSVReader{}, nil
	case FormatExcel, "xlsx", "xlsm":
		return &ExcelReader{}, nil
	case FormatJSON:
		return &JSONReader{}, nil
	default:
		return nil, fmt.Errorf("unsupported input format: %s", format)
	}
}

// InferFormat returns format when set, otherwise derives it from the file
// extension.
func InferFormat(path, format string) (string, error) {
	if strings.TrimSpace(format) != "" {
		return strings.ToLower(strings.TrimSpace(format)), nil
	}

	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "csv":
		return FormatCSV, nil
	case "xlsx", "xlsm":
		return FormatExcel, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported file extension for %s", path)
	}
}
