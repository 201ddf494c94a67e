package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

type CSVWriter struct{}

func (w *CSVWriter) Write(path string, table Table) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv output %s: %w", path, err)
	}
	defer file.Close()

	return writeCSV(file, table)
}

func writeCSV(dst io.Writer, table Table) error {
	writer := csv.NewWriter(dst)

	if err := writer.Write(table.Headers); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}

	for _, row := range table.Rows {
		record := make([]string, len(row))
		for i, value := range row {
			record[i] = formatCell(value)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}
	return nil
}

func formatCell(value any) string {
	switch typed := value.(type) {
	case float64:
		return fmt.Sprintf("%.2f", typed)
	case nil:
		return ""
	default:
		return fmt.Sprint(typed)
	}
}
