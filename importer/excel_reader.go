package importer

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const projectsSheet = "projects"

// ExcelReader reads the sheet named "Projects" (any case) or, failing that,
// the first sheet. The first non-empty row holds headers.
type ExcelReader struct{}

func (r *ExcelReader) Read(path string) ([]Record, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open excel file %s: %w", path, err)
	}
	defer file.Close()

	sheetName := pickSheet(file.GetSheetList())
	if sheetName == "" {
		return nil, fmt.Errorf("excel file has no sheets: %s", path)
	}

	rows, err := file.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read rows from sheet %s: %w", sheetName, err)
	}

	header := 0
	for header < len(rows) && isBlankRow(rows[header]) {
		header++
	}
	if header == len(rows) {
		return nil, fmt.Errorf("sheet %s is empty", sheetName)
	}

	// excel rows are 1-based
	return recordsFromRows(rows[header], rows[header+1:], header+2), nil
}

func pickSheet(sheets []string) string {
	for _, name := range sheets {
		if strings.EqualFold(strings.TrimSpace(name), projectsSheet) {
			return name
		}
	}
	if len(sheets) == 0 {
		return ""
	}
	return sheets[0]
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
