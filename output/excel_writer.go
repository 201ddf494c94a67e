package output

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const excelSheet = "TimeLogs"

// ExcelWriter keeps numeric cells numeric so totals can be summed in place.
type ExcelWriter struct{}

func (w *ExcelWriter) Write(path string, table Table) error {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName(file.GetSheetName(0), excelSheet); err != nil {
		return fmt.Errorf("rename excel sheet: %w", err)
	}

	header := make([]any, len(table.Headers))
	for i, value := range table.Headers {
		header[i] = value
	}
	if err := file.SetSheetRow(excelSheet, "A1", &header); err != nil {
		return fmt.Errorf("set excel headers: %w", err)
	}

	for i, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("resolve excel row %d: %w", i+2, err)
		}
		values := row
		if err := file.SetSheetRow(excelSheet, cell, &values); err != nil {
			return fmt.Errorf("set excel row %s: %w", cell, err)
		}
	}

	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("save excel output %s: %w", path, err)
	}
	return nil
}
