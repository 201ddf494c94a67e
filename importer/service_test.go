package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRun_CSV(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "projects.csv", "Project Name,Summary,In Progress\n"+
		"Dashboard,Track hours,yes\n"+
		",orphan row,\n"+
		"CLI,,no\n")

	result, err := Run([]string{path}, "")
	if err != nil {
		t.Fatalf("run import: %v", err)
	}
	if result.FilesProcessed != 1 || result.RowsRead != 3 || result.RowsMapped != 2 || result.RowsSkipped != 1 {
		t.Fatalf("unexpected counters: %+v", result)
	}
	if result.Projects[0].Name != "Dashboard" || result.Projects[0].Summary != "Track hours" || !result.Projects[0].InProgress {
		t.Fatalf("unexpected first project: %+v", result.Projects[0])
	}
	if result.Projects[1].Name != "CLI" || result.Projects[1].InProgress {
		t.Fatalf("unexpected second project: %+v", result.Projects[1])
	}
}

func TestRun_CSVShortRowsArePadded(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "short.csv", "name,summary,in_progress\nOnly Name\n")

	result, err := Run([]string{path}, "csv")
	if err != nil {
		t.Fatalf("run import: %v", err)
	}
	if len(result.Projects) != 1 || result.Projects[0].Name != "Only Name" || result.Projects[0].Summary != "" {
		t.Fatalf("unexpected projects: %+v", result.Projects)
	}
}

func TestRun_InvalidFlagReportsRow(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "bad.csv", "name,in_progress\nA,yes\nB,sometimes\n")

	_, err := Run([]string{path}, "")
	if err == nil {
		t.Fatalf("expected error")
	}
	if got := err.Error(); got != `row 3: parse in_progress: unsupported flag value "sometimes"` {
		t.Fatalf("unexpected error: %s", got)
	}
}

func TestRun_Excel(t *testing.T) {
	t.Parallel()

	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	rows := [][]any{
		{"project_name", "summary", "in_progress"},
		{"Spreadsheet", "from excel", "TRUE"},
		{"Second", "", ""},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := book.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "projects.xlsx")
	if err := book.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}

	result, err := Run([]string{path}, "")
	if err != nil {
		t.Fatalf("run import: %v", err)
	}
	if len(result.Projects) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(result.Projects))
	}
	if result.Projects[0].Name != "Spreadsheet" || !result.Projects[0].InProgress {
		t.Fatalf("unexpected first project: %+v", result.Projects[0])
	}
}

func TestRun_JSONShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "array", content: `[{"project_name":"A","summary":"s","in_progress":true},{"project_name":"B"}]`},
		{name: "wrapped", content: `{"projects":[{"project_name":"A","summary":"s","in_progress":true},{"project_name":"B"}]}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			path := writeFile(t, "projects.json", tc.content)
			result, err := Run([]string{path}, "")
			if err != nil {
				t.Fatalf("run import: %v", err)
			}
			if len(result.Projects) != 2 {
				t.Fatalf("expected 2 projects, got %+v", result.Projects)
			}
			if result.Projects[0].Name != "A" || result.Projects[0].Summary != "s" || !result.Projects[0].InProgress {
				t.Fatalf("unexpected first project: %+v", result.Projects[0])
			}
			if result.Projects[1].InProgress {
				t.Fatalf("second project should not be in progress")
			}
		})
	}
}

func TestParseJSON_Invalid(t *testing.T) {
	t.Parallel()

	for _, content := range []string{"", "not json", `{"projects":"nope"}`} {
		if _, err := ParseJSON([]byte(content)); err == nil {
			t.Fatalf("expected error for %q", content)
		}
	}
}

func TestInferFormat(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"a.csv":  FormatCSV,
		"a.XLSX": FormatExcel,
		"a.json": FormatJSON,
	}
	for path, want := range cases {
		got, err := InferFormat(path, "")
		if err != nil {
			t.Fatalf("infer %s: %v", path, err)
		}
		if got != want {
			t.Fatalf("infer %s: want %s, got %s", path, want, got)
		}
	}

	if _, err := InferFormat("a.txt", ""); err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
	if got, _ := InferFormat("a.txt", " CSV "); got != "csv" {
		t.Fatalf("explicit format should win, got %q", got)
	}
}

func TestRun_CSVSemicolonWithBOM(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "export.csv", "\ufeffProjekt;Beschreibung;Active\nHeizung;Steuerung, Raum 2;ja\nGarten;;nein\n")

	result, err := Run([]string{path}, "")
	if err != nil {
		t.Fatalf("run import: %v", err)
	}
	if len(result.Projects) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(result.Projects))
	}
	first := result.Projects[0]
	if first.Name != "Heizung" || first.Summary != "Steuerung, Raum 2" || !first.InProgress {
		t.Fatalf("unexpected first project: %+v", first)
	}
	if result.Projects[1].InProgress {
		t.Fatalf("expected second project to be done: %+v", result.Projects[1])
	}
}

func TestRun_ExcelPrefersProjectsSheet(t *testing.T) {
	t.Parallel()

	book := excelize.NewFile()
	first := book.GetSheetName(0)
	if err := book.SetCellValue(first, "A1", "ignored"); err != nil {
		t.Fatalf("set cell: %v", err)
	}
	if _, err := book.NewSheet("Projects"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	// header on row 3 after two blank rows
	header := []any{"name", "status"}
	if err := book.SetSheetRow("Projects", "A3", &header); err != nil {
		t.Fatalf("set header: %v", err)
	}
	row := []any{"Workshop", "on"}
	if err := book.SetSheetRow("Projects", "A4", &row); err != nil {
		t.Fatalf("set row: %v", err)
	}
	path := filepath.Join(t.TempDir(), "book.xlsx")
	if err := book.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}

	records, err := (&ExcelReader{}).Read(path)
	if err != nil {
		t.Fatalf("read workbook: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].RowNumber != 4 || records[0].Get("name") != "Workshop" {
		t.Fatalf("unexpected record: %+v", records[0])
	}
}

func TestPickSheet(t *testing.T) {
	t.Parallel()

	if got := pickSheet([]string{"Sheet1", " PROJECTS "}); got != " PROJECTS " {
		t.Fatalf("expected projects sheet, got %q", got)
	}
	if got := pickSheet([]string{"Data", "Other"}); got != "Data" {
		t.Fatalf("expected first sheet, got %q", got)
	}
	if got := pickSheet(nil); got != "" {
		t.Fatalf("expected empty name, got %q", got)
	}
}
