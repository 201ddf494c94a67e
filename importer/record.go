package importer

import (
	"strings"
)

// Record is one source row keyed by normalized header.
type Record struct {
	RowNumber int
	Values    map[string]string
}

func (r Record) Get(keys ...string) string {
	for _, key := range keys {
		if value, ok := r.Values[normalizeHeader(key)]; ok {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func normalizeHeader(input string) string {
	replacer := strings.NewReplacer("_", "", "-", "", " ", "")
	return replacer.Replace(strings.TrimSpace(strings.ToLower(input)))
}

// recordsFromRows zips each row with the header row. Short rows are padded
// with empty values; firstRow is the source row number of rows[0].
func recordsFromRows(headers []string, rows [][]string, firstRow int) []Record {
	normalized := make([]string, len(headers))
	for i, header := range headers {
		normalized[i] = normalizeHeader(header)
	}

	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		values := make(map[string]string, len(normalized))
		for col, key := range normalized {
			if key == "" {
				continue
			}
			if col < len(row) {
				values[key] = row[col]
			} else {
				values[key] = ""
			}
		}
		records = append(records, Record{RowNumber: firstRow + i, Values: values})
	}
	return records
}
