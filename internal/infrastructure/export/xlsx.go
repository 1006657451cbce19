package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/docling-reports/internal/core/domain"
)

const summarySheet = "Report"

// OutcomeXLSX renders a conversion outcome as an XLSX workbook: a summary
// sheet with the report identity and detection data, one sheet per tabular
// payload section, and scalar/object sections flattened onto the summary.
func OutcomeXLSX(outcome *domain.Outcome) ([]byte, error) {
	if outcome == nil {
		return nil, fmt.Errorf("nil outcome")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}

	row := 1
	writeKV := func(key string, value any) error {
		if err := setCell(f, summarySheet, 1, row, key); err != nil {
			return err
		}
		if err := setCell(f, summarySheet, 2, row, value); err != nil {
			return err
		}
		row++
		return nil
	}

	header := []struct {
		key   string
		value any
	}{
		{"Report ID", outcome.ReportID},
		{"Report Name", outcome.DisplayName},
		{"Detection Score", outcome.Score},
		{"Matched Keywords", strings.Join(outcome.MatchedKeywords, ", ")},
	}
	for _, kv := range header {
		if err := writeKV(kv.key, kv.value); err != nil {
			return nil, err
		}
	}
	row++

	for _, section := range sortedKeys(outcome.Data) {
		value := outcome.Data[section]
		switch v := value.(type) {
		case []any:
			if err := writeTableSheet(f, section, v); err != nil {
				return nil, err
			}
		case map[string]any:
			for _, key := range sortedKeys(v) {
				if err := writeKV(section+"."+key, cellValue(v[key])); err != nil {
					return nil, err
				}
			}
		default:
			if err := writeKV(section, cellValue(value)); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// writeTableSheet renders a JSON array section as its own sheet. Object rows
// share a union header; scalar rows become a single column.
func writeTableSheet(f *excelize.File, section string, rows []any) error {
	sheet := sheetName(section)
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %q: %w", sheet, err)
	}

	columns := columnUnion(rows)
	if len(columns) == 0 {
		for i, item := range rows {
			if err := setCell(f, sheet, 1, i+1, cellValue(item)); err != nil {
				return err
			}
		}
		return nil
	}

	for col, name := range columns {
		if err := setCell(f, sheet, col+1, 1, name); err != nil {
			return err
		}
	}
	for i, item := range rows {
		record, ok := item.(map[string]any)
		if !ok {
			continue
		}
		for col, name := range columns {
			if err := setCell(f, sheet, col+1, i+2, cellValue(record[name])); err != nil {
				return err
			}
		}
	}
	return nil
}

func columnUnion(rows []any) []string {
	seen := make(map[string]bool)
	var columns []string
	for _, item := range rows {
		record, ok := item.(map[string]any)
		if !ok {
			continue
		}
		for _, key := range sortedKeys(record) {
			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
		}
	}
	return columns
}

func setCell(f *excelize.File, sheet string, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell coordinates (%d,%d): %w", col, row, err)
	}
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("set cell %s!%s: %w", sheet, cell, err)
	}
	return nil
}

func cellValue(v any) any {
	switch v.(type) {
	case nil:
		return ""
	case string, float64, bool, int:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// sheetName keeps excelize's 31-char limit and strips characters Excel
// rejects in sheet names.
func sheetName(section string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		default:
			return r
		}
	}, section)
	if cleaned == "" {
		cleaned = "Data"
	}
	if len(cleaned) > 31 {
		cleaned = cleaned[:31]
	}
	return cleaned
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
