package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/docling-reports/internal/core/domain"
)

func sampleOutcome() *domain.Outcome {
	return &domain.Outcome{
		ReportID:        "bump_test",
		DisplayName:     "Bump Test Report",
		Score:           3,
		MatchedKeywords: []string{"bump test", "pulse duration"},
		Data: map[string]any{
			"device_name": "SX-4",
			"conditions": map[string]any{
				"temperature_c": 21.5,
				"operator":      "L. Chen",
			},
			"measurements": []any{
				map[string]any{"axis": "X", "peak_g": 40.1},
				map[string]any{"axis": "Y", "peak_g": 39.7, "note": "retest"},
			},
		},
	}
}

func TestOutcomeXLSXSummarySheet(t *testing.T) {
	workbook, err := OutcomeXLSX(sampleOutcome())
	if err != nil {
		t.Fatalf("OutcomeXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(workbook))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	id, err := f.GetCellValue("Report", "B1")
	if err != nil || id != "bump_test" {
		t.Fatalf("expected report id in B1, got %q err=%v", id, err)
	}
	keywords, _ := f.GetCellValue("Report", "B4")
	if keywords != "bump test, pulse duration" {
		t.Fatalf("expected joined keywords, got %q", keywords)
	}
}

func TestOutcomeXLSXTableSheet(t *testing.T) {
	workbook, err := OutcomeXLSX(sampleOutcome())
	if err != nil {
		t.Fatalf("OutcomeXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(workbook))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("measurements")
	if err != nil {
		t.Fatalf("measurements sheet missing: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	// The column union includes keys appearing in any row.
	header := rows[0]
	if len(header) != 3 {
		t.Fatalf("expected union of 3 columns, got %v", header)
	}
}

func TestOutcomeXLSXNilOutcome(t *testing.T) {
	if _, err := OutcomeXLSX(nil); err == nil {
		t.Fatalf("expected error for nil outcome")
	}
}

func TestSheetNameSanitized(t *testing.T) {
	name := sheetName("results/with:bad*chars[and]a-very-long-section-name")
	if len(name) > 31 {
		t.Fatalf("sheet name exceeds 31 chars: %q", name)
	}
	for _, r := range name {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			t.Fatalf("sheet name carries invalid rune %q: %s", r, name)
		}
	}
}
