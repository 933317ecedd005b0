package importer

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/hazuki/clubsync"
)

const week = clubsync.WeekPeriod("2026-08-17〜2026-08-23")

// writeExport builds an .xlsx file the way the club app exports one and
// returns its path.
func writeExport(t *testing.T, lines [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, line := range lines {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cell, &line); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "export.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

var exportHeader = []any{"エージェントID", "エージェント名", "プレイヤーID", "ニックネーム", "収支", "レーキ"}

func TestParse(t *testing.T) {
	path := writeExport(t, [][]any{
		exportHeader,
		{"A001", "Alpha", "P1", "ichi", "-20.5", "10"},
		{"", "", "P9", "kyu", "0.505", "2"},
		{"", "", "", "", "", ""}, // export padding
	})

	rows, err := Parse(path, week)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (padding skipped)", len(rows))
	}

	r := rows[0]
	if r.WeekPeriod != week {
		t.Errorf("week = %q, want %q", r.WeekPeriod, week)
	}
	if r.AgentID != "A001" || r.AgentName != "Alpha" || r.PlayerID != "P1" || r.Nickname != "ichi" {
		t.Errorf("row = %+v", r)
	}
	if r.Revenue != -2050 {
		t.Errorf("revenue = %d cents, want -2050", r.Revenue)
	}
	if r.Rake != 1000 {
		t.Errorf("rake = %d cents, want 1000", r.Rake)
	}

	// Half a cent rounds half-up: 0.505 -> 51 cents.
	if rows[1].Revenue != 51 {
		t.Errorf("revenue = %d cents, want 51", rows[1].Revenue)
	}
	if rows[1].AgentID != "" {
		t.Errorf("direct row agent = %q, want empty", rows[1].AgentID)
	}
}

func TestParseColumnOrderIrrelevant(t *testing.T) {
	path := writeExport(t, [][]any{
		{"レーキ", "プレイヤーID", "収支", "ニックネーム", "エージェント名", "エージェントID"},
		{"10", "P1", "5", "ichi", "Alpha", "A001"},
	})

	rows, err := Parse(path, week)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].Rake != 1000 || rows[0].Revenue != 500 || rows[0].PlayerID != "P1" {
		t.Errorf("row = %+v", rows[0])
	}
}

func TestParseMissingColumn(t *testing.T) {
	path := writeExport(t, [][]any{
		{"エージェントID", "エージェント名", "プレイヤーID", "ニックネーム", "収支"},
		{"A001", "Alpha", "P1", "ichi", "5"},
	})

	_, err := Parse(path, week)
	if err == nil || !strings.Contains(err.Error(), "レーキ") {
		t.Fatalf("err = %v, want missing-column error naming the rake column", err)
	}
}

func TestParseBadAmount(t *testing.T) {
	path := writeExport(t, [][]any{
		exportHeader,
		{"A001", "Alpha", "P1", "ichi", "oops", "10"},
	})

	_, err := Parse(path, week)
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("err = %v, want amount error naming line 2", err)
	}
}

func TestParseEmptyAmountCells(t *testing.T) {
	path := writeExport(t, [][]any{
		exportHeader,
		{"A001", "Alpha", "P1", "ichi", "", ""},
	})

	rows, err := Parse(path, week)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Revenue != 0 || rows[0].Rake != 0 {
		t.Fatalf("rows = %+v, want one row with zero amounts", rows)
	}
}
