// Package importer parses the club app's weekly .xlsx export into revenue
// rows. The export carries amounts in currency units; they are converted
// to integer cents here, at the boundary, and stay integers everywhere
// else.
package importer

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/hazuki/clubsync"
)

// Export column headers, matched by name so column order in the export
// does not matter.
const (
	colAgentID   = "エージェントID"
	colAgentName = "エージェント名"
	colPlayerID  = "プレイヤーID"
	colNickname  = "ニックネーム"
	colRevenue   = "収支"
	colRake      = "レーキ"
)

// Parse reads the first sheet of the export file and returns one revenue
// row per data line, tagged with the given week period. Lines with an
// empty player id are skipped (the export pads with blank lines).
func Parse(path string, week clubsync.WeekPeriod) ([]clubsync.RevenueRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening export %q: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	cells, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("export %q has no header row", path)
	}

	cols, err := indexColumns(cells[0])
	if err != nil {
		return nil, fmt.Errorf("export %q: %w", path, err)
	}

	var rows []clubsync.RevenueRow
	for i, line := range cells[1:] {
		playerID := at(line, cols[colPlayerID])
		if playerID == "" {
			continue
		}
		revenue, err := amount(at(line, cols[colRevenue]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		rake, err := amount(at(line, cols[colRake]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		rows = append(rows, clubsync.RevenueRow{
			WeekPeriod: week,
			AgentID:    at(line, cols[colAgentID]),
			AgentName:  at(line, cols[colAgentName]),
			PlayerID:   playerID,
			Nickname:   at(line, cols[colNickname]),
			Revenue:    revenue,
			Rake:       rake,
		})
	}
	return rows, nil
}

func indexColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[h] = i
	}
	for _, want := range []string{colAgentID, colAgentName, colPlayerID, colNickname, colRevenue, colRake} {
		if _, ok := cols[want]; !ok {
			return nil, fmt.Errorf("missing column %q", want)
		}
	}
	return cols, nil
}

func at(line []string, i int) string {
	if i < len(line) {
		return line[i]
	}
	return ""
}

func amount(s string) (clubsync.Cents, error) {
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("amount %q is not a number: %w", s, err)
	}
	return clubsync.ToCents(d), nil
}
