// Package ledger implements the tabular ledger store over a Google Sheets
// spreadsheet. One spreadsheet holds the raw, collection, agent-master and
// player-master sheets; rows are addressed by their week-period column.
package ledger

import (
	"context"
	"fmt"
	"sort"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/hazuki/clubsync"
)

// Sheets is the production clubsync.Ledger. Construct it once at process
// start and pass it by reference.
type Sheets struct {
	svc           *sheets.Service
	spreadsheetID string
}

// New opens the spreadsheet with a service-account credentials file.
func New(ctx context.Context, spreadsheetID, credentialsFile string) (*Sheets, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("opening sheets service: %w", err)
	}
	return &Sheets{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// readAll returns the sheet's rows as strings, header row excluded.
func (s *Sheets) readAll(ctx context.Context, sheet string) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, sheet).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	rows := make([][]string, 0, len(resp.Values)-1)
	for _, raw := range resp.Values[1:] {
		row := make([]string, len(raw))
		for i, cell := range raw {
			row[i] = fmt.Sprint(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Sheets) ListWeekPeriods(ctx context.Context, sheet string) ([]string, error) {
	rows, err := s.readAll(ctx, sheet)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var periods []string
	for _, row := range rows {
		if len(row) == 0 || row[0] == "" || seen[row[0]] {
			continue
		}
		seen[row[0]] = true
		periods = append(periods, row[0])
	}
	sort.Sort(sort.Reverse(sort.StringSlice(periods)))
	return periods, nil
}

func (s *Sheets) ReadCollection(ctx context.Context, sheet string, period clubsync.WeekPeriod) ([]clubsync.RevenueRow, error) {
	cells, err := s.periodRows(ctx, sheet, period)
	if err != nil {
		return nil, err
	}
	rows := make([]clubsync.RevenueRow, 0, len(cells))
	for i, c := range cells {
		r, err := clubsync.ParseRevenueRow(c)
		if err != nil {
			return nil, fmt.Errorf("sheet %q row %d: %w", sheet, i+2, err)
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func (s *Sheets) ReadRaw(ctx context.Context, sheet string, period clubsync.WeekPeriod) ([]clubsync.RevenueRow, error) {
	cells, err := s.periodRows(ctx, sheet, period)
	if err != nil {
		return nil, err
	}
	rows := make([]clubsync.RevenueRow, 0, len(cells))
	for i, c := range cells {
		r, err := clubsync.ParseRawRow(c)
		if err != nil {
			return nil, fmt.Errorf("sheet %q row %d: %w", sheet, i+2, err)
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func (s *Sheets) periodRows(ctx context.Context, sheet string, period clubsync.WeekPeriod) ([][]string, error) {
	all, err := s.readAll(ctx, sheet)
	if err != nil {
		return nil, err
	}
	var out [][]string
	for _, row := range all {
		if len(row) > 0 && row[0] == string(period) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *Sheets) ReadAgents(ctx context.Context, sheet string) ([]clubsync.AgentRow, error) {
	cells, err := s.readAll(ctx, sheet)
	if err != nil {
		return nil, err
	}
	rows := make([]clubsync.AgentRow, 0, len(cells))
	for i, c := range cells {
		if len(c) == 0 || c[0] == "" {
			continue
		}
		a, err := clubsync.ParseAgentRow(c)
		if err != nil {
			return nil, fmt.Errorf("sheet %q row %d: %w", sheet, i+2, err)
		}
		rows = append(rows, a)
	}
	return rows, nil
}

func (s *Sheets) ReadPlayers(ctx context.Context, sheet string) ([]clubsync.PlayerRow, error) {
	cells, err := s.readAll(ctx, sheet)
	if err != nil {
		return nil, err
	}
	rows := make([]clubsync.PlayerRow, 0, len(cells))
	for i, c := range cells {
		if len(c) == 0 || c[0] == "" {
			continue
		}
		p, err := clubsync.ParsePlayerRow(c)
		if err != nil {
			return nil, fmt.Errorf("sheet %q row %d: %w", sheet, i+2, err)
		}
		rows = append(rows, p)
	}
	return rows, nil
}

// ReplaceRows rewrites the sheet keeping every row of other week periods,
// dropping the given period's rows, and appending the new ones. Running
// the same write twice therefore leaves a single copy.
func (s *Sheets) ReplaceRows(ctx context.Context, sheet string, period clubsync.WeekPeriod, header []string, rows [][]string) error {
	existing, err := s.readAll(ctx, sheet)
	if err != nil {
		return err
	}

	kept := make([][]interface{}, 0, len(existing)+len(rows)+1)
	kept = append(kept, cells(header))
	for _, row := range existing {
		if len(row) > 0 && row[0] == string(period) {
			continue
		}
		if len(row) == 0 || row[0] == "" {
			continue
		}
		kept = append(kept, cells(row))
	}
	for _, row := range rows {
		kept = append(kept, cells(row))
	}

	if _, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, sheet, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clearing sheet %q: %w", sheet, err)
	}
	vr := &sheets.ValueRange{Values: kept}
	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, sheet+"!A1", vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("writing sheet %q: %w", sheet, err)
	}
	return nil
}

func cells(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, c := range row {
		out[i] = c
	}
	return out
}
