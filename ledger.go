package clubsync

import "context"

// Ledger is the tabular store the club's bookkeeping lives in. The
// production implementation (package ledger) reads a Google Sheets
// spreadsheet; tests substitute an in-memory one.
//
// Sheets are addressed by name. Amount cells are integer points, rate
// cells decimal fractions; see rows.go for the column layouts.
type Ledger interface {
	// ListWeekPeriods returns the distinct week periods present on a
	// sheet, most recent first.
	ListWeekPeriods(ctx context.Context, sheet string) ([]string, error)

	// ReadCollection returns the collection rows of one week period.
	ReadCollection(ctx context.Context, sheet string, period WeekPeriod) ([]RevenueRow, error)

	// ReadRaw returns the raw revenue rows of one week period.
	ReadRaw(ctx context.Context, sheet string, period WeekPeriod) ([]RevenueRow, error)

	// ReadAgents returns the full agent master, no period filter.
	ReadAgents(ctx context.Context, sheet string) ([]AgentRow, error)

	// ReadPlayers returns the full player master, no period filter.
	ReadPlayers(ctx context.Context, sheet string) ([]PlayerRow, error)

	// ReplaceRows deletes every row of the sheet whose week-period column
	// matches period, then appends rows. Writing the same week twice
	// therefore leaves one copy. The header row is written when the sheet
	// is empty.
	ReplaceRows(ctx context.Context, sheet string, period WeekPeriod, header []string, rows [][]string) error
}
