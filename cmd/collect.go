package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/hazuki/clubsync"
)

type collectCmd struct {
	week   string
	dryRun bool
}

func (*collectCmd) Name() string     { return "collect" }
func (*collectCmd) Synopsis() string { return "build the weekly collection rows from the raw sheet" }
func (*collectCmd) Usage() string {
	return `cs collect [-week <period>] [-dry-run]

  Joins one week of raw revenue rows with the player master, computing
  each row's rakeback and settlement, and replaces that week's rows on the
  collection sheet. Without -week the most recent period on the raw sheet
  is used.
`
}

func (c *collectCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.week, "week", "", "Week period to collect (YYYY-MM-DD〜YYYY-MM-DD, defaults to the latest)")
	f.BoolVar(&c.dryRun, "dry-run", false, "Join and report without writing to the ledger")
}

func (c *collectCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		return fail(err)
	}
	lg, err := openLedger(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	sheets := sheetNames()

	var week clubsync.WeekPeriod
	if c.week == "" {
		periods, err := lg.ListWeekPeriods(ctx, sheets.Raw)
		if err != nil {
			return fail(err)
		}
		if week, err = clubsync.LatestWeekPeriod(periods); err != nil {
			return fail(err)
		}
	} else if week, err = clubsync.ParseWeekPeriod(c.week); err != nil {
		return fail(err)
	}

	raws, err := lg.ReadRaw(ctx, sheets.Raw, week)
	if err != nil {
		return fail(err)
	}
	if len(raws) == 0 {
		return fail(&clubsync.NotFoundError{What: "raw rows for week period", Key: string(week)})
	}
	players, err := lg.ReadPlayers(ctx, sheets.Players)
	if err != nil {
		return fail(err)
	}

	rows := clubsync.Collect(raws, players)
	log := newLogger()
	log.WithField("week", week).Infof("collected %d rows", len(rows))
	if c.dryRun {
		log.Info("dry run, no ledger writes")
		return subcommands.ExitSuccess
	}

	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, r.Cells())
	}
	if err := lg.ReplaceRows(ctx, sheets.Collection, week, clubsync.CollectionHeader, cells); err != nil {
		return fail(err)
	}
	log.Infof("wrote %d rows to %q", len(cells), sheets.Collection)
	return subcommands.ExitSuccess
}
