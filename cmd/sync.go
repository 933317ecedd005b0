package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/hazuki/clubsync"
)

type syncCmd struct {
	week   string
	dryRun bool
}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "reconcile one week of settlements into the workspace" }
func (*syncCmd) Usage() string {
	return `cs sync [-week <period>] [-dry-run]

  Aggregates the collection sheet for one week period and synchronizes
  agents, players, weekly summaries, weekly details and the weekly total
  into the workspace. Without -week the most recent period on the
  collection sheet is used. Safe to re-run: every write is an upsert and
  disappeared records are archived, not deleted.
`
}

func (c *syncCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.week, "week", "", "Week period to reconcile (YYYY-MM-DD〜YYYY-MM-DD, defaults to the latest)")
	f.BoolVar(&c.dryRun, "dry-run", false, "Aggregate and report without writing to the workspace")
}

func (c *syncCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		return fail(err)
	}
	lg, err := openLedger(ctx, cfg)
	if err != nil {
		return fail(err)
	}

	r := &clubsync.Reconciler{
		Workspace:    openWorkspace(cfg),
		Ledger:       lg,
		IDs:          cfg.ids,
		Sheets:       sheetNames(),
		Log:          newLogger(),
		DryRun:       c.dryRun,
		ShareBaseURL: cfg.shareBaseURL,
	}
	if err := r.Run(ctx, c.week); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}
