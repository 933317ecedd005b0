package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/hazuki/clubsync"
)

type migrateCmd struct {
	dryRun bool
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "evolve the workspace schemas to the declared shape" }
func (*migrateCmd) Usage() string {
	return `cs migrate [-dry-run]

  Ensures every workspace collection carries the properties, relations and
  rollups sync expects. Existing properties with the wrong shape are
  renamed aside and recreated, never overwritten. Run this once before the
  first sync and after upgrading.
`
}

func (c *migrateCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.dryRun, "dry-run", false, "Report the schema edits without applying them")
}

func (c *migrateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		return fail(err)
	}
	e := &clubsync.Evolver{
		Workspace: openWorkspace(cfg),
		Log:       newLogger(),
		DryRun:    c.dryRun,
	}
	if err := e.Evolve(ctx, cfg.ids); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}
