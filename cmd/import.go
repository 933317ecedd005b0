package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/hazuki/clubsync"
	"github.com/hazuki/clubsync/importer"
)

type importCmd struct {
	week   string
	dryRun bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import a weekly .xlsx export into the raw sheet" }
func (*importCmd) Usage() string {
	return `cs import -week <period> [-dry-run] <export.xlsx>

  Parses the club app's weekly export and replaces that week's rows on the
  raw sheet. Importing the same file twice leaves a single copy.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.week, "week", "", "Week period the export covers (YYYY-MM-DD〜YYYY-MM-DD)")
	f.BoolVar(&c.dryRun, "dry-run", false, "Parse and report without writing to the ledger")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Println(c.Usage())
		return subcommands.ExitUsageError
	}
	week, err := clubsync.ParseWeekPeriod(c.week)
	if err != nil {
		return fail(err)
	}

	rows, err := importer.Parse(f.Arg(0), week)
	if err != nil {
		return fail(err)
	}
	log := newLogger()
	log.WithField("week", week).Infof("parsed %d revenue rows", len(rows))
	if c.dryRun {
		log.Info("dry run, no ledger writes")
		return subcommands.ExitSuccess
	}

	cfg, err := loadConfig()
	if err != nil {
		return fail(err)
	}
	lg, err := openLedger(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, r.RawCells())
	}
	if err := lg.ReplaceRows(ctx, sheetNames().Raw, week, clubsync.RawHeader, cells); err != nil {
		return fail(err)
	}
	log.Infof("wrote %d rows to %q", len(cells), sheetNames().Raw)
	return subcommands.ExitSuccess
}
