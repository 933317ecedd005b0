// Package cmd implements the CLI application that keeps the club's weekly
// settlements in sync: import and collect maintain the ledger spreadsheet,
// migrate evolves the workspace schemas, sync reconciles one week into the
// workspace.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/hazuki/clubsync"
	"github.com/hazuki/clubsync/ledger"
	"github.com/hazuki/clubsync/workspace"
)

// Register the subcommands. A main package calls Register, then Execute on
// the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&importCmd{}, "ledger")
	c.Register(&collectCmd{}, "ledger")

	c.Register(&migrateCmd{}, "workspace")
	c.Register(&syncCmd{}, "workspace")
}

// As a short-lived CLI application, sheet-name overrides are global flags.
var (
	rawSheet        = flag.String("raw-sheet", clubsync.DefaultSheets.Raw, "Name of the raw revenue sheet")
	collectionSheet = flag.String("collection-sheet", clubsync.DefaultSheets.Collection, "Name of the weekly collection sheet")
	agentsSheet     = flag.String("agents-sheet", clubsync.DefaultSheets.Agents, "Name of the agent master sheet")
	playersSheet    = flag.String("players-sheet", clubsync.DefaultSheets.Players, "Name of the player master sheet")
)

func sheetNames() clubsync.Sheets {
	return clubsync.Sheets{
		Raw:        *rawSheet,
		Collection: *collectionSheet,
		Agents:     *agentsSheet,
		Players:    *playersSheet,
	}
}

// config is the already-validated environment the engine receives.
type config struct {
	token           string
	ids             clubsync.CollectionIDs
	spreadsheetID   string
	credentialsFile string
	shareBaseURL    string
}

// loadConfig reads the environment (a .env file is honored when present)
// and fails with a ConfigurationError before any I/O when a required
// value is missing.
func loadConfig() (config, error) {
	_ = godotenv.Load()

	cfg := config{
		token:           os.Getenv("CLUBSYNC_WORKSPACE_TOKEN"),
		spreadsheetID:   os.Getenv("CLUBSYNC_SPREADSHEET_ID"),
		credentialsFile: os.Getenv("CLUBSYNC_SHEETS_CREDENTIALS"),
		shareBaseURL:    os.Getenv("CLUBSYNC_SHARE_BASE_URL"),
		ids: clubsync.CollectionIDs{
			Agents:    os.Getenv("CLUBSYNC_AGENTS_DB"),
			Players:   os.Getenv("CLUBSYNC_PLAYERS_DB"),
			Summaries: os.Getenv("CLUBSYNC_SUMMARIES_DB"),
			Details:   os.Getenv("CLUBSYNC_DETAILS_DB"),
			Totals:    os.Getenv("CLUBSYNC_TOTALS_DB"),
		},
	}
	if cfg.credentialsFile == "" {
		cfg.credentialsFile = "credentials.json"
	}

	var missing []string
	for _, v := range []struct{ name, value string }{
		{"CLUBSYNC_WORKSPACE_TOKEN", cfg.token},
		{"CLUBSYNC_SPREADSHEET_ID", cfg.spreadsheetID},
		{"CLUBSYNC_AGENTS_DB", cfg.ids.Agents},
		{"CLUBSYNC_PLAYERS_DB", cfg.ids.Players},
		{"CLUBSYNC_SUMMARIES_DB", cfg.ids.Summaries},
		{"CLUBSYNC_DETAILS_DB", cfg.ids.Details},
		{"CLUBSYNC_TOTALS_DB", cfg.ids.Totals},
	} {
		if v.value == "" {
			missing = append(missing, v.name)
		}
	}
	if len(missing) > 0 {
		return config{}, &clubsync.ConfigurationError{Missing: missing}
	}
	return cfg, nil
}

// newLogger builds the progress logger: human-readable lines on stdout.
// Errors go to stderr via the subcommands themselves.
func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return l
}

func openLedger(ctx context.Context, cfg config) (*ledger.Sheets, error) {
	return ledger.New(ctx, cfg.spreadsheetID, cfg.credentialsFile)
}

func openWorkspace(cfg config) *workspace.Client {
	return workspace.NewClient(cfg.token)
}

// fail prints the error the way every subcommand reports it.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}
