// Package clubsync reconciles a card club's weekly agent settlements.
//
// Raw per-player revenue rows are aggregated per referring agent, each
// agent's commission, rakeback obligation and net settlement are computed
// in integer cents, and the resulting entity graph (agents, players,
// weekly summaries, weekly details, a weekly house total) is synchronized
// into a relational workspace store. Repeated runs over the same week
// converge to one consistent state: every write is an upsert keyed on a
// natural business key, and records that disappear from the source are
// archived, never deleted.
//
// The package is a pure engine: it talks to the ledger spreadsheet and the
// workspace store only through the Ledger and workspace.Store interfaces.
// The `cs` command-line tool wires concrete clients in.
package clubsync
