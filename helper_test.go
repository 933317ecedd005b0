package clubsync

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/hazuki/clubsync/workspace"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

var testIDs = CollectionIDs{
	Agents:    "agents",
	Players:   "players",
	Summaries: "summaries",
	Details:   "details",
	Totals:    "totals",
}

// newWorkspace returns a Memory store with the five collections created,
// each carrying only its title property, and the declared schemas evolved
// onto them, the way migrate prepares a fresh workspace before the first
// sync.
func newWorkspace(t *testing.T) *workspace.Memory {
	t.Helper()
	mem := workspace.NewMemory()
	for _, c := range []string{testIDs.Agents, testIDs.Players, testIDs.Summaries, testIDs.Details, testIDs.Totals} {
		mem.SetSchema(c, workspace.Schema{
			propTitle: {ID: "title", Name: propTitle, Kind: workspace.KindTitle},
		})
	}
	e := &Evolver{Workspace: mem, Log: testLogger()}
	if err := e.Evolve(context.Background(), testIDs); err != nil {
		t.Fatalf("evolving fresh workspace: %v", err)
	}
	return mem
}
