package clubsync

import (
	"context"
	"testing"

	"github.com/hazuki/clubsync/workspace"
)

func TestEvolveFreshWorkspace(t *testing.T) {
	ctx := context.Background()
	mem := newWorkspace(t)

	summaries, err := mem.GetSchema(ctx, testIDs.Summaries)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{propWeekPeriod, propAgentID, propPlayerCount, propAgentReward, propSettlement, propAgentRel} {
		if _, ok := summaries[name]; !ok {
			t.Errorf("summaries schema lacks %q", name)
		}
	}

	// The details collection declared a dual relation to summaries, so
	// the summaries side grew a synced counterpart with a store-chosen
	// name, and the rollups were bound to it.
	rel, ok := summaries.RelationTo(testIDs.Details)
	if !ok {
		t.Fatal("summaries schema has no relation to details")
	}
	rollup, ok := summaries[propRakeSum]
	if !ok {
		t.Fatal("summaries schema lacks the rake rollup")
	}
	if rollup.RollupRelation != rel.Name {
		t.Errorf("rollup bound to %q, want the live relation %q", rollup.RollupRelation, rel.Name)
	}
	if rollup.RollupProperty != propRake || rollup.RollupFunction != "sum" {
		t.Errorf("rollup = %+v, want sum over %s", rollup, propRake)
	}
}

func TestEvolveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	mem := newWorkspace(t)

	before := mem.SchemaUpdates
	e := &Evolver{Workspace: mem, Log: testLogger()}
	if err := e.Evolve(ctx, testIDs); err != nil {
		t.Fatal(err)
	}
	if mem.SchemaUpdates != before {
		t.Errorf("second evolve performed %d schema updates, want 0", mem.SchemaUpdates-before)
	}
}

func TestEvolveRenamesTitleInPlace(t *testing.T) {
	ctx := context.Background()
	mem := workspace.NewMemory()
	mem.SetSchema(testIDs.Agents, workspace.Schema{
		"名前": {ID: "title", Name: "名前", Kind: workspace.KindTitle},
	})

	e := &Evolver{Workspace: mem, Log: testLogger()}
	if err := e.ensure(ctx, DeclaredSchemas(testIDs)[0]); err != nil { // agents
		t.Fatal(err)
	}
	schema, _ := mem.GetSchema(ctx, testIDs.Agents)
	title, ok := schema.TitleProperty()
	if !ok {
		t.Fatal("agents schema lost its title property")
	}
	if title.Name != propTitle {
		t.Errorf("title property = %q, want %q", title.Name, propTitle)
	}
	if title.ID != "title" {
		t.Errorf("title property id = %q, want the original id (renamed in place)", title.ID)
	}
}

func TestEvolveRenamesWrongTypeAside(t *testing.T) {
	ctx := context.Background()
	mem := workspace.NewMemory()
	mem.SetSchema(testIDs.Agents, workspace.Schema{
		propTitle: {ID: "title", Name: propTitle, Kind: workspace.KindTitle},
		// FeeRate exists but as text: it must be renamed aside, never
		// overwritten.
		propFeeRate: {ID: "p1", Name: propFeeRate, Kind: workspace.KindRichText},
	})

	e := &Evolver{Workspace: mem, Log: testLogger()}
	if err := e.ensure(ctx, DeclaredSchemas(testIDs)[0]); err != nil {
		t.Fatal(err)
	}

	schema, _ := mem.GetSchema(ctx, testIDs.Agents)
	if got := schema[propFeeRate].Kind; got != workspace.KindNumber {
		t.Errorf("FeeRate kind = %v, want number", got)
	}
	aside, ok := schema[propFeeRate+"_old"]
	if !ok {
		t.Fatal("the wrong-typed property was not preserved aside")
	}
	if aside.ID != "p1" {
		t.Errorf("aside property id = %q, want the original id", aside.ID)
	}
}

func TestEvolveRecreatesDriftedRelation(t *testing.T) {
	ctx := context.Background()
	mem := workspace.NewMemory()
	mem.SetSchema(testIDs.Agents, workspace.Schema{
		propTitle: {ID: "title", Name: propTitle, Kind: workspace.KindTitle},
	})
	mem.SetSchema(testIDs.Players, workspace.Schema{
		propTitle: {ID: "title", Name: propTitle, Kind: workspace.KindTitle},
		// Agent relation points at the wrong collection.
		propAgentRel: {ID: "p1", Name: propAgentRel, Kind: workspace.KindRelation, Target: "somewhere-else"},
	})

	e := &Evolver{Workspace: mem, Log: testLogger()}
	for _, cs := range DeclaredSchemas(testIDs)[:2] { // agents, players
		if err := e.ensure(ctx, cs); err != nil {
			t.Fatal(err)
		}
	}

	schema, _ := mem.GetSchema(ctx, testIDs.Players)
	if got := schema[propAgentRel].Target; got != testIDs.Agents {
		t.Errorf("Agent relation target = %q, want %q", got, testIDs.Agents)
	}
	if _, ok := schema[propAgentRel+"_old"]; !ok {
		t.Error("the drifted relation was not preserved aside")
	}
}

func TestEvolveDryRun(t *testing.T) {
	ctx := context.Background()
	mem := workspace.NewMemory()
	for _, c := range []string{testIDs.Agents, testIDs.Players, testIDs.Summaries, testIDs.Details, testIDs.Totals} {
		mem.SetSchema(c, workspace.Schema{
			propTitle: {ID: "title", Name: propTitle, Kind: workspace.KindTitle},
		})
	}
	e := &Evolver{Workspace: mem, Log: testLogger(), DryRun: true}
	// The rollup pass fails in dry-run mode: the relation it would roll
	// up over was only planned, never created. Everything before it must
	// still leave the store untouched.
	_ = e.Evolve(ctx, testIDs)
	if mem.SchemaUpdates != 0 {
		t.Errorf("dry run performed %d schema updates, want 0", mem.SchemaUpdates)
	}
}
