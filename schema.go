package clubsync

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/hazuki/clubsync/workspace"
)

// CollectionSchema declares the wanted shape of one collection. Relation
// targets are live collection ids, never name constants. For rollup
// properties Target names the child collection whose incoming relation the
// rollup follows; the concrete relation-property name is resolved against
// the live schema at evolve time, because dual relations carry
// store-chosen names.
type CollectionSchema struct {
	Label      string
	Collection string
	Properties []workspace.PropertyDef
}

// DeclaredSchemas returns the wanted schemas in apply order. Relations
// only point at collections that appear earlier, and the summary rollups
// come last: they aggregate over the dual relation that evolving the
// details collection creates.
func DeclaredSchemas(ids CollectionIDs) []CollectionSchema {
	return []CollectionSchema{
		{Label: "agents", Collection: ids.Agents, Properties: []workspace.PropertyDef{
			{Name: propTitle, Kind: workspace.KindTitle},
			{Name: propAgentID, Kind: workspace.KindRichText},
			{Name: propRemark, Kind: workspace.KindRichText},
			{Name: propSuperAgent, Kind: workspace.KindRichText},
			{Name: propFeeRate, Kind: workspace.KindNumber},
		}},
		{Label: "players", Collection: ids.Players, Properties: []workspace.PropertyDef{
			{Name: propTitle, Kind: workspace.KindTitle},
			{Name: propPlayerID, Kind: workspace.KindRichText},
			{Name: propAgentID, Kind: workspace.KindRichText},
			{Name: propCountry, Kind: workspace.KindRichText},
			{Name: propRemark, Kind: workspace.KindRichText},
			{Name: propRakebackRate, Kind: workspace.KindNumber},
			{Name: propAgentRel, Kind: workspace.KindRelation, Target: ids.Agents},
		}},
		{Label: "weekly summaries", Collection: ids.Summaries, Properties: []workspace.PropertyDef{
			{Name: propTitle, Kind: workspace.KindTitle},
			{Name: propWeekPeriod, Kind: workspace.KindRichText},
			{Name: propAgentID, Kind: workspace.KindRichText},
			{Name: propPlayerCount, Kind: workspace.KindNumber},
			{Name: propAgentReward, Kind: workspace.KindNumber},
			{Name: propSettlement, Kind: workspace.KindNumber},
			{Name: propAgentRel, Kind: workspace.KindRelation, Target: ids.Agents},
		}},
		{Label: "weekly details", Collection: ids.Details, Properties: []workspace.PropertyDef{
			{Name: propTitle, Kind: workspace.KindTitle},
			{Name: propPlayerID, Kind: workspace.KindRichText},
			{Name: propRevenue, Kind: workspace.KindNumber},
			{Name: propRake, Kind: workspace.KindNumber},
			{Name: propRakebackRate, Kind: workspace.KindNumber},
			{Name: propRakeback, Kind: workspace.KindNumber},
			{Name: propSettlement, Kind: workspace.KindNumber},
			{Name: propSummaryRel, Kind: workspace.KindDualRelation, Target: ids.Summaries},
			{Name: propPlayerRel, Kind: workspace.KindRelation, Target: ids.Players},
		}},
		{Label: "weekly summary rollups", Collection: ids.Summaries, Properties: []workspace.PropertyDef{
			{Name: propRevenueSum, Kind: workspace.KindRollup, Target: ids.Details, RollupProperty: propRevenue, RollupFunction: "sum"},
			{Name: propRakeSum, Kind: workspace.KindRollup, Target: ids.Details, RollupProperty: propRake, RollupFunction: "sum"},
			{Name: propRakebackSum, Kind: workspace.KindRollup, Target: ids.Details, RollupProperty: propRakeback, RollupFunction: "sum"},
		}},
		{Label: "weekly totals", Collection: ids.Totals, Properties: []workspace.PropertyDef{
			{Name: propTitle, Kind: workspace.KindTitle},
			{Name: propWeekPeriod, Kind: workspace.KindRichText},
			{Name: propTotalRake, Kind: workspace.KindNumber},
			{Name: propTotalRakebk, Kind: workspace.KindNumber},
			{Name: propTotalFee, Kind: workspace.KindNumber},
			{Name: propHouseProfit, Kind: workspace.KindNumber},
		}},
	}
}

// Evolver makes the workspace's live schemas match the declared ones. It
// only ever renames and adds: a property of the declared name with the
// wrong shape is renamed aside (never overwritten, its data survives) and
// a fresh one is created. Running it twice in a row changes nothing on
// the second run.
type Evolver struct {
	Workspace workspace.Store
	Log       *logrus.Logger
	DryRun    bool
}

// Evolve ensures every declared collection schema, in order.
func (e *Evolver) Evolve(ctx context.Context, ids CollectionIDs) error {
	for _, cs := range DeclaredSchemas(ids) {
		if err := e.ensure(ctx, cs); err != nil {
			return fmt.Errorf("evolving %s: %w", cs.Label, err)
		}
	}
	return nil
}

func (e *Evolver) ensure(ctx context.Context, cs CollectionSchema) error {
	live, err := e.Workspace.GetSchema(ctx, cs.Collection)
	if err != nil {
		return &StoreOperationError{Op: "get schema " + cs.Collection, Err: err}
	}

	edits := workspace.SchemaEdits{Renames: make(map[string]string)}
	for _, want := range cs.Properties {
		switch want.Kind {
		case workspace.KindTitle:
			// A title property cannot be added after creation; the live
			// one is renamed in place when its name differs.
			t, ok := live.TitleProperty()
			if !ok {
				return fmt.Errorf("collection %s has no title property", cs.Collection)
			}
			if t.Name != want.Name {
				edits.Renames[t.Name] = want.Name
			}

		case workspace.KindRollup:
			rel, ok := live.RelationTo(want.Target)
			if !ok {
				return fmt.Errorf("collection %s has no relation to %s to roll up over", cs.Collection, want.Target)
			}
			resolved := want
			resolved.RollupRelation = rel.Name
			resolved.Target = ""
			e.reconcileProperty(live, resolved, &edits)

		default:
			e.reconcileProperty(live, want, &edits)
		}
	}

	if edits.Empty() {
		e.Log.WithField("collection", cs.Label).Info("schema up to date")
		return nil
	}
	for from, to := range edits.Renames {
		e.Log.WithField("collection", cs.Label).Infof("rename property %q -> %q", from, to)
	}
	for _, d := range edits.Adds {
		e.Log.WithField("collection", cs.Label).Infof("add %s property %q", d.Kind, d.Name)
	}
	if e.DryRun {
		return nil
	}

	// Renames go first in their own batch: a rename can free the very
	// name a following add claims.
	if len(edits.Renames) > 0 {
		renames := workspace.SchemaEdits{Renames: edits.Renames}
		if err := e.Workspace.UpdateSchema(ctx, cs.Collection, renames); err != nil {
			return &StoreOperationError{Op: "rename properties " + cs.Collection, Err: err}
		}
	}
	if len(edits.Adds) > 0 {
		adds := workspace.SchemaEdits{Adds: edits.Adds}
		if err := e.Workspace.UpdateSchema(ctx, cs.Collection, adds); err != nil {
			return &StoreOperationError{Op: "add properties " + cs.Collection, Err: err}
		}
	}
	return nil
}

// reconcileProperty decides what to do about one declared non-title
// property: nothing, add it, or rename the misshapen live one aside and
// recreate.
func (e *Evolver) reconcileProperty(live workspace.Schema, want workspace.PropertyDef, edits *workspace.SchemaEdits) {
	cur, ok := live[want.Name]
	if !ok {
		edits.Adds = append(edits.Adds, want)
		return
	}
	if compatible(cur, want) {
		return
	}
	edits.Renames[want.Name] = asideName(live, want.Name)
	edits.Adds = append(edits.Adds, want)
}

// compatible reports whether the live property already satisfies the
// declared one. A relation with a drifted target is not compatible, nor
// is a plain relation where a dual relation is declared.
func compatible(cur, want workspace.PropertyDef) bool {
	if cur.Kind != want.Kind {
		return false
	}
	switch want.Kind {
	case workspace.KindRelation, workspace.KindDualRelation:
		return cur.Target == want.Target
	case workspace.KindRollup:
		return cur.RollupRelation == want.RollupRelation &&
			cur.RollupProperty == want.RollupProperty &&
			cur.RollupFunction == want.RollupFunction
	}
	return true
}

// asideName picks a free "<name>_old" style name for a property that is
// being renamed out of the way.
func asideName(live workspace.Schema, name string) string {
	aside := name + "_old"
	for i := 2; ; i++ {
		if _, taken := live[aside]; !taken {
			return aside
		}
		aside = fmt.Sprintf("%s_old%d", name, i)
	}
}
