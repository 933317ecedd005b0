package clubsync

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/hazuki/clubsync/workspace"
)

// Sheets names the ledger sheets a run reads and writes.
type Sheets struct {
	Raw        string
	Collection string
	Agents     string
	Players    string
}

// DefaultSheets is the ledger's conventional sheet naming.
var DefaultSheets = Sheets{
	Raw:        "取込",
	Collection: "集計",
	Agents:     "エージェント",
	Players:    "プレイヤー",
}

// Reconciler synchronizes one week of aggregated activity into the
// workspace. Every dependency is passed in explicitly; the zero value is
// not usable.
//
// A run is a strict sequence: agents, players, summaries (upsert then
// archive of orphans), details (same), back-relation wiring, weekly
// total, share links. Any failure aborts the remaining steps and leaves
// completed ones in place; because each step is an idempotent
// upsert-or-archive, re-running the command converges to the correct
// state.
type Reconciler struct {
	Workspace workspace.Store
	Ledger    Ledger
	IDs       CollectionIDs
	Sheets    Sheets
	Log       *logrus.Logger
	DryRun    bool

	// ShareBaseURL prefixes the public link derived for every synced
	// weekly summary, e.g. "https://club.example.com/r/".
	ShareBaseURL string
}

// Run reconciles the given week period. An empty period selects the most
// recent one present on the collection sheet.
func (r *Reconciler) Run(ctx context.Context, period string) error {
	week, err := r.resolveWeek(ctx, period)
	if err != nil {
		return err
	}
	r.Log.WithField("week", week).Info("reconciling")

	rows, agents, players, err := r.load(ctx, week)
	if err != nil {
		return err
	}

	fees, err := r.feeRates(ctx, agents)
	if err != nil {
		return err
	}
	groups := Aggregate(rows, fees)
	for _, g := range groups {
		r.Log.WithFields(logrus.Fields{
			"agent":      g.AgentName,
			"players":    len(g.Lines),
			"rake":       g.TotalRake.String(),
			"rakeback":   g.TotalRakeback.String(),
			"reward":     g.AgentReward.String(),
			"settlement": g.Settlement.String(),
		}).Info("aggregated")
	}
	if r.DryRun {
		r.Log.Info("dry run, no workspace writes")
		return nil
	}

	masters := make(map[string]AgentRow, len(agents))
	for _, a := range agents {
		masters[a.AgentID] = a
	}

	agentRecs, err := r.upsertAgents(ctx, groups, masters)
	if err != nil {
		return fmt.Errorf("upserting agents: %w", err)
	}
	playerRecs, err := r.upsertPlayers(ctx, players, agentRecs)
	if err != nil {
		return fmt.Errorf("upserting players: %w", err)
	}
	summaryRecs, err := r.upsertSummaries(ctx, week, groups, masters, agentRecs)
	if err != nil {
		return fmt.Errorf("upserting weekly summaries: %w", err)
	}
	if err := r.archiveOrphanSummaries(ctx, week, summaryRecs); err != nil {
		return fmt.Errorf("archiving orphan summaries: %w", err)
	}
	detailRecs, err := r.upsertDetails(ctx, groups, summaryRecs, playerRecs)
	if err != nil {
		return fmt.Errorf("upserting weekly details: %w", err)
	}
	if err := r.archiveOrphanDetails(ctx, groups, summaryRecs); err != nil {
		return fmt.Errorf("archiving orphan details: %w", err)
	}
	if err := r.wireDetailLists(ctx, summaryRecs, detailRecs); err != nil {
		return fmt.Errorf("wiring summary detail lists: %w", err)
	}
	if err := r.upsertTotal(ctx, week, groups); err != nil {
		return fmt.Errorf("upserting weekly total: %w", err)
	}

	r.shareLinks(groups, masters, summaryRecs)
	r.Log.WithField("week", week).Info("reconciled")
	return nil
}

// resolveWeek picks the target week: the argument when given (and present
// on the collection sheet), the latest on the sheet otherwise.
func (r *Reconciler) resolveWeek(ctx context.Context, period string) (WeekPeriod, error) {
	periods, err := r.Ledger.ListWeekPeriods(ctx, r.Sheets.Collection)
	if err != nil {
		return "", &StoreOperationError{Op: "list week periods", Err: err}
	}
	if period == "" {
		return LatestWeekPeriod(periods)
	}
	week, err := ParseWeekPeriod(period)
	if err != nil {
		return "", err
	}
	if !slices.Contains(periods, period) {
		return "", &NotFoundError{What: "week period", Key: period, Alternatives: periods}
	}
	return week, nil
}

func (r *Reconciler) load(ctx context.Context, week WeekPeriod) ([]RevenueRow, []AgentRow, []PlayerRow, error) {
	rows, err := r.Ledger.ReadCollection(ctx, r.Sheets.Collection, week)
	if err != nil {
		return nil, nil, nil, &StoreOperationError{Op: "read collection sheet", Err: err}
	}
	if len(rows) == 0 {
		return nil, nil, nil, &NotFoundError{What: "collection rows for week period", Key: string(week)}
	}
	agents, err := r.Ledger.ReadAgents(ctx, r.Sheets.Agents)
	if err != nil {
		return nil, nil, nil, &StoreOperationError{Op: "read agent master", Err: err}
	}
	players, err := r.Ledger.ReadPlayers(ctx, r.Sheets.Players)
	if err != nil {
		return nil, nil, nil, &StoreOperationError{Op: "read player master", Err: err}
	}
	return rows, agents, players, nil
}

// feeRates builds the commission-rate map with the documented precedence:
// the workspace's existing value wins over the agent master's, and
// Aggregate falls back to DefaultFeeRate for agents in neither.
func (r *Reconciler) feeRates(ctx context.Context, agents []AgentRow) (FeeRates, error) {
	fees := make(FeeRates)
	for _, a := range agents {
		if a.HasFeeRate {
			fees[a.AgentID] = a.FeeRate
		}
	}
	existing, err := r.Workspace.Query(ctx, r.IDs.Agents, nil)
	if err != nil {
		return nil, &StoreOperationError{Op: "list workspace agents", Err: err}
	}
	for _, rec := range existing {
		id := rec.Props.Text(propAgentID)
		if id == "" {
			continue
		}
		if rate, ok := rec.Props.Number(propFeeRate); ok {
			fees[id] = decimal.NewFromFloat(rate)
		}
	}
	return fees, nil
}

// upsertAgents writes one Agent record per non-direct group and returns
// the per-agent record ids. Unknown agents are created with the master's
// supplementary fields; known ones only get their display name refreshed.
func (r *Reconciler) upsertAgents(ctx context.Context, groups []*AgentSummary, masters map[string]AgentRow) (map[string]string, error) {
	recs := make(map[string]string)
	for _, g := range groups {
		if g.Direct() {
			continue
		}
		m := masters[g.AgentID]
		a := Agent{
			AgentID:    g.AgentID,
			Name:       g.AgentName,
			Remark:     m.Remark,
			SuperAgent: m.SuperAgent,
			FeeRate:    g.FeeRate,
		}
		res, err := upsertWith(ctx, r.Workspace, r.IDs.Agents, agentKey(a.AgentID), a.createProps(), a.updateProps())
		if err != nil {
			return nil, err
		}
		recs[g.AgentID] = res.ID
		r.logUpsert("agent", a.AgentID, res)
	}
	return recs, nil
}

// upsertPlayers runs over the full player master, not just this week's
// players: player records are synchronized independently of activity.
func (r *Reconciler) upsertPlayers(ctx context.Context, players []PlayerRow, agentRecs map[string]string) (map[playerKey]string, error) {
	recs := make(map[playerKey]string, len(players))
	for _, pr := range players {
		agentRec, err := r.resolveAgent(ctx, pr.AgentID, agentRecs)
		if err != nil {
			return nil, err
		}
		p := Player{
			PlayerID:     pr.PlayerID,
			AgentID:      pr.AgentID,
			Nickname:     pr.Nickname,
			Country:      pr.Country,
			Remark:       pr.Remark,
			RakebackRate: pr.RakebackRate,
			AgentRecord:  agentRec,
		}
		res, err := upsert(ctx, r.Workspace, r.IDs.Players, playerWorkspaceKey(p.PlayerID, p.AgentID), p.props())
		if err != nil {
			return nil, err
		}
		recs[playerKey{p.PlayerID, p.AgentID}] = res.ID
		r.logUpsert("player", p.PlayerID, res)
	}
	return recs, nil
}

// resolveAgent maps an agent id to its workspace record id: the records
// just upserted first, then an existing-store lookup for agents with no
// activity this week. Unknown agents resolve to "", leaving the relation
// unset.
func (r *Reconciler) resolveAgent(ctx context.Context, agentID string, agentRecs map[string]string) (string, error) {
	if agentID == "" {
		return "", nil
	}
	if id, ok := agentRecs[agentID]; ok {
		return id, nil
	}
	existing, err := r.Workspace.Query(ctx, r.IDs.Agents, agentKey(agentID))
	if err != nil {
		return "", &StoreOperationError{Op: "query agents", Err: err}
	}
	id := ""
	if len(existing) > 0 {
		id = existing[0].ID
	}
	agentRecs[agentID] = id // cache the miss too
	return id, nil
}

func (r *Reconciler) upsertSummaries(ctx context.Context, week WeekPeriod, groups []*AgentSummary, masters map[string]AgentRow, agentRecs map[string]string) (map[string]string, error) {
	recs := make(map[string]string)
	for _, g := range groups {
		if g.Direct() {
			continue
		}
		title := g.AgentName
		if m := masters[g.AgentID]; m.Remark != "" {
			title = m.Remark
		}
		s := WeeklySummary{
			WeekPeriod:  week,
			AgentID:     g.AgentID,
			Title:       title,
			PlayerCount: len(g.Lines),
			AgentReward: g.AgentReward,
			Settlement:  g.Settlement,
			AgentRecord: agentRecs[g.AgentID],
		}
		res, err := upsert(ctx, r.Workspace, r.IDs.Summaries, summaryKey(week, g.AgentID), s.props())
		if err != nil {
			return nil, err
		}
		recs[g.AgentID] = res.ID
		r.logUpsert("weekly summary", g.AgentID, res)
	}
	return recs, nil
}

// archiveOrphanSummaries archives every live summary of the week whose
// agent did not appear in this run. Archiving is a soft delete; nothing
// is ever hard-deleted.
func (r *Reconciler) archiveOrphanSummaries(ctx context.Context, week WeekPeriod, summaryRecs map[string]string) error {
	existing, err := r.Workspace.Query(ctx, r.IDs.Summaries, workspace.Filter{
		workspace.Eq(propWeekPeriod, workspace.Text(string(week))),
	})
	if err != nil {
		return &StoreOperationError{Op: "list weekly summaries", Err: err}
	}
	for _, rec := range existing {
		agentID := rec.Props.Text(propAgentID)
		if _, live := summaryRecs[agentID]; live {
			continue
		}
		if err := r.Workspace.Archive(ctx, rec.ID); err != nil {
			return &StoreOperationError{Op: "archive weekly summary", Err: err}
		}
		r.Log.WithFields(logrus.Fields{"agent": agentID, "record": rec.ID}).Info("archived weekly summary")
	}
	return nil
}

func (r *Reconciler) upsertDetails(ctx context.Context, groups []*AgentSummary, summaryRecs map[string]string, playerRecs map[playerKey]string) (map[string][]string, error) {
	recs := make(map[string][]string)
	for _, g := range groups {
		summaryRec, ok := summaryRecs[g.AgentID]
		if !ok {
			continue // direct group has no summary
		}
		for _, line := range g.Lines {
			playerRec, err := r.resolvePlayer(ctx, line.PlayerID, g.AgentID, playerRecs)
			if err != nil {
				return nil, err
			}
			title := line.Nickname
			if title == "" {
				title = line.PlayerID
			}
			d := WeeklyDetail{
				PlayerID:      line.PlayerID,
				Title:         title,
				Revenue:       line.Revenue,
				Rake:          line.Rake,
				RakebackRate:  line.RakebackRate,
				Rakeback:      line.Rakeback,
				Settlement:    line.Settlement,
				SummaryRecord: summaryRec,
				PlayerRecord:  playerRec,
			}
			res, err := upsert(ctx, r.Workspace, r.IDs.Details, detailKey(summaryRec, line.PlayerID), d.props())
			if err != nil {
				return nil, err
			}
			recs[summaryRec] = append(recs[summaryRec], res.ID)
			r.logUpsert("weekly detail", line.PlayerID, res)
		}
	}
	return recs, nil
}

// resolvePlayer tries the records just upserted, then the store, and
// settles for no relation rather than failing the run.
func (r *Reconciler) resolvePlayer(ctx context.Context, playerID, agentID string, playerRecs map[playerKey]string) (string, error) {
	key := playerKey{playerID, agentID}
	if id, ok := playerRecs[key]; ok {
		return id, nil
	}
	existing, err := r.Workspace.Query(ctx, r.IDs.Players, playerWorkspaceKey(playerID, agentID))
	if err != nil {
		return "", &StoreOperationError{Op: "query players", Err: err}
	}
	id := ""
	if len(existing) > 0 {
		id = existing[0].ID
	}
	playerRecs[key] = id
	return id, nil
}

// archiveOrphanDetails archives, per summary, the live details whose
// player does not appear in this run's lines for that summary.
func (r *Reconciler) archiveOrphanDetails(ctx context.Context, groups []*AgentSummary, summaryRecs map[string]string) error {
	for _, g := range groups {
		summaryRec, ok := summaryRecs[g.AgentID]
		if !ok {
			continue
		}
		current := make(map[string]bool, len(g.Lines))
		for _, line := range g.Lines {
			current[line.PlayerID] = true
		}
		existing, err := r.Workspace.Query(ctx, r.IDs.Details, workspace.Filter{
			workspace.Eq(propSummaryRel, workspace.Relation(summaryRec)),
		})
		if err != nil {
			return &StoreOperationError{Op: "list weekly details", Err: err}
		}
		for _, rec := range existing {
			playerID := rec.Props.Text(propPlayerID)
			if current[playerID] {
				continue
			}
			if err := r.Workspace.Archive(ctx, rec.ID); err != nil {
				return &StoreOperationError{Op: "archive weekly detail", Err: err}
			}
			r.Log.WithFields(logrus.Fields{"player": playerID, "record": rec.ID}).Info("archived weekly detail")
		}
	}
	return nil
}

// wireDetailLists points each summary's detail-list relation at exactly
// this run's detail records. The summaries' rollups aggregate over that
// relation, so the forward detail→summary link alone is not enough. The
// property is the dual counterpart the store named itself, so it is
// located by target, not by name.
func (r *Reconciler) wireDetailLists(ctx context.Context, summaryRecs map[string]string, detailRecs map[string][]string) error {
	schema, err := r.Workspace.GetSchema(ctx, r.IDs.Summaries)
	if err != nil {
		return &StoreOperationError{Op: "get summaries schema", Err: err}
	}
	rel, ok := schema.RelationTo(r.IDs.Details)
	if !ok {
		return fmt.Errorf("summaries collection has no relation to details; run migrate first")
	}
	for _, summaryRec := range summaryRecs {
		props := workspace.Properties{
			rel.Name: workspace.Relation(detailRecs[summaryRec]...),
		}
		if err := r.Workspace.Update(ctx, summaryRec, props); err != nil {
			return &StoreOperationError{Op: "update summary detail list", Err: err}
		}
	}
	return nil
}

// upsertTotal writes the house-level record for the week. Rake and
// rakeback sum over every group, the direct one included; the fee sums
// over agents only, since nobody earns commission on direct players.
func (r *Reconciler) upsertTotal(ctx context.Context, week WeekPeriod, groups []*AgentSummary) error {
	t := WeeklyTotal{WeekPeriod: week}
	for _, g := range groups {
		t.TotalRake += g.TotalRake
		t.TotalRakeback += g.TotalRakeback
		t.TotalAgentFee += g.AgentReward
	}
	t.HouseProfit = t.TotalRake - t.TotalRakeback - t.TotalAgentFee

	res, err := upsert(ctx, r.Workspace, r.IDs.Totals, totalKey(week), t.props())
	if err != nil {
		return err
	}
	r.logUpsert("weekly total", string(week), res)
	r.Log.WithFields(logrus.Fields{
		"rake":     t.TotalRake.String(),
		"rakeback": t.TotalRakeback.String(),
		"fees":     t.TotalAgentFee.String(),
		"profit":   t.HouseProfit.String(),
	}).Info("weekly total")
	return nil
}

// shareLinks reports one public report URL per synced summary, derived by
// stripping the id separators from the record id.
func (r *Reconciler) shareLinks(groups []*AgentSummary, masters map[string]AgentRow, summaryRecs map[string]string) {
	if r.ShareBaseURL == "" {
		return
	}
	for _, g := range groups {
		rec, ok := summaryRecs[g.AgentID]
		if !ok {
			continue
		}
		name := g.AgentName
		if m := masters[g.AgentID]; m.Remark != "" {
			name = m.Remark
		}
		url := r.ShareBaseURL + strings.ReplaceAll(rec, "-", "")
		r.Log.WithField("agent", name).Info(url)
	}
}

func (r *Reconciler) logUpsert(kind, key string, res UpsertResult) {
	verb := "updated"
	if res.Created {
		verb = "created"
	}
	r.Log.WithFields(logrus.Fields{"key": key, "record": res.ID}).Infof("%s %s", verb, kind)
}
