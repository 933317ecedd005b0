package clubsync

import (
	"github.com/shopspring/decimal"

	"github.com/hazuki/clubsync/workspace"
)

// CollectionIDs holds the live workspace collection ids, one per entity
// type. They come from configuration; the engine never hardcodes them.
type CollectionIDs struct {
	Agents    string
	Players   string
	Summaries string
	Details   string
	Totals    string
}

// Workspace property names. Every collection uses "Name" as its title
// property; the evolver renames a stray title in place because the store
// cannot grow a second one.
const (
	propTitle        = "Name"
	propAgentID      = "AgentID"
	propPlayerID     = "PlayerID"
	propWeekPeriod   = "WeekPeriod"
	propRemark       = "Remark"
	propSuperAgent   = "SuperAgent"
	propFeeRate      = "FeeRate"
	propCountry      = "Country"
	propRakebackRate = "RakebackRate"
	propPlayerCount  = "PlayerCount"
	propAgentReward  = "AgentReward"
	propSettlement   = "Settlement"
	propRevenue      = "Revenue"
	propRake         = "Rake"
	propRakeback     = "Rakeback"
	propAgentRel     = "Agent"
	propPlayerRel    = "Player"
	propSummaryRel   = "Summary"
	propTotalRake    = "TotalRake"
	propTotalRakebk  = "TotalRakeback"
	propTotalFee     = "TotalAgentFee"
	propHouseProfit  = "HouseProfit"
	propRevenueSum   = "RevenueSum"
	propRakeSum      = "RakeSum"
	propRakebackSum  = "RakebackSum"
)

// Agent is a referring intermediary. Natural key: AgentID.
type Agent struct {
	AgentID    string
	Name       string
	Remark     string
	SuperAgent string
	FeeRate    decimal.Decimal
}

func agentKey(agentID string) workspace.Filter {
	return workspace.Filter{workspace.Eq(propAgentID, workspace.Text(agentID))}
}

// createProps is the full payload written when the agent is first seen.
func (a Agent) createProps() workspace.Properties {
	f, _ := a.FeeRate.Float64()
	return workspace.Properties{
		propTitle:      workspace.Title(a.Name),
		propAgentID:    workspace.Text(a.AgentID),
		propRemark:     workspace.Text(a.Remark),
		propSuperAgent: workspace.Text(a.SuperAgent),
		propFeeRate:    workspace.Number(f),
	}
}

// updateProps refreshes the display name only. FeeRate and the
// supplementary fields belong to the workspace once the record exists:
// the store's value wins over the ledger's on every later run.
func (a Agent) updateProps() workspace.Properties {
	return workspace.Properties{
		propTitle: workspace.Title(a.Name),
	}
}

// Player is one (player id, agent id) pairing. Natural key: both fields;
// the same human under two agents is two records.
type Player struct {
	PlayerID     string
	AgentID      string
	Nickname     string
	Country      string
	Remark       string
	RakebackRate decimal.Decimal
	AgentRecord  string // workspace id of the agent, empty when direct
}

func playerWorkspaceKey(playerID, agentID string) workspace.Filter {
	return workspace.Filter{
		workspace.Eq(propPlayerID, workspace.Text(playerID)),
		workspace.Eq(propAgentID, workspace.Text(agentID)),
	}
}

func (p Player) props() workspace.Properties {
	rate, _ := p.RakebackRate.Float64()
	props := workspace.Properties{
		propTitle:        workspace.Title(p.Nickname),
		propPlayerID:     workspace.Text(p.PlayerID),
		propAgentID:      workspace.Text(p.AgentID),
		propCountry:      workspace.Text(p.Country),
		propRemark:       workspace.Text(p.Remark),
		propRakebackRate: workspace.Number(rate),
	}
	if p.AgentRecord != "" {
		props[propAgentRel] = workspace.Relation(p.AgentRecord)
	}
	return props
}

// WeeklySummary is one agent's week. Natural key: (WeekPeriod, AgentID).
type WeeklySummary struct {
	WeekPeriod  WeekPeriod
	AgentID     string
	Title       string // agent remark when present, else agent name
	PlayerCount int
	AgentReward Cents
	Settlement  Cents
	AgentRecord string
}

func summaryKey(period WeekPeriod, agentID string) workspace.Filter {
	return workspace.Filter{
		workspace.Eq(propWeekPeriod, workspace.Text(string(period))),
		workspace.Eq(propAgentID, workspace.Text(agentID)),
	}
}

func (s WeeklySummary) props() workspace.Properties {
	props := workspace.Properties{
		propTitle:       workspace.Title(s.Title),
		propWeekPeriod:  workspace.Text(string(s.WeekPeriod)),
		propAgentID:     workspace.Text(s.AgentID),
		propPlayerCount: workspace.Number(float64(s.PlayerCount)),
		propAgentReward: workspace.Number(s.AgentReward.Units()),
		propSettlement:  workspace.Number(s.Settlement.Units()),
	}
	if s.AgentRecord != "" {
		props[propAgentRel] = workspace.Relation(s.AgentRecord)
	}
	return props
}

// WeeklyDetail is one player line under a summary. Natural key:
// (summary record, PlayerID).
type WeeklyDetail struct {
	PlayerID      string
	Title         string // nickname when known, else the player id
	Revenue       Cents
	Rake          Cents
	RakebackRate  decimal.Decimal
	Rakeback      Cents
	Settlement    Cents
	SummaryRecord string
	PlayerRecord  string // left empty when the player cannot be resolved
}

func detailKey(summaryRecord, playerID string) workspace.Filter {
	return workspace.Filter{
		workspace.Eq(propSummaryRel, workspace.Relation(summaryRecord)),
		workspace.Eq(propPlayerID, workspace.Text(playerID)),
	}
}

func (d WeeklyDetail) props() workspace.Properties {
	rate, _ := d.RakebackRate.Float64()
	props := workspace.Properties{
		propTitle:        workspace.Title(d.Title),
		propPlayerID:     workspace.Text(d.PlayerID),
		propRevenue:      workspace.Number(d.Revenue.Units()),
		propRake:         workspace.Number(d.Rake.Units()),
		propRakebackRate: workspace.Number(rate),
		propRakeback:     workspace.Number(d.Rakeback.Units()),
		propSettlement:   workspace.Number(d.Settlement.Units()),
		propSummaryRel:   workspace.Relation(d.SummaryRecord),
	}
	if d.PlayerRecord != "" {
		props[propPlayerRel] = workspace.Relation(d.PlayerRecord)
	}
	return props
}

// WeeklyTotal is the house-level rollup. Natural key: WeekPeriod alone.
// It is always upserted, never archived.
type WeeklyTotal struct {
	WeekPeriod    WeekPeriod
	TotalRake     Cents
	TotalRakeback Cents
	TotalAgentFee Cents
	HouseProfit   Cents
}

func totalKey(period WeekPeriod) workspace.Filter {
	return workspace.Filter{workspace.Eq(propWeekPeriod, workspace.Text(string(period)))}
}

func (t WeeklyTotal) props() workspace.Properties {
	return workspace.Properties{
		propTitle:       workspace.Title(string(t.WeekPeriod)),
		propWeekPeriod:  workspace.Text(string(t.WeekPeriod)),
		propTotalRake:   workspace.Number(t.TotalRake.Units()),
		propTotalRakebk: workspace.Number(t.TotalRakeback.Units()),
		propTotalFee:    workspace.Number(t.TotalAgentFee.Units()),
		propHouseProfit: workspace.Number(t.HouseProfit.Units()),
	}
}
