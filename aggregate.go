package clubsync

import (
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultFeeRate applies when neither the workspace nor the agent master
// declares a commission rate for an agent.
var DefaultFeeRate = decimal.NewFromFloat(0.70)

// DirectName labels the group of players with no referring agent.
const DirectName = "直接"

// FeeRates maps agent id to commission rate. The Reconciler builds it with
// the documented precedence: workspace value, then agent master value, then
// DefaultFeeRate.
type FeeRates map[string]decimal.Decimal

// Rate returns the rate for an agent, falling back to DefaultFeeRate.
func (f FeeRates) Rate(agentID string) decimal.Decimal {
	if r, ok := f[agentID]; ok {
		return r
	}
	return DefaultFeeRate
}

// AgentSummary is one agent's aggregated week. Lines holds every member
// row, the agent's own self-row included; TotalRake and TotalRakeback
// exclude the self-row because commission is earned only on downstream
// players.
type AgentSummary struct {
	AgentID   string // empty for the direct group
	AgentName string
	FeeRate   decimal.Decimal

	Lines []RevenueRow

	TotalRake     Cents
	TotalRakeback Cents
	TotalAmount   Cents
	AgentReward   Cents
	Settlement    Cents
}

// Direct reports whether this is the no-agent group. It produces no Agent
// record and no weekly summary in the workspace, but its rake and rakeback
// still count toward the weekly house total.
func (s *AgentSummary) Direct() bool { return s.AgentID == "" }

// Aggregate groups one week's revenue rows by agent and derives each
// group's settlement figures. It is a pure function: no I/O, no mutation
// of its inputs.
//
// Groups are ordered by agent display name under Japanese collation (the
// ledger's language), with the direct group pinned last.
func Aggregate(rows []RevenueRow, fees FeeRates) []*AgentSummary {
	byAgent := make(map[string]*AgentSummary)
	var groups []*AgentSummary

	for _, r := range rows {
		g, ok := byAgent[r.AgentID]
		if !ok {
			name := DirectName
			if r.AgentID != "" {
				name = r.AgentID // until a row carries the display name
			}
			g = &AgentSummary{AgentID: r.AgentID, AgentName: name}
			byAgent[r.AgentID] = g
			groups = append(groups, g)
		}
		if r.AgentID != "" && r.AgentName != "" && g.AgentName == g.AgentID {
			g.AgentName = r.AgentName
		}

		line := r
		line.Rakeback = Rakeback(r.Rake, r.RakebackRate)

		// The self-row stays on the roster but earns the agent nothing.
		if !(r.AgentID != "" && r.PlayerID == r.AgentID) {
			g.TotalRake += line.Rake
			g.TotalRakeback += line.Rakeback
		}
		g.TotalAmount += line.Settlement
		g.Lines = append(g.Lines, line)
	}

	for _, g := range groups {
		g.FeeRate = fees.Rate(g.AgentID)
		if !g.Direct() {
			g.AgentReward = agentReward(g.TotalRake, g.TotalRakeback, g.FeeRate)
		}
		g.Settlement = g.TotalAmount - g.AgentReward
	}

	c := collate.New(language.Japanese)
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.Direct() != b.Direct() {
			return b.Direct()
		}
		return c.CompareString(a.AgentName, b.AgentName) < 0
	})
	return groups
}

// agentReward is ceil(rake×feeRate − rakeback) in cents. It can be
// negative when rakeback obligations exceed the commission share.
func agentReward(rake, rakeback Cents, feeRate decimal.Decimal) Cents {
	d := decimal.NewFromInt(int64(rake)).Mul(feeRate).Sub(decimal.NewFromInt(int64(rakeback)))
	return Cents(d.Ceil().IntPart())
}
