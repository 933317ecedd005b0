package clubsync

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Ledger sheet layouts. Amount columns hold integer points (100 points per
// currency unit); rate columns hold fractions like "0.15".

// RevenueRow is one player's activity line for one week, as stored on the
// ledger's collection sheet. An empty AgentID means the player is direct,
// with no referring agent.
type RevenueRow struct {
	WeekPeriod   WeekPeriod
	AgentID      string
	AgentName    string
	PlayerID     string
	Nickname     string
	Revenue      Cents
	Rake         Cents
	RakebackRate decimal.Decimal
	Rakeback     Cents
	Settlement   Cents
}

// AgentRow is one line of the agent master sheet. HasFeeRate distinguishes
// an explicit rate from an absent cell, because a missing rate falls back
// to the workspace value or the default, never to zero.
type AgentRow struct {
	AgentID    string
	Name       string
	Remark     string
	SuperAgent string
	FeeRate    decimal.Decimal
	HasFeeRate bool
}

// PlayerRow is one line of the player master sheet. The natural key is
// (PlayerID, AgentID): the same human playing under two agents is two rows.
type PlayerRow struct {
	PlayerID     string
	AgentID      string
	Nickname     string
	Country      string
	Remark       string
	RakebackRate decimal.Decimal
}

// Sheet headers, in column order.
var (
	CollectionHeader = []string{"週期間", "エージェントID", "エージェント名", "プレイヤーID", "ニックネーム", "収支", "レーキ", "レーキバック率", "レーキバック", "精算額"}
	RawHeader        = []string{"週期間", "エージェントID", "エージェント名", "プレイヤーID", "ニックネーム", "収支", "レーキ"}
	AgentHeader      = []string{"エージェントID", "名前", "備考", "上位エージェント", "還元率"}
	PlayerHeader     = []string{"プレイヤーID", "エージェントID", "ニックネーム", "国", "備考", "レーキバック率"}
)

func cell(cells []string, i int) string {
	if i < len(cells) {
		return cells[i]
	}
	return ""
}

func parseCents(s string) (Cents, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q is not an integer point value: %w", s, err)
	}
	return Cents(n), nil
}

func parseRate(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("rate %q is not a decimal fraction: %w", s, err)
	}
	return d, nil
}

// ParseRevenueRow decodes one collection-sheet line.
func ParseRevenueRow(cells []string) (r RevenueRow, err error) {
	r.WeekPeriod = WeekPeriod(cell(cells, 0))
	r.AgentID = cell(cells, 1)
	r.AgentName = cell(cells, 2)
	r.PlayerID = cell(cells, 3)
	r.Nickname = cell(cells, 4)
	if r.Revenue, err = parseCents(cell(cells, 5)); err != nil {
		return r, err
	}
	if r.Rake, err = parseCents(cell(cells, 6)); err != nil {
		return r, err
	}
	if r.RakebackRate, err = parseRate(cell(cells, 7)); err != nil {
		return r, err
	}
	if r.Rakeback, err = parseCents(cell(cells, 8)); err != nil {
		return r, err
	}
	r.Settlement, err = parseCents(cell(cells, 9))
	return r, err
}

// Cells encodes the row in collection-sheet column order.
func (r RevenueRow) Cells() []string {
	return []string{
		string(r.WeekPeriod),
		r.AgentID,
		r.AgentName,
		r.PlayerID,
		r.Nickname,
		strconv.FormatInt(int64(r.Revenue), 10),
		strconv.FormatInt(int64(r.Rake), 10),
		r.RakebackRate.String(),
		strconv.FormatInt(int64(r.Rakeback), 10),
		strconv.FormatInt(int64(r.Settlement), 10),
	}
}

// RawCells encodes the row in raw-sheet column order, as written by the
// import step before rakeback rates are joined in.
func (r RevenueRow) RawCells() []string {
	return []string{
		string(r.WeekPeriod),
		r.AgentID,
		r.AgentName,
		r.PlayerID,
		r.Nickname,
		strconv.FormatInt(int64(r.Revenue), 10),
		strconv.FormatInt(int64(r.Rake), 10),
	}
}

// ParseRawRow decodes one raw-sheet line.
func ParseRawRow(cells []string) (r RevenueRow, err error) {
	r.WeekPeriod = WeekPeriod(cell(cells, 0))
	r.AgentID = cell(cells, 1)
	r.AgentName = cell(cells, 2)
	r.PlayerID = cell(cells, 3)
	r.Nickname = cell(cells, 4)
	if r.Revenue, err = parseCents(cell(cells, 5)); err != nil {
		return r, err
	}
	r.Rake, err = parseCents(cell(cells, 6))
	return r, err
}

// ParseAgentRow decodes one agent-master line.
func ParseAgentRow(cells []string) (a AgentRow, err error) {
	a.AgentID = cell(cells, 0)
	a.Name = cell(cells, 1)
	a.Remark = cell(cells, 2)
	a.SuperAgent = cell(cells, 3)
	if s := cell(cells, 4); s != "" {
		if a.FeeRate, err = parseRate(s); err != nil {
			return a, err
		}
		a.HasFeeRate = true
	}
	return a, nil
}

// ParsePlayerRow decodes one player-master line.
func ParsePlayerRow(cells []string) (p PlayerRow, err error) {
	p.PlayerID = cell(cells, 0)
	p.AgentID = cell(cells, 1)
	p.Nickname = cell(cells, 2)
	p.Country = cell(cells, 3)
	p.Remark = cell(cells, 4)
	p.RakebackRate, err = parseRate(cell(cells, 5))
	return p, err
}
