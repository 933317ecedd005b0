package clubsync

// playerKey is the player master's natural key. The same human under two
// agents is two distinct players.
type playerKey struct {
	PlayerID string
	AgentID  string
}

// Collect joins one week of raw revenue rows with the player master,
// filling in each row's rakeback rate (default 0 when the player is not on
// the master), the rakeback it yields, and the row settlement
// (revenue plus rakeback, in points). The result is what the collection
// sheet stores and the aggregator consumes.
func Collect(raws []RevenueRow, players []PlayerRow) []RevenueRow {
	rates := make(map[playerKey]PlayerRow, len(players))
	for _, p := range players {
		rates[playerKey{p.PlayerID, p.AgentID}] = p
	}

	rows := make([]RevenueRow, 0, len(raws))
	for _, r := range raws {
		if p, ok := rates[playerKey{r.PlayerID, r.AgentID}]; ok {
			r.RakebackRate = p.RakebackRate
			if r.Nickname == "" {
				r.Nickname = p.Nickname
			}
		}
		r.Rakeback = Rakeback(r.Rake, r.RakebackRate)
		r.Settlement = r.Revenue + r.Rakeback
		rows = append(rows, r)
	}
	return rows
}
