package clubsync

import (
	"fmt"
	"strings"
	"time"
)

// weekPeriodSep separates the two dates of a week period. The ledger is
// kept in Japanese and uses the wave dash.
const weekPeriodSep = "〜"

const weekPeriodLayout = "2006-01-02"

// WeekPeriod identifies one 7-day accounting window as the string
// "YYYY-MM-DD〜YYYY-MM-DD". The zero-padded layout makes week periods
// sort correctly as plain strings, which the Reconciler relies on when it
// picks the latest period from the ledger.
type WeekPeriod string

// ParseWeekPeriod validates s and returns it as a WeekPeriod.
func ParseWeekPeriod(s string) (WeekPeriod, error) {
	parts := strings.Split(s, weekPeriodSep)
	if len(parts) != 2 {
		return "", &ValidationError{Field: "week period", Value: s, Reason: fmt.Sprintf("want %q-separated start and end dates", weekPeriodSep)}
	}
	start, err := time.Parse(weekPeriodLayout, parts[0])
	if err != nil {
		return "", &ValidationError{Field: "week period", Value: s, Reason: "unparseable start date"}
	}
	end, err := time.Parse(weekPeriodLayout, parts[1])
	if err != nil {
		return "", &ValidationError{Field: "week period", Value: s, Reason: "unparseable end date"}
	}
	if end.Before(start) {
		return "", &ValidationError{Field: "week period", Value: s, Reason: "end before start"}
	}
	return WeekPeriod(s), nil
}

func (w WeekPeriod) String() string { return string(w) }

// LatestWeekPeriod returns the greatest period of the list, i.e. the most
// recent one given the zero-padded layout.
func LatestWeekPeriod(periods []string) (WeekPeriod, error) {
	latest := ""
	for _, p := range periods {
		if p > latest {
			latest = p
		}
	}
	if latest == "" {
		return "", &NotFoundError{What: "week period", Key: "latest"}
	}
	return ParseWeekPeriod(latest)
}
