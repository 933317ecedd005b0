package clubsync

import (
	"errors"
	"testing"
)

func TestParseWeekPeriod(t *testing.T) {
	testCases := []struct {
		in      string
		wantErr bool
	}{
		{"2026-08-17〜2026-08-23", false},
		{"2026-08-17", true},                  // no separator
		{"2026-08-17〜not-a-date", true},       // bad end
		{"2026-8-17〜2026-08-23", true},        // not zero padded
		{"2026-08-23〜2026-08-17", true},       // end before start
		{"2026-08-17〜2026-08-23〜extra", true}, // three parts
		{"", true},
	}
	for _, tc := range testCases {
		_, err := ParseWeekPeriod(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseWeekPeriod(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
		if err != nil {
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("ParseWeekPeriod(%q) error type = %T, want *ValidationError", tc.in, err)
			}
		}
	}
}

func TestLatestWeekPeriod(t *testing.T) {
	periods := []string{
		"2026-08-10〜2026-08-16",
		"2026-08-24〜2026-08-30",
		"2026-08-17〜2026-08-23",
	}
	got, err := LatestWeekPeriod(periods)
	if err != nil {
		t.Fatalf("LatestWeekPeriod: %v", err)
	}
	if want := WeekPeriod("2026-08-24〜2026-08-30"); got != want {
		t.Errorf("LatestWeekPeriod = %q, want %q", got, want)
	}

	if _, err := LatestWeekPeriod(nil); err == nil {
		t.Error("LatestWeekPeriod(nil) should fail")
	}
}
