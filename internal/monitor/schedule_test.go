package monitor

import (
	"testing"
	"time"
)

func TestParseSchedule(t *testing.T) {
	cases := []struct {
		in        string
		wantCron  string
		wantEvery time.Duration
		wantErr   bool
	}{
		{in: "30m", wantEvery: 30 * time.Minute},
		{in: " 2h ", wantEvery: 2 * time.Hour},
		{in: "*/30 * * * *", wantCron: "*/30 * * * *"},
		{in: "@hourly", wantCron: "@hourly"},
		{in: "@every 45m", wantCron: "@every 45m"},
		{in: "", wantErr: true},
		{in: "bogus", wantErr: true},
		{in: "10s", wantErr: true}, // sub-minute polling rejected
	}
	for _, c := range cases {
		got, err := ParseSchedule(c.in)
		if c.wantErr {
			if err == nil {
				t.Fatalf("ParseSchedule(%q): expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseSchedule(%q): %v", c.in, err)
		}
		if got.Cron != c.wantCron || got.Every != c.wantEvery {
			t.Fatalf("ParseSchedule(%q) = %+v", c.in, got)
		}
	}
}
