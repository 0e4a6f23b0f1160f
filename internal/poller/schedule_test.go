package poller

import (
	"testing"
	"time"
)

func TestParseScheduleVariants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		raw      string
		kind     SpecKind
		source   string
		duration time.Duration
	}{
		{name: "default interval", raw: "10m", kind: SpecInterval, source: "duration", duration: 10 * time.Minute},
		{name: "seconds", raw: "600s", kind: SpecInterval, source: "duration", duration: 10 * time.Minute},
		{name: "cron", raw: "*/10 * * * *", kind: SpecCron, source: "cron"},
		{name: "prefixed cron", raw: "cron:0 9 * * *", kind: SpecCron, source: "cron"},
		{name: "descriptor", raw: "@every 10m", kind: SpecCron, source: "cron"},
		{name: "prefixed interval", raw: "interval:45s", kind: SpecInterval, source: "duration", duration: 45 * time.Second},
		{name: "every prefix", raw: "every:00:10", kind: SpecInterval, source: "hhmm", duration: 10 * time.Minute},
		{name: "hhmm", raw: "01:30", kind: SpecInterval, source: "hhmm", duration: 90 * time.Minute},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseSchedule(tt.raw)
			if err != nil {
				t.Fatalf("ParseSchedule(%q) error: %v", tt.raw, err)
			}
			if got.Kind != tt.kind {
				t.Fatalf("Kind = %v, want %v", got.Kind, tt.kind)
			}
			if got.Source != tt.source {
				t.Fatalf("Source = %s, want %s", got.Source, tt.source)
			}
			if tt.kind == SpecInterval && got.Every != tt.duration {
				t.Fatalf("Every = %v, want %v", got.Every, tt.duration)
			}
			if _, err := got.Schedule(); err != nil {
				t.Fatalf("Schedule(): %v", err)
			}
		})
	}
}

func TestParseScheduleInvalid(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"", "not-a-schedule", "100ms", "00:75", "cron:", "* * *"} {
		if _, err := ParseSchedule(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestIntervalScheduleNext(t *testing.T) {
	t.Parallel()
	spec, err := ParseSchedule("10m")
	if err != nil {
		t.Fatalf("ParseSchedule: %v", err)
	}
	sched, err := spec.Schedule()
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	if got := sched.Next(now); !got.Equal(now.Add(10 * time.Minute)) {
		t.Fatalf("Next = %v, want %v", got, now.Add(10*time.Minute))
	}
}
