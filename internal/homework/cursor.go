package homework

import (
	"fmt"
	"strings"
)

// CursorStrategy decides where the next poll resumes from.
type CursorStrategy string

const (
	// CursorCurrentDate trusts the server-reported "current_date".
	CursorCurrentDate CursorStrategy = "current_date"
	// CursorDateUpdated uses date_updated of the newest submission.
	CursorDateUpdated CursorStrategy = "date_updated"
)

// ParseCursorStrategy maps a config value to a strategy; empty means CursorCurrentDate.
func ParseCursorStrategy(s string) (CursorStrategy, error) {
	switch CursorStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", CursorCurrentDate:
		return CursorCurrentDate, nil
	case CursorDateUpdated:
		return CursorDateUpdated, nil
	default:
		return "", fmt.Errorf("unknown cursor strategy %q (use %q or %q)", s, CursorCurrentDate, CursorDateUpdated)
	}
}

// Next computes the cursor for the following poll from a validated answer.
// ok is false when the answer carries nothing to advance to.
func (s CursorStrategy) Next(doc any, homeworks []any) (cursor int64, ok bool, err error) {
	switch s {
	case CursorDateUpdated:
		if len(homeworks) == 0 {
			return 0, false, nil
		}
		sub, err := ParseSubmission(homeworks[0])
		if err != nil {
			return 0, false, err
		}
		t, err := sub.Updated()
		if err != nil {
			return 0, false, err
		}
		return t.Unix(), true, nil
	default:
		ts, ok := CurrentDate(doc)
		return ts, ok, nil
	}
}
