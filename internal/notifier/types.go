package notifier

import (
	"time"

	kit "github.com/DD477/homework-bot/internal/transport"
)

// Config controls delivery.
type Config struct {
	Target      kit.ChatTarget
	RatePerSec  int
	Timeout     time.Duration
	HistorySize int
}

type HistoryItem struct {
	At    time.Time
	Text  string
	Error string // empty when delivered
}
