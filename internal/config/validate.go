package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/DD477/homework-bot/internal/homework"
	"github.com/DD477/homework-bot/internal/poller"
	logx "github.com/DD477/homework-bot/pkg/logx"
)

// ErrMissingCredentials is wrapped by Validate when any of the three secrets is absent.
var ErrMissingCredentials = errors.New("missing required credentials")

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	var missing []string
	if strings.TrimSpace(c.Practicum.Token) == "" {
		missing = append(missing, EnvPracticumToken)
	}
	if strings.TrimSpace(c.Telegram.Token) == "" {
		missing = append(missing, EnvTelegramToken)
	}
	if strings.TrimSpace(c.Telegram.ChatID) == "" {
		missing = append(missing, EnvTelegramChatID)
	}
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", ")))
	}

	if id := strings.TrimSpace(c.Telegram.ChatID); id != "" && !strings.HasPrefix(id, "@") {
		if _, err := strconv.ParseInt(id, 10, 64); err != nil {
			errs = append(errs, fmt.Errorf("telegram.chat_id: must be a numeric id or @channel, got %q", id))
		}
	}
	if c.Telegram.ThreadID < 0 {
		errs = append(errs, errors.New("telegram.thread_id must be >= 0"))
	}
	if u := strings.TrimSpace(c.Practicum.Endpoint); u != "" {
		if pu, err := url.Parse(u); err != nil || pu.Scheme == "" || pu.Host == "" {
			errs = append(errs, fmt.Errorf("practicum.endpoint: invalid url %q", u))
		}
	}

	for _, d := range []struct{ path, raw string }{
		{"practicum.timeout", c.Practicum.Timeout},
		{"telegram.timeout", c.Telegram.Timeout},
		{"poll.lookback", c.Poll.Lookback},
		{"notifier.timeout", c.Notifier.Timeout},
	} {
		if _, err := ParseDurationField(d.path, d.raw); err != nil {
			errs = append(errs, err)
		}
	}
	if strings.TrimSpace(c.Poll.Interval) != "" {
		if _, err := poller.ParseSchedule(c.Poll.Interval); err != nil {
			errs = append(errs, fmt.Errorf("poll.interval: %w", err))
		}
	}
	if _, err := homework.ParseCursorStrategy(c.Poll.Cursor); err != nil {
		errs = append(errs, fmt.Errorf("poll.cursor: %w", err))
	}

	if c.Notifier.RatePerSec < 0 {
		errs = append(errs, errors.New("notifier.rate_per_sec must be >= 0"))
	}
	if c.Notifier.HistorySize < 0 {
		errs = append(errs, errors.New("notifier.history_size must be >= 0"))
	}
	errs = append(errs, c.Logging.validate()...)

	return errors.Join(errs...)
}

func (l LoggingConfig) validate() []error {
	var errs []error
	if !logx.ValidLevel(l.Level) {
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", l.Level))
	}
	if l.File.MaxSizeMB < 0 {
		errs = append(errs, errors.New("logging.file.max_size_mb must be >= 0"))
	}
	if l.File.MaxBackups < 0 {
		errs = append(errs, errors.New("logging.file.max_backups must be >= 0"))
	}
	return errs
}
