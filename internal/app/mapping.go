package app

import (
	"fmt"
	"strings"

	"github.com/DD477/homework-bot/internal/config"
	"github.com/DD477/homework-bot/internal/homework"
	"github.com/DD477/homework-bot/internal/notifier"
	"github.com/DD477/homework-bot/internal/poller"
	kit "github.com/DD477/homework-bot/internal/transport"
	telegram "github.com/DD477/homework-bot/internal/transport/telegram/adapter"
	logx "github.com/DD477/homework-bot/pkg/logx"
)

func mapLoggingConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled:    cfg.Logging.File.Enabled,
			Path:       cfg.Logging.File.Path,
			MaxSizeMB:  cfg.Logging.File.MaxSizeMB,
			MaxBackups: cfg.Logging.File.MaxBackups,
		},
	}
}

func mapTelegramConfig(cfg *config.Config) (telegram.Config, error) {
	timeout, err := config.ParseDurationOrDefault("telegram.timeout", cfg.Telegram.Timeout, 0)
	if err != nil {
		return telegram.Config{}, err
	}
	return telegram.Config{
		Token:   cfg.Telegram.Token,
		APIURL:  cfg.Telegram.APIURL,
		Timeout: timeout,
	}, nil
}

func mapClientConfig(cfg *config.Config) (homework.ClientConfig, error) {
	timeout, err := config.ParseDurationOrDefault("practicum.timeout", cfg.Practicum.Timeout, 0)
	if err != nil {
		return homework.ClientConfig{}, err
	}
	return homework.ClientConfig{
		Endpoint: cfg.Practicum.Endpoint,
		Token:    cfg.Practicum.Token,
		Timeout:  timeout,
	}, nil
}

func mapNotifierConfig(cfg *config.Config) (notifier.Config, error) {
	timeout, err := config.ParseDurationOrDefault("notifier.timeout", cfg.Notifier.Timeout, 0)
	if err != nil {
		return notifier.Config{}, err
	}
	return notifier.Config{
		Target:      kit.ChatTarget{ChatID: strings.TrimSpace(cfg.Telegram.ChatID), ThreadID: cfg.Telegram.ThreadID},
		RatePerSec:  cfg.Notifier.RatePerSec,
		Timeout:     timeout,
		HistorySize: cfg.Notifier.HistorySize,
	}, nil
}

func mapPollerConfig(cfg *config.Config) (poller.Config, error) {
	var out poller.Config
	if strings.TrimSpace(cfg.Poll.Interval) != "" {
		spec, err := poller.ParseSchedule(cfg.Poll.Interval)
		if err != nil {
			return out, fmt.Errorf("poll.interval: %w", err)
		}
		sched, err := spec.Schedule()
		if err != nil {
			return out, fmt.Errorf("poll.interval: %w", err)
		}
		out.Schedule = sched
	}
	lookback, err := config.ParseDurationOrDefault("poll.lookback", cfg.Poll.Lookback, poller.DefaultLookback)
	if err != nil {
		return out, err
	}
	out.Lookback = lookback
	strategy, err := homework.ParseCursorStrategy(cfg.Poll.Cursor)
	if err != nil {
		return out, fmt.Errorf("poll.cursor: %w", err)
	}
	out.Cursor = strategy
	return out, nil
}

// restartSections lists config sections that differ between a and b but are
// only read at startup.
func restartSections(a, b *config.Config) []string {
	if a == nil || b == nil {
		return nil
	}
	var out []string
	if a.Practicum != b.Practicum {
		out = append(out, "practicum")
	}
	if a.Telegram != b.Telegram {
		out = append(out, "telegram")
	}
	if a.Poll != b.Poll {
		out = append(out, "poll")
	}
	if a.Notifier != b.Notifier {
		out = append(out, "notifier")
	}
	return out
}
