package config

// Config is the on-disk configuration. Durations are Go duration strings
// ("30s", "10m"). Only the three credentials are required; they are usually
// supplied through the environment (see ApplyEnv).
type Config struct {
	Practicum PracticumConfig `json:"practicum"`
	Telegram  TelegramConfig  `json:"telegram"`
	Poll      PollConfig      `json:"poll"`
	Notifier  NotifierConfig  `json:"notifier"`
	Logging   LoggingConfig   `json:"logging"`
}

type PracticumConfig struct {
	Endpoint string `json:"endpoint"`
	Token    string `json:"token"` // do not log
	Timeout  string `json:"timeout"`
}

type TelegramConfig struct {
	Token    string `json:"token"` // do not log
	ChatID   string `json:"chat_id"`
	ThreadID int    `json:"thread_id,omitempty"`
	// APIURL points at a self-hosted Bot API server; empty means api.telegram.org.
	APIURL  string `json:"api_url,omitempty"`
	Timeout string `json:"timeout,omitempty"`
}

// PollConfig controls the poll loop.
//
// Interval accepts "10m", "00:10" or a cron expression ("*/10 * * * *").
// Cursor is "current_date" (trust the server) or "date_updated" (newest
// submission's date).
type PollConfig struct {
	Interval string `json:"interval"`
	Lookback string `json:"lookback"`
	Cursor   string `json:"cursor"`
}

type NotifierConfig struct {
	RatePerSec  int    `json:"rate_per_sec"`
	Timeout     string `json:"timeout"`
	HistorySize int    `json:"history_size"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled    bool   `json:"enabled"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
}

// Defaults returns the config used for every key the file leaves out.
func Defaults() Config {
	return Config{
		Practicum: PracticumConfig{
			Endpoint: "https://practicum.yandex.ru/api/user_api/homework_statuses/",
			Timeout:  "30s",
		},
		Telegram: TelegramConfig{Timeout: "10s"},
		Poll: PollConfig{
			Interval: "10m",
			Lookback: "720h",
			Cursor:   "current_date",
		},
		Notifier: NotifierConfig{RatePerSec: 1, Timeout: "10s", HistorySize: 20},
		Logging: LoggingConfig{
			Level:   "DEBUG",
			Console: true,
			File:    LoggingFile{Path: "./homework.log", MaxSizeMB: 10, MaxBackups: 3},
		},
	}
}
