package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	kit "github.com/DD477/homework-bot/internal/transport"
	logx "github.com/DD477/homework-bot/pkg/logx"
)

// Config configures the Telegram adapter.
type Config struct {
	Token string
	// APIURL overrides the Bot API base URL (self-hosted bot API, tests).
	APIURL string
	// Timeout bounds every Bot API HTTP call.
	Timeout time.Duration
	// Offline skips the getMe lookup in New.
	Offline bool
}

// Adapter is a send-only Telegram client. The bot never reads updates, so no
// poller is started.
type Adapter struct {
	cfg Config
	log logx.Logger

	bot *tele.Bot

	mu       sync.Mutex
	username string
}

// recipient lets chat ids and @usernames go to telebot unchanged.
type recipient string

func (r recipient) Recipient() string { return string(r) }

// New builds the adapter without touching the network. Unless cfg.Offline is
// set it then asks getMe for the bot username; a failure there is logged and
// retried by the next Username call.
func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	b, err := tele.NewBot(tele.Settings{
		Token:   strings.TrimSpace(cfg.Token),
		URL:     strings.TrimRight(cfg.APIURL, "/"),
		Client:  &http.Client{Timeout: timeout},
		Offline: true,
		OnError: func(err error, _ tele.Context) {
			log.Warn("telebot error", logx.Err(err))
		},
	})
	if err != nil {
		return nil, err
	}
	a := &Adapter{cfg: cfg, log: log, bot: b}
	if !cfg.Offline {
		if name := a.Username(); name != "" {
			log.Info("telegram bot ready", logx.String("username", name))
		}
	}
	return a, nil
}

// Username returns the bot username reported by getMe ("" when offline or
// when the Bot API could not be reached yet).
func (a *Adapter) Username() string {
	if a.cfg.Offline {
		return ""
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.username != "" {
		return a.username
	}
	raw, err := a.bot.Raw("getMe", map[string]string{})
	if err != nil {
		a.log.Warn("telegram getMe failed", logx.Err(err))
		return ""
	}
	var resp struct {
		Result tele.User `json:"result"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		a.log.Warn("telegram getMe: bad answer", logx.Err(err))
		return ""
	}
	a.username = resp.Result.Username
	return a.username
}

const telegramTextLimit = 4000

// splitTelegramText splits long messages into chunks that are safe to send to Telegram.
// It prefers newline boundaries near the end of each window.
func splitTelegramText(s string, limit int) []string {
	if limit <= 0 {
		limit = telegramTextLimit
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return []string{s}
	}

	out := make([]string, 0, (len(rs)+limit-1)/limit)
	start := 0
	for start < len(rs) {
		end := min(start+limit, len(rs))

		if end < len(rs) {
			for i := end - 1; i > start; i-- {
				// Avoid extremely small chunks.
				if rs[i] == '\n' && i-start >= limit/3 {
					end = i + 1
					break
				}
			}
		}

		out = append(out, strings.TrimRight(string(rs[start:end]), "\n"))

		start = end
		for start < len(rs) && rs[start] == '\n' {
			start++
		}
	}
	return out
}

func (a *Adapter) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	if strings.TrimSpace(to.ChatID) == "" {
		return kit.MessageRef{}, errors.New("telegram chat id is empty")
	}
	if opt == nil {
		opt = &kit.SendOptions{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var first kit.MessageRef
	for i, chunk := range splitTelegramText(text, telegramTextLimit) {
		if err := ctx.Err(); err != nil {
			return first, err
		}

		msg, err := a.bot.Send(recipient(to.ChatID), chunk, &tele.SendOptions{
			ParseMode:             opt.ParseMode,
			DisableWebPagePreview: opt.DisablePreview,
			ThreadID:              to.ThreadID,
		})
		if err != nil {
			return first, err
		}
		if i == 0 {
			first = kit.MessageRef{ChatID: to.ChatID, ThreadID: to.ThreadID, MessageID: msg.ID}
		}
	}
	return first, nil
}
