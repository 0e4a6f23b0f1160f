package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DD477/homework-bot/internal/config"
	"github.com/DD477/homework-bot/internal/eventbus"
)

const botToken = "123:test"

type fakeBot struct {
	mu   sync.Mutex
	sent []string
	got  chan string
}

func (b *fakeBot) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/bot" + botToken + "/getMe":
		_, _ = io.WriteString(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"hw","username":"hw_bot"}}`)
	case "/bot" + botToken + "/sendMessage":
		var body struct {
			Text string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		b.sent = append(b.sent, body.Text)
		b.mu.Unlock()
		b.got <- body.Text
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"},"text":"ok"}}`)
	default:
		http.NotFound(w, r)
	}
}

func writeConfig(t *testing.T, practicumURL, botURL string) string {
	t.Helper()
	body := `{
  "practicum": {"endpoint": "` + practicumURL + `/", "timeout": "5s"},
  "telegram": {"api_url": "` + botURL + `"},
  "poll": {"interval": "1h"},
  "logging": {"level": "ERROR", "console": true}
}`
	p := filepath.Join(t.TempDir(), "bot.json")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func testEnv(k string) (string, bool) {
	v, ok := map[string]string{
		config.EnvPracticumToken: "p-token",
		config.EnvTelegramToken:  botToken,
		config.EnvTelegramChatID: "42",
	}[k]
	return v, ok
}

func TestAppPollsAndNotifies(t *testing.T) {
	var (
		statesMu sync.Mutex
		states   []string
	)
	prev := sdNotify
	sdNotify = func(_ bool, state string) (bool, error) {
		statesMu.Lock()
		states = append(states, state)
		statesMu.Unlock()
		return false, nil
	}
	t.Cleanup(func() { sdNotify = prev })

	var (
		authMu sync.Mutex
		auth   string
	)
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authMu.Lock()
		auth = r.Header.Get("Authorization")
		authMu.Unlock()
		_, _ = io.WriteString(w, `{"homeworks":[{"homework_name":"hw1","status":"approved"}],"current_date":1000}`)
	}))
	t.Cleanup(api.Close)

	bot := &fakeBot{got: make(chan string, 4)}
	botSrv := httptest.NewServer(bot)
	t.Cleanup(botSrv.Close)

	m := config.NewManager(writeConfig(t, api.URL, botSrv.URL))
	m.SetLookup(testEnv)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	a, err := New(m)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case text := <-bot.got:
		want := `Изменился статус проверки работы "hw1". Работа проверена: ревьюеру всё понравилось. Ура!`
		if text != want {
			t.Fatalf("sent %q, want %q", text, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no message delivered")
	}
	authMu.Lock()
	gotAuth := auth
	authMu.Unlock()
	if gotAuth != "OAuth p-token" {
		t.Fatalf("Authorization=%q", gotAuth)
	}

	// The cursor follows current_date once the tick completes.
	deadline := time.Now().Add(2 * time.Second)
	for a.Loop().Cursor() != 1000 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := a.Loop().Cursor(); got != 1000 {
		t.Fatalf("cursor=%d", got)
	}

	// Let the event watcher report the poll before STOPPING goes out.
	polled := func() bool {
		statesMu.Lock()
		defer statesMu.Unlock()
		for _, s := range states {
			if strings.HasPrefix(s, "STATUS=last poll ok") {
				return true
			}
		}
		return false
	}
	for !polled() && time.Now().Before(deadline.Add(2*time.Second)) {
		time.Sleep(10 * time.Millisecond)
	}
	if !polled() {
		t.Fatal("poll status never reported to systemd")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer stopCancel()
	if err := a.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	statesMu.Lock()
	defer statesMu.Unlock()
	if len(states) == 0 || states[0] != "READY=1" {
		t.Fatalf("first sd_notify state = %v", states)
	}
	if states[len(states)-1] != "STOPPING=1" {
		t.Fatalf("last sd_notify state = %v", states)
	}
}

func TestNewFailsWithoutCredentials(t *testing.T) {
	t.Parallel()

	m := config.NewManager("")
	m.SetLookup(func(string) (string, bool) { return "", false })
	if _, err := New(m); err == nil {
		t.Fatal("expected error")
	}
}

func TestStatusLine(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		name string
		ev   eventbus.Event
		want string
		ok   bool
	}{
		{"ok", eventbus.Event{Type: eventbus.TypePollOK, Time: at, Data: eventbus.PollResult{Cursor: 7, Submissions: 1}},
			"STATUS=last poll ok at 03:04:05, 1 submission(s), cursor 7", true},
		{"failed", eventbus.Event{Type: eventbus.TypePollFailed, Time: at, Data: eventbus.PollResult{Error: "boom"}},
			"STATUS=last poll failed at 03:04:05: boom", true},
		{"changed", eventbus.Event{Type: eventbus.TypeStatusChanged, Data: eventbus.StatusChange{Name: "hw1", Status: "approved"}},
			"STATUS=hw1 is approved", true},
		{"ignored", eventbus.Event{Type: eventbus.TypeNotifySent}, "", false},
	}
	for _, tt := range tests {
		got, ok := statusLine(tt.ev)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("%s: got (%q,%v) want (%q,%v)", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRestartSections(t *testing.T) {
	t.Parallel()

	a := config.Defaults()
	b := config.Defaults()
	b.Logging.Level = "ERROR"
	if got := restartSections(&a, &b); len(got) != 0 {
		t.Fatalf("logging-only change reported %v", got)
	}
	b.Poll.Interval = "5m"
	b.Telegram.ChatID = "1"
	if got := strings.Join(restartSections(&a, &b), ","); got != "telegram,poll" {
		t.Fatalf("got %q", got)
	}
}

func TestMapPollerConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()
	cfg.Poll.Interval = "*/10 * * * *"
	cfg.Poll.Cursor = "date_updated"
	pc, err := mapPollerConfig(&cfg)
	if err != nil {
		t.Fatalf("mapPollerConfig: %v", err)
	}
	if pc.Schedule == nil || pc.Cursor != "date_updated" || pc.Lookback != 720*time.Hour {
		t.Fatalf("unexpected %+v", pc)
	}
	next := pc.Schedule.Next(time.Date(2024, 1, 1, 0, 3, 0, 0, time.UTC))
	if next.Minute() != 10 {
		t.Fatalf("next=%v", next)
	}
}

func TestNewSurvivesUnreachableBotAPI(t *testing.T) {
	t.Parallel()

	botSrv := httptest.NewServer(http.NotFoundHandler())
	botURL := botSrv.URL
	botSrv.Close()

	m := config.NewManager(writeConfig(t, "http://127.0.0.1:1", botURL))
	m.SetLookup(testEnv)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	a, err := New(m)
	if err != nil {
		t.Fatalf("New must not depend on the Bot API being reachable: %v", err)
	}
	if a.Notifier() == nil || a.Loop() == nil {
		t.Fatal("app not fully wired")
	}
}
