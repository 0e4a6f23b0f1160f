package notifier

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DD477/homework-bot/internal/eventbus"
	kit "github.com/DD477/homework-bot/internal/transport"
	logx "github.com/DD477/homework-bot/pkg/logx"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []string
	to   []kit.ChatTarget
	err  error
}

func (f *fakeSender) SendText(_ context.Context, to kit.ChatTarget, text string, _ *kit.SendOptions) (kit.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	f.to = append(f.to, to)
	if f.err != nil {
		return kit.MessageRef{}, f.err
	}
	return kit.MessageRef{ChatID: to.ChatID, MessageID: len(f.sent)}, nil
}

func TestNotifyDelivers(t *testing.T) {
	t.Parallel()
	fs := &fakeSender{}
	bus := eventbus.New()
	events, unsub := bus.Subscribe(4)
	defer unsub()

	s := New(Config{Target: kit.ChatTarget{ChatID: "42", ThreadID: 7}, RatePerSec: 10}, fs, logx.Nop(), bus)
	s.Notify(context.Background(), "hello")

	if len(fs.sent) != 1 || fs.sent[0] != "hello" {
		t.Fatalf("sent = %v", fs.sent)
	}
	if fs.to[0].ChatID != "42" || fs.to[0].ThreadID != 7 {
		t.Fatalf("target = %+v", fs.to[0])
	}
	select {
	case e := <-events:
		if e.Type != eventbus.TypeNotifySent {
			t.Fatalf("event = %s", e.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestNotifySwallowsFailure(t *testing.T) {
	t.Parallel()
	fs := &fakeSender{err: errors.New("telegram: chat not found (400)")}
	s := New(Config{Target: kit.ChatTarget{ChatID: "42"}, RatePerSec: 10}, fs, logx.Nop(), nil)

	s.Notify(context.Background(), "hello")

	h := s.History()
	if len(h) != 1 || h[0].Error == "" {
		t.Fatalf("failed send should be recorded, history = %+v", h)
	}
}

func TestHistoryIsBounded(t *testing.T) {
	t.Parallel()
	s := New(Config{Target: kit.ChatTarget{ChatID: "1"}, RatePerSec: 100, HistorySize: 2}, &fakeSender{}, logx.Nop(), nil)
	for _, txt := range []string{"a", "b", "c"} {
		s.Notify(context.Background(), txt)
	}
	h := s.History()
	if len(h) != 2 || h[0].Text != "b" || h[1].Text != "c" {
		t.Fatalf("history = %+v", h)
	}
}

func TestNotifyHonoursCancelledContext(t *testing.T) {
	t.Parallel()
	fs := &fakeSender{}
	s := New(Config{Target: kit.ChatTarget{ChatID: "1"}, RatePerSec: 1}, fs, logx.Nop(), nil)
	s.Notify(context.Background(), "first") // drains the single token

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Notify(ctx, "second")

	if len(fs.sent) != 1 {
		t.Fatalf("cancelled notify should not reach the sender, sent = %v", fs.sent)
	}
	if h := s.History(); len(h) != 2 || h[1].Error == "" {
		t.Fatalf("cancelled notify should be recorded as failed: %+v", h)
	}
}

type stuckSender struct {
	release chan struct{}
}

func (s stuckSender) SendText(context.Context, kit.ChatTarget, string, *kit.SendOptions) (kit.MessageRef, error) {
	<-s.release
	return kit.MessageRef{}, nil
}

func TestNotifyReturnsAfterTimeout(t *testing.T) {
	t.Parallel()
	st := stuckSender{release: make(chan struct{})}
	t.Cleanup(func() { close(st.release) })

	s := New(Config{Target: kit.ChatTarget{ChatID: "1"}, RatePerSec: 10, Timeout: 50 * time.Millisecond}, st, logx.Nop(), nil)

	done := make(chan struct{})
	go func() {
		s.Notify(context.Background(), "slow")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked past its timeout")
	}

	h := s.History()
	if len(h) != 1 || !strings.Contains(h[0].Error, "deadline exceeded") {
		t.Fatalf("timed out send should be recorded as failed: %+v", h)
	}
}
