package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/DD477/homework-bot/internal/eventbus"
	kit "github.com/DD477/homework-bot/internal/transport"
	logx "github.com/DD477/homework-bot/pkg/logx"
)

// Service is safe for concurrent use.
type Service struct {
	log    logx.Logger
	sender kit.Sender
	bus    eventbus.Bus

	cfg     Config
	limiter *rate.Limiter

	hmu     sync.Mutex
	history []HistoryItem
}

func New(cfg Config, sender kit.Sender, log logx.Logger, bus eventbus.Bus) *Service {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 20
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	if bus == nil {
		bus = eventbus.Nop{}
	}
	return &Service{
		log:     log,
		sender:  sender,
		bus:     bus,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
	}
}

// Notify sends text to the configured chat. Failures are logged, recorded in
// the history and published on the bus, never returned.
func (s *Service) Notify(ctx context.Context, text string) {
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.send(ctx, text)

	item := HistoryItem{At: time.Now(), Text: text}
	ev := eventbus.Delivery{ChatID: s.cfg.Target.ChatID, Text: text}
	if err != nil {
		item.Error = err.Error()
		ev.Error = err.Error()
		s.log.Error("message delivery failed", logx.String("chat_id", s.cfg.Target.ChatID), logx.Err(err))
		s.bus.Publish(eventbus.Event{Type: eventbus.TypeNotifyFailed, Data: ev})
	} else {
		s.log.Info("message sent", logx.String("chat_id", s.cfg.Target.ChatID))
		s.bus.Publish(eventbus.Event{Type: eventbus.TypeNotifySent, Data: ev})
	}
	s.remember(item)
}

// send waits at most cfg.Timeout for the sender. Telebot has no context
// support, so a send still in flight after the deadline keeps running in its
// goroutine until the transport's own HTTP timeout ends it.
func (s *Service) send(ctx context.Context, text string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	sctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := s.sender.SendText(sctx, s.cfg.Target, text, &kit.SendOptions{DisablePreview: true})
		done <- err
	}()
	select {
	case err := <-done:
		return err
	case <-sctx.Done():
		return fmt.Errorf("send abandoned after %s: %w", s.cfg.Timeout, sctx.Err())
	}
}

func (s *Service) remember(it HistoryItem) {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	s.history = append(s.history, it)
	if over := len(s.history) - s.cfg.HistorySize; over > 0 {
		s.history = append(s.history[:0:0], s.history[over:]...)
	}
}

// History returns recent sends, oldest first.
func (s *Service) History() []HistoryItem {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	return append([]HistoryItem(nil), s.history...)
}
