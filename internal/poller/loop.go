// Package poller runs the poll-validate-format-notify cycle on a schedule.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/DD477/homework-bot/internal/eventbus"
	"github.com/DD477/homework-bot/internal/homework"
	logx "github.com/DD477/homework-bot/pkg/logx"
)

const (
	DefaultInterval = 600 * time.Second
	DefaultLookback = 30 * 24 * time.Hour

	failurePrefix = "Сбой в работе программы: "
)

// Fetcher returns the decoded API answer for everything since from.
type Fetcher interface {
	Fetch(ctx context.Context, from int64) (any, error)
}

// Notifier delivers a text; delivery failures are the notifier's business.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

type Config struct {
	// Schedule yields the next tick after a cycle finishes. Defaults to every 600s.
	Schedule cron.Schedule
	// Lookback sets the initial cursor to now-Lookback. Defaults to 30 days.
	Lookback time.Duration
	Cursor   homework.CursorStrategy
	// Now is the clock; tests override it.
	Now func() time.Time
}

// Loop owns the poll cursor and the two "last sent" texts used for
// deduplication. Tick and Run must not be called concurrently.
type Loop struct {
	api    Fetcher
	notify Notifier
	log    logx.Logger
	bus    eventbus.Bus
	cfg    Config

	mu         sync.Mutex
	cursor     int64
	lastStatus string
	lastError  string
}

func New(cfg Config, api Fetcher, n Notifier, log logx.Logger, bus eventbus.Bus) *Loop {
	if cfg.Schedule == nil {
		cfg.Schedule = cron.Every(DefaultInterval)
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = DefaultLookback
	}
	if cfg.Cursor == "" {
		cfg.Cursor = homework.CursorCurrentDate
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	if bus == nil {
		bus = eventbus.Nop{}
	}
	return &Loop{
		api:    api,
		notify: n,
		log:    log,
		bus:    bus,
		cfg:    cfg,
		cursor: cfg.Now().Add(-cfg.Lookback).Unix(),
	}
}

// Cursor is the lower bound of the next poll.
func (l *Loop) Cursor() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cursor
}

// Run ticks immediately, then on every schedule slot, until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("polling started",
		logx.Int64("cursor", l.Cursor()),
		logx.String("cursor_strategy", string(l.cfg.Cursor)),
	)
	for {
		_ = l.Tick(ctx)

		wait := l.cfg.Schedule.Next(l.cfg.Now()).Sub(l.cfg.Now())
		if wait < 0 {
			wait = 0
		}
		l.log.Debug("sleeping until next poll", logx.Duration("wait", wait))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			l.log.Info("polling stopped", logx.Int64("cursor", l.Cursor()))
			return nil
		case <-timer.C:
		}
	}
}

// Tick runs one cycle. The returned error is informational: it has already
// been logged and, if new, relayed to the chat.
func (l *Loop) Tick(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tick := uuid.NewString()
	log := l.log.With(logx.String("tick", tick))

	n, err := l.poll(ctx, log, tick)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			log.Debug("poll interrupted by shutdown", logx.Err(err))
			return err
		}
		l.fail(ctx, log, tick, err)
		return err
	}
	l.bus.Publish(eventbus.Event{Type: eventbus.TypePollOK, Data: eventbus.PollResult{
		Tick: tick, Cursor: l.cursor, Submissions: n,
	}})
	return nil
}

// poll must be called with mu held.
func (l *Loop) poll(ctx context.Context, log logx.Logger, tick string) (int, error) {
	doc, err := l.api.Fetch(ctx, l.cursor)
	if err != nil {
		return 0, err
	}

	list, err := homework.CheckResponse(doc)
	if err != nil {
		log.Error("response validation failed", logx.Err(err))
		return 0, err
	}

	if len(list) == 0 {
		log.Debug("no new statuses", logx.Int64("from_date", l.cursor))
	} else {
		sub, err := homework.ParseSubmission(list[0])
		if err != nil {
			log.Error("submission record rejected", logx.Err(err))
			return 0, err
		}
		msg, err := sub.Message()
		if err != nil {
			log.Error("submission status rejected", logx.String("status", sub.Status), logx.Err(err))
			return 0, err
		}
		if msg != l.lastStatus {
			l.notify.Notify(ctx, msg)
			l.lastStatus = msg
			l.bus.Publish(eventbus.Event{Type: eventbus.TypeStatusChanged, Data: eventbus.StatusChange{
				Tick: tick, Name: sub.Name, Status: sub.Status, Message: msg,
			}})
		} else {
			log.Debug("status unchanged", logx.String("homework", sub.Name))
		}
	}

	next, ok, err := l.cfg.Cursor.Next(doc, list)
	if err != nil {
		log.Error("cursor update failed", logx.Err(err))
		return 0, err
	}
	switch {
	case ok:
		l.cursor = next
	case l.cfg.Cursor == homework.CursorCurrentDate:
		log.Warn("current_date missing from response; cursor kept", logx.Int64("cursor", l.cursor))
	}
	return len(list), nil
}

// fail must be called with mu held.
func (l *Loop) fail(ctx context.Context, log logx.Logger, tick string, err error) {
	msg := failurePrefix + err.Error()
	log.Error(msg)
	if msg != l.lastError {
		l.notify.Notify(ctx, msg)
		l.lastError = msg
	}
	l.bus.Publish(eventbus.Event{Type: eventbus.TypePollFailed, Data: eventbus.PollResult{
		Tick: tick, Cursor: l.cursor, Error: err.Error(),
	}})
}
