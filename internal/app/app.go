// Package app wires the homework poller, the Telegram notifier and the
// supporting runtime (logging, config reload, systemd notifications).
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/DD477/homework-bot/internal/config"
	"github.com/DD477/homework-bot/internal/eventbus"
	"github.com/DD477/homework-bot/internal/homework"
	"github.com/DD477/homework-bot/internal/notifier"
	"github.com/DD477/homework-bot/internal/poller"
	"github.com/DD477/homework-bot/internal/runtime/supervisor"
	telegram "github.com/DD477/homework-bot/internal/transport/telegram/adapter"
	logx "github.com/DD477/homework-bot/pkg/logx"
)

type App struct {
	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service
	bus  eventbus.Bus

	adapter *telegram.Adapter
	api     *homework.Client
	notif   *notifier.Service
	loop    *poller.Loop
}

// New builds the application from a manager whose config has been loaded.
func New(cfgm *config.Manager) (*App, error) {
	if cfgm == nil {
		return nil, errors.New("config manager is nil")
	}
	cfg := cfgm.Get()
	if cfg == nil {
		var err error
		if cfg, err = cfgm.Load(); err != nil {
			return nil, err
		}
	}

	logSvc, log := logx.New(mapLoggingConfig(cfg))
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	tcfg, err := mapTelegramConfig(cfg)
	if err != nil {
		return nil, err
	}
	ad, err := telegram.New(tcfg, log.With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, fmt.Errorf("telegram adapter: %w", err)
	}

	ccfg, err := mapClientConfig(cfg)
	if err != nil {
		return nil, err
	}
	api, err := homework.NewClient(ccfg, log.With(logx.String("comp", "practicum")))
	if err != nil {
		return nil, fmt.Errorf("practicum client: %w", err)
	}

	bus := eventbus.New()

	ncfg, err := mapNotifierConfig(cfg)
	if err != nil {
		return nil, err
	}
	notif := notifier.New(ncfg, ad, log.With(logx.String("comp", "notifier")), bus)

	pcfg, err := mapPollerConfig(cfg)
	if err != nil {
		return nil, err
	}
	loop := poller.New(pcfg, api, notif, log.With(logx.String("comp", "poller")), bus)

	return &App{
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		bus:     bus,
		adapter: ad,
		api:     api,
		notif:   notif,
		loop:    loop,
	}, nil
}

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Notifier() *notifier.Service { return a.notif }

func (a *App) Loop() *poller.Loop { return a.loop }

func (a *App) Start(ctx context.Context) error {
	if a.sup != nil {
		return errors.New("app already started")
	}
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	// Subscribe before the loop starts so the first tick is observed.
	events, unsub := a.bus.Subscribe(64)
	a.sup.Go("events", func(c context.Context) error {
		defer unsub()
		a.watchEvents(c, events)
		return nil
	})

	updates := a.cfgm.Subscribe(4)
	a.sup.Go("config.reload", func(c context.Context) error {
		a.applyConfig(c, updates)
		return nil
	})
	a.sup.GoRestart("config.watch", a.cfgm.Watch, time.Second, 30*time.Second)

	// READY goes out before the first tick so STATUS lines always follow it.
	a.notifySystemd(daemon.SdNotifyReady)
	a.sup.Go("poller", a.loop.Run)

	a.log.Info("app started", logx.String("bot", a.adapter.Username()))
	return nil
}

func (a *App) watchEvents(ctx context.Context, events <-chan eventbus.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time))
			if line, ok := statusLine(e); ok {
				a.notifySystemd(line)
			}
		}
	}
}

// applyConfig re-applies the logging section on every reload. Other sections
// are only read at startup.
func (a *App) applyConfig(ctx context.Context, updates <-chan *config.Config) {
	applied := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-updates:
			if !ok {
				return
			}
			if cfg == nil {
				continue
			}
			a.logs.Apply(mapLoggingConfig(cfg))
			if changed := restartSections(applied, cfg); len(changed) > 0 {
				a.log.Warn("config changed; restart required for changes to take effect",
					logx.String("sections", strings.Join(changed, ",")))
			}
			applied = cfg
			a.log.Info("logging config applied", logx.String("level", cfg.Logging.Level))
		}
	}
}

func (a *App) Stop(ctx context.Context) error {
	if a.sup == nil {
		return nil
	}
	a.notifySystemd(daemon.SdNotifyStopping)
	a.log.Info("stopping")

	err := a.sup.Stop(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		a.log.Warn("stop deadline reached; goroutines still running", logx.Int64("active", a.sup.Active()))
	} else if err != nil {
		a.log.Error("stopped with error", logx.Err(err))
	}

	a.log.Info("stopped", logx.Int64("cursor", a.loop.Cursor()))
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return err
}
