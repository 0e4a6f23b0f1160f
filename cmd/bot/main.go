package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DD477/homework-bot/internal/app"
	"github.com/DD477/homework-bot/internal/config"
	logx "github.com/DD477/homework-bot/pkg/logx"
)

func main() {
	var cfgPath, envPath string
	flag.StringVar(&cfgPath, "config", "", "path to config json/yaml (optional)")
	flag.StringVar(&envPath, "env", ".env", "path to a .env file (optional)")
	flag.Parse()

	// Used until the configured logger exists.
	boot := logx.NewConsole("DEBUG").With(logx.String("comp", "main"))

	if err := config.LoadDotEnv(envPath); err != nil {
		boot.Error("failed to read env file", logx.String("path", envPath), logx.Err(err))
		os.Exit(1)
	}

	cfgm := config.NewManager(cfgPath)
	cfgm.SetLogger(boot)
	if _, err := cfgm.Load(); err != nil {
		boot.Error("invalid configuration", logx.Err(err))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(cfgm)
	if err != nil {
		boot.Error("fatal", logx.Err(err))
		os.Exit(1)
	}
	if err := a.Start(ctx); err != nil {
		boot.Error("fatal start", logx.Err(err))
		os.Exit(1)
	}

	select {
	case <-ctx.Done():
	case <-a.Done():
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	_ = a.Stop(stopCtx)

	if err := a.Err(); err != nil {
		boot.Error("exited with error", logx.Err(err))
		os.Exit(1)
	}
}
