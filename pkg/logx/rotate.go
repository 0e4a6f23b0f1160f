package logx

import (
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

const defaultLogPath = "./homework.log"

// newRotatingFile returns an append-only file sink that rolls over once it
// grows past MaxSizeMB. Backups are kept next to it as
// <name>-<timestamp>.<ext>, at most MaxBackups of them.
func newRotatingFile(cfg FileConfig) *lumberjack.Logger {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		path = defaultLogPath
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    max(0, cfg.MaxSizeMB),
		MaxBackups: max(0, cfg.MaxBackups),
		LocalTime:  true,
	}
}
