package logx

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const (
	// fileTimeFormat is the timestamp layout stored in JSON lines.
	fileTimeFormat = "2006-01-02T15:04:05.000Z07:00"
	// consoleTimeFormat mirrors the classic "asctime" layout.
	consoleTimeFormat = "2006-01-02 15:04:05,000"
)

func setGlobals() {
	zerolog.ErrorFieldName = "err"
	zerolog.TimeFieldFormat = fileTimeFormat
}

// newConsoleWriter renders "<time> - [<LEVEL>] - <message> key=value ...".
func newConsoleWriter(w io.Writer) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: consoleTimeFormat,
		PartsOrder: []string{
			zerolog.TimestampFieldName,
			zerolog.LevelFieldName,
			zerolog.MessageFieldName,
		},
		FieldsExclude: []string{zerolog.CallerFieldName},
		FormatLevel: func(i interface{}) string {
			return "- [" + levelName(i) + "] -"
		},
	}
}

func levelName(i interface{}) string {
	s, ok := i.(string)
	if !ok {
		return "???"
	}
	switch strings.ToLower(s) {
	case zerolog.LevelDebugValue:
		return "DEBUG"
	case zerolog.LevelInfoValue:
		return "INFO"
	case zerolog.LevelWarnValue:
		return "WARNING"
	case zerolog.LevelErrorValue:
		return "ERROR"
	case zerolog.LevelFatalValue, zerolog.LevelPanicValue:
		return "CRITICAL"
	default:
		return strings.ToUpper(fmt.Sprint(s))
	}
}

// Stdout returns the configured stdout sink.
func Stdout() io.Writer { return os.Stdout }

// Stderr returns the configured stderr sink.
func Stderr() io.Writer { return os.Stderr }
