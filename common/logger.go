package common

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

type LogLevel int32

const (
	DEBUG_INFO_DETAIL LogLevel = 1
	DEBUG_INFO        LogLevel = 2
	CODEC_OP_DETAIL   LogLevel = 4
	DEBUGGING         LogLevel = 8
	INFO              LogLevel = 16
	WARN              LogLevel = 32
	ERROR             LogLevel = 64
	FATAL             LogLevel = 128
)

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(NewLogger(os.Stderr, slog.LevelDebug))
}

// NewLogger returns a tint backed logger. Colors are used only when f is a terminal.
func NewLogger(f *os.File, level slog.Leveler) *slog.Logger {
	return slog.New(tint.NewHandler(colorable.NewColorable(f), &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(f.Fd()),
	}))
}

// SetLogger replaces the logger ShPrintf writes to.
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

func Logger() *slog.Logger {
	return logger.Load()
}

func (l LogLevel) slogLevel() slog.Level {
	switch {
	case l >= ERROR:
		return slog.LevelError
	case l >= WARN:
		return slog.LevelWarn
	case l >= INFO:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

func ShPrintf(logLevel LogLevel, fmtStl string, a ...interface{}) {
	if logLevel&LogLevelSetting > 0 {
		msg := strings.TrimRight(fmt.Sprintf(fmtStl, a...), "\n")
		Logger().Log(context.Background(), logLevel.slogLevel(), msg)
	}
}

// ShLog is the structured form of ShPrintf.
func ShLog(logLevel LogLevel, msg string, args ...any) {
	if logLevel&LogLevelSetting > 0 {
		Logger().Log(context.Background(), logLevel.slogLevel(), msg, args...)
	}
}

// ShTrace logs the time spent since start under CODEC_OP_DETAIL.
func ShTrace(op string, start time.Time, args ...any) {
	ShLog(CODEC_OP_DETAIL, op, append(args, "elapsed", time.Since(start))...)
}
