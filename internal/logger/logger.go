package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type AppLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) AppLogger
}

type appLogger struct {
	logger *slog.Logger
}

func NewAppLogger(logger *slog.Logger) AppLogger {
	return &appLogger{
		logger: logger,
	}
}

// Optionsは、NewHandlerに渡すログ出力設定です。
type Options struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// NewHandlerは、標準出力と(指定があれば)ローテーションされるログファイルに書き込むslog.Handlerを生成します。
func NewHandler(opts Options) slog.Handler {
	var w io.Writer = os.Stdout
	if opts.File != "" {
		w = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		})
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(opts.Level)})
}

// NewNopは、何も出力しないロガーを返します。テスト用です。
func NewNop() AppLogger {
	return NewAppLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *appLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

func (l *appLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

func (l *appLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

func (l *appLogger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

func (l *appLogger) With(args ...any) AppLogger {
	return &appLogger{logger: l.logger.With(args...)}
}
