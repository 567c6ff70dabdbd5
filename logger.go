package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// EventLogger writes timestamped events to stdout and to the event log file.
// It is safe for concurrent use.
type EventLogger struct {
	filePath string
	zl       *zap.Logger
	file     *lumberjack.Logger
}

// NewEventLogger creates a logger writing JSON lines to stdout and filePath.
// The file is rotated once it reaches maxSizeMB and at most maxBackups old
// files are kept.  An empty filePath logs to stdout only.
func NewEventLogger(filePath string, maxSizeMB, maxBackups int) (*EventLogger, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000Z07:00")
	encCfg.MessageKey = "message"

	sinks := []zapcore.WriteSyncer{zapcore.Lock(os.Stdout)}
	el := &EventLogger{filePath: filePath}
	if filePath != "" {
		if maxSizeMB <= 0 {
			return nil, fmt.Errorf("log max size must be positive, got %d", maxSizeMB)
		}
		el.file = &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
		}
		sinks = append(sinks, zapcore.AddSync(el.file))
	}
	// No sampling: it would drop identical per-cycle lines.  No stack traces:
	// errors here are peripheral failures, not bugs.
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.NewMultiWriteSyncer(sinks...), zap.InfoLevel)
	el.zl = zap.New(core, zap.AddCaller(), zap.ErrorOutput(zapcore.Lock(os.Stderr)))
	return el, nil
}

// newEventLoggerWith wraps an existing zap logger.  Tests use it with an
// observer core.
func newEventLoggerWith(zl *zap.Logger) *EventLogger {
	return &EventLogger{zl: zl}
}

// FilePath returns the file events are appended to, if any.
func (el *EventLogger) FilePath() string { return el.filePath }

// Zap exposes the underlying structured logger.
func (el *EventLogger) Zap() *zap.Logger { return el.zl }

// Log writes a single free-form event.
func (el *EventLogger) Log(format string, args ...any) {
	el.zl.Info(fmt.Sprintf(format, args...))
}

// Error records a peripheral or delivery failure.  The caller carries on.
func (el *EventLogger) Error(msg string, err error, fields ...zap.Field) {
	el.zl.Error(msg, append(fields, zap.Error(err))...)
}

// Cycle writes the diagnostic line for one pass of the control loop.
func (el *EventLogger) Cycle(c Cycle) {
	el.zl.Info("cycle",
		zap.Int("reading", c.Reading),
		zap.Int("threshold", c.Threshold),
		zap.String("condition", string(c.Condition)),
		zap.Bool("notified", c.Notified),
	)
}

// Sync flushes buffered entries.
func (el *EventLogger) Sync() {
	_ = el.zl.Sync()
}

// Close flushes and closes the event log file.
func (el *EventLogger) Close() error {
	el.Sync()
	if el.file == nil {
		return nil
	}
	return el.file.Close()
}
