// Package telemetry provides the structured logging and metrics surface
// shared by every collaborator package. The core package neither imports
// this package nor takes a Logger; it reports through status events on its
// event bus instead.
package telemetry

import (
	"context"

	"go.uber.org/zap"
)

// Logger is the minimal structured-logging surface every component needs.
// kv is an alternating key/value list, following the teacher's convention.
type Logger interface {
	Debug(ctx context.Context, msg string, kv ...any)
	Info(ctx context.Context, msg string, kv ...any)
	Warn(ctx context.Context, msg string, kv ...any)
	Error(ctx context.Context, msg string, kv ...any)
}

// Noop discards everything. Used as the default when a caller passes a nil
// Logger, so components never need a nil check before logging.
type Noop struct{}

func (Noop) Debug(context.Context, string, ...any) {}
func (Noop) Info(context.Context, string, ...any)  {}
func (Noop) Warn(context.Context, string, ...any)  {}
func (Noop) Error(context.Context, string, ...any) {}

// Zap adapts a *zap.SugaredLogger to the Logger interface.
type Zap struct {
	sugar *zap.SugaredLogger
}

// NewZap builds a production zap logger (JSON encoding, epoch timestamps)
// and wraps it. Callers own the returned logger's lifecycle; call Sync
// before process exit.
func NewZap() (*Zap, error) {
	cfg := zap.NewProductionConfig()
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Zap{sugar: l.Sugar()}, nil
}

// Sync flushes any buffered log entries.
func (z *Zap) Sync() error {
	return z.sugar.Sync()
}

func (z *Zap) Debug(_ context.Context, msg string, kv ...any) { z.sugar.Debugw(msg, kv...) }
func (z *Zap) Info(_ context.Context, msg string, kv ...any)  { z.sugar.Infow(msg, kv...) }
func (z *Zap) Warn(_ context.Context, msg string, kv ...any)  { z.sugar.Warnw(msg, kv...) }
func (z *Zap) Error(_ context.Context, msg string, kv ...any) { z.sugar.Errorw(msg, kv...) }
