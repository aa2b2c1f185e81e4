package gfx

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// discard drops every record. Enabled reports false, so disabled calls cost
// a level check and nothing else.
type discard struct{}

func (discard) Enabled(context.Context, slog.Level) bool  { return false }
func (discard) Handle(context.Context, slog.Record) error { return nil }
func (discard) WithAttrs([]slog.Attr) slog.Handler        { return discard{} }
func (discard) WithGroup(string) slog.Handler             { return discard{} }

var (
	silent  = slog.New(discard{})
	current atomic.Pointer[slog.Logger]
)

func init() {
	current.Store(silent)
}

// SetLogger routes log output of gfx and its backends to l. Passing nil
// restores the default, which discards everything. SetLogger may be called
// while other goroutines are logging.
//
// Levels:
//   - [slog.LevelDebug]: resource creation and release
//   - [slog.LevelInfo]: factory lifecycle
//   - [slog.LevelWarn]: pipeline builds rejected by the linker or the device
//
// For example, to see every resource a factory creates:
//
//	gfx.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = silent
	}
	current.Store(l)
}

// Logger returns the logger installed by SetLogger.
func Logger() *slog.Logger {
	return current.Load()
}

// ComponentLogger returns Logger tagged with a component attribute. Backends
// use it so their records can be told apart from the core's.
func ComponentLogger(component string) *slog.Logger {
	l := current.Load()
	if l == silent {
		return l
	}
	return l.With(slog.String("component", component))
}
