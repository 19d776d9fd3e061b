// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"io"
	"log/slog"

	ethlog "github.com/ethereum/go-ethereum/log"
)

// Logger is the leveled key/value logger used by all node packages.
type Logger interface {
	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	New(ctx ...any) Logger
}

// contextLogger resolves the root logger on every call, so package level
// loggers created at init time follow handlers installed later by main.
type contextLogger struct {
	ctx []any
}

// WithContext returns a logger that prepends ctx to every record.
func WithContext(ctx ...any) Logger {
	return &contextLogger{ctx: ctx}
}

func (l *contextLogger) merge(ctx []any) []any {
	if len(l.ctx) == 0 {
		return ctx
	}
	merged := make([]any, 0, len(l.ctx)+len(ctx))
	merged = append(merged, l.ctx...)
	return append(merged, ctx...)
}

func (l *contextLogger) Trace(msg string, ctx ...any) { ethlog.Root().Trace(msg, l.merge(ctx)...) }
func (l *contextLogger) Debug(msg string, ctx ...any) { ethlog.Root().Debug(msg, l.merge(ctx)...) }
func (l *contextLogger) Info(msg string, ctx ...any)  { ethlog.Root().Info(msg, l.merge(ctx)...) }
func (l *contextLogger) Warn(msg string, ctx ...any)  { ethlog.Root().Warn(msg, l.merge(ctx)...) }
func (l *contextLogger) Error(msg string, ctx ...any) { ethlog.Root().Error(msg, l.merge(ctx)...) }

func (l *contextLogger) New(ctx ...any) Logger {
	return &contextLogger{ctx: l.merge(ctx)}
}

// NewHandler creates the record handler for the given verbosity.
// Verbosity follows the legacy scale: 0 crit, 1 error, 2 warn, 3 info, 4 debug, 5 trace.
func NewHandler(w io.Writer, verbosity int, json bool, color bool) slog.Handler {
	lvl := ethlog.FromLegacyLevel(verbosity)
	if json {
		return ethlog.JSONHandlerWithLevel(w, lvl)
	}
	return ethlog.NewTerminalHandlerWithLevel(w, lvl, color)
}

// SetDefault installs h as the handler of the root logger.
func SetDefault(h slog.Handler) {
	ethlog.SetDefault(ethlog.NewLogger(h))
}

// Discard silences the root logger.
func Discard() {
	SetDefault(ethlog.DiscardHandler())
}
