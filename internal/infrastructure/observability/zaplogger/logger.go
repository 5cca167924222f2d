// Package zaplogger implements observability.Logger on zap.
package zaplogger

import (
	"fmt"
	"time"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/observability"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/pkg/logging"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type logger struct{ l *zap.Logger }

// Logger is the zap-backed observability logger. Sync flushes buffered entries.
type Logger interface {
	observability.Logger
	Sync() error
}

// New builds the service logger from the shared zap configuration.
func New(opts logging.Options, fixed ...observability.Field) (Logger, error) {
	l, err := logging.NewLogger(opts)
	if err != nil {
		return nil, err
	}
	if len(fixed) > 0 {
		l = l.With(toZapFields(fixed)...)
	}
	return &logger{l: l}, nil
}

// Wrap adapts an existing zap logger.
func Wrap(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return &logger{l: l}
}

func (z *logger) With(fields ...observability.Field) observability.Logger {
	if len(fields) == 0 {
		return z
	}
	return &logger{l: z.l.With(toZapFields(fields)...)}
}

func (z *logger) Debug(msg string, fields ...observability.Field) {
	z.l.Debug(msg, toZapFields(fields)...)
}
func (z *logger) Info(msg string, fields ...observability.Field) {
	z.l.Info(msg, toZapFields(fields)...)
}
func (z *logger) Warn(msg string, fields ...observability.Field) {
	z.l.Warn(msg, toZapFields(fields)...)
}
func (z *logger) Error(msg string, fields ...observability.Field) {
	z.l.Error(msg, toZapFields(fields)...)
}

func (z *logger) Sync() error {
	return z.l.Sync()
}

// toZapFields keeps durations and errors typed. Money amounts are logged
// with two decimals and other Stringers as their string form.
func toZapFields(fs []observability.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fs))
	for _, f := range fs {
		switch v := f.Value.(type) {
		case error:
			out = append(out, zap.NamedError(f.Key, v))
		case time.Duration:
			out = append(out, zap.Duration(f.Key, v))
		case decimal.Decimal:
			out = append(out, zap.String(f.Key, v.StringFixed(2)))
		case fmt.Stringer:
			out = append(out, zap.Stringer(f.Key, v))
		default:
			out = append(out, zap.Any(f.Key, v))
		}
	}
	return out
}
