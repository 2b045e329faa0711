package logger

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ctxKey string

const RequestIDKey ctxKey = "requestId"

// Операции дольше этого Track пишет как предупреждение.
const slowThreshold = 2 * time.Second

func init() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
}

// SetLevel accepts logrus level names ("debug", "INFO", ...). Unknown names keep the current level.
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		logrus.WithField("level", level).Warn("unknown log level, keeping " + logrus.GetLevel().String())
		return
	}
	logrus.SetLevel(lvl)
}

// For — запись лога с id запроса из ctx (если он там есть).
func For(ctx context.Context) *logrus.Entry {
	if ctx == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	id, ok := ctx.Value(RequestIDKey).(string)
	if !ok {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return logrus.WithField("request_id", id)
}

func ContextWithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// WithNewID кладёт в ctx новый случайный id, если там ещё нет своего.
func WithNewID(ctx context.Context) context.Context {
	if _, ok := ctx.Value(RequestIDKey).(string); ok {
		return ctx
	}
	return ContextWithID(ctx, uuid.NewString())
}

// Track logs msg with the elapsed time when the returned func is called.
func Track(ctx context.Context, msg string) func() {
	start := time.Now()
	return func() {
		dur := time.Since(start)
		entry := For(ctx).WithField("duration", dur.String())

		if dur > slowThreshold {
			entry.Warnf("%s completed (SLOW)", msg)
		} else {
			entry.Debugf("%s completed", msg)
		}
	}
}
