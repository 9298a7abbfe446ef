package observability

import (
	"time"

	"github.com/getsentry/sentry-go"
	"golang.org/x/exp/slog"
)

// InitSentry configures the global Sentry hub. An empty dsn leaves the
// client disabled, so captures become no-ops.
func InitSentry(dsn string, release string) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Release:          release,
		AttachStacktrace: true,
	})
	if err != nil {
		slog.Error("sentry.Init failed", "err", err)
		return
	}

	if dsn != "" {
		slog.Debug("sentry.Init succeeded", "dsn", dsn)
	} else {
		slog.Debug("sentry is disabled")
	}
}

func CaptureException(err error, tags map[string]string) {
	localHub := sentry.CurrentHub().Clone()
	localHub.ConfigureScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
	})
	localHub.CaptureException(err)
}

func CaptureMessage(msg string, tags map[string]string) {
	localHub := sentry.CurrentHub().Clone()
	localHub.ConfigureScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
	})
	localHub.CaptureMessage(msg)
}

func Flush() {
	sentry.Flush(2 * time.Second)
}

// Reraise reports a panic to Sentry before letting it continue.
func Reraise() {
	err := recover()

	if err != nil {
		sentry.CurrentHub().Clone().Recover(err)
		sentry.Flush(time.Second * 2)

		panic(err)
	}
}
