package observability

import (
	"context"

	"golang.org/x/exp/slog"
)

type Tags map[string]string

// HammerLogger is a slog logger that also reports errors to Sentry,
// tagged with the run it belongs to.
type HammerLogger struct {
	*slog.Logger
	tags Tags
}

func NewHammerLogger(logger *slog.Logger, tags Tags) *HammerLogger {
	if tags == nil {
		tags = make(Tags)
	}
	args := make([]any, 0, len(tags)*2)
	for k, v := range tags {
		args = append(args, k, v)
	}
	return &HammerLogger{Logger: logger.With(args...), tags: tags}
}

func (hl *HammerLogger) With(args ...any) *HammerLogger {
	return &HammerLogger{Logger: hl.Logger.With(args...), tags: hl.tags}
}

func (hl *HammerLogger) WithGroup(name string) *HammerLogger {
	return &HammerLogger{Logger: hl.Logger.WithGroup(name), tags: hl.tags}
}

func (hl *HammerLogger) Tags() Tags {
	return hl.tags
}

// CaptureError logs err at error level and sends it to Sentry together with
// the run tags and any string attributes in args.
func (hl *HammerLogger) CaptureError(msg string, err error, args ...any) {
	hl.CaptureErrorContext(context.Background(), msg, err, args...)
}

func (hl *HammerLogger) CaptureErrorContext(ctx context.Context, msg string, err error, args ...any) {
	hl.Logger.ErrorCtx(ctx, msg, append(args, "err", err)...)
	if err != nil {
		CaptureException(err, hl.mergeTags(args...))
	}
}

// CaptureWarn logs at warn level and sends msg to Sentry as a message.
func (hl *HammerLogger) CaptureWarn(msg string, args ...any) {
	hl.Logger.Warn(msg, args...)
	CaptureMessage(msg, hl.mergeTags(args...))
}

func (hl *HammerLogger) mergeTags(args ...any) map[string]string {
	tags := tagsFromArgs(args...)
	for k, v := range hl.tags {
		tags[k] = v
	}
	return tags
}

func tagsFromArgs(args ...any) map[string]string {
	tags := make(map[string]string)
	for len(args) > 0 {
		switch x := args[0].(type) {
		case slog.Attr:
			tags[x.Key] = x.Value.String()
			args = args[1:]
		case string:
			if len(args) < 2 {
				return tags
			}
			// errors are reported as the exception itself
			if x == "err" || x == "error" {
				args = args[2:]
				continue
			}
			attr := slog.Any(x, args[1])
			tags[attr.Key] = limitLength(attr.Value.String())
			args = args[2:]
		default:
			args = args[1:]
		}
	}
	return tags
}

// sentry has a limit of 200 characters for tag values
func limitLength(s string) string {
	maxLen := 197
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
