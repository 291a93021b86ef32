package router

import (
	"io"

	"github.com/rs/zerolog"
)

// NewDiscardLogger returns a logger that drops everything, mirroring the
// teacher's defaultOptions() default of a discarding *slog.Logger — the
// router never forces a caller to see its internal tracing.
func NewDiscardLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// filterEvent starts a structured log event scoped to one filter, the
// granularity at which the original router's tracing (`tracing::trace!`
// calls in the source this was distilled from) is emitted.
func filterEvent(log zerolog.Logger, level zerolog.Level, filter Filter, idx FilterIdx) *zerolog.Event {
	return log.WithLevel(level).Str("filter", string(filter)).Int("filter_idx", int(idx))
}
