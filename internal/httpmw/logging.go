package httpmw

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/udlcore/udl/internal/obslog"
)

// statusRecorder captures the status code a handler wrote, since
// http.ResponseWriter doesn't expose it after the fact.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLog wraps next with structured request logging: method, path,
// status, and duration on every request, at Info for 2xx/3xx and Warn for
// 4xx/5xx (spec's ambient observability layer — ungrounded in spec.md
// itself but implied by obslog's unused-until-now status/duration field
// constants).
func RequestLog(logger *zap.SugaredLogger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next(rec, r)
		elapsed := time.Since(start)

		fields := []interface{}{
			obslog.FieldMethod, r.Method,
			obslog.FieldPath, r.URL.Path,
			obslog.FieldStatus, rec.status,
			obslog.FieldDurationMS, elapsed.Milliseconds(),
		}
		if rec.status >= 400 {
			logger.Warnw("http request", fields...)
		} else {
			logger.Infow("http request", fields...)
		}
	}
}
