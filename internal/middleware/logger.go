package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RequestLogger logs one line per request on the ops server.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			event := log.Info()
			if ww.Status() >= http.StatusInternalServerError {
				event = log.Error()
			} else if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
				event = log.Debug()
			}
			logRequest(event, r, ww, start)
		}()

		next.ServeHTTP(ww, r)
	})
}

func logRequest(event *zerolog.Event, r *http.Request, ww chimiddleware.WrapResponseWriter, start time.Time) {
	event.
		Str("requestId", chimiddleware.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", ww.Status()).
		Int("bytes", ww.BytesWritten()).
		Dur("duration", time.Since(start)).
		Msg("request")
}
