package server

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/brettbedarf/adaptergw"
	"github.com/brettbedarf/adaptergw/internal/util"
)

// requestContext tags the request with an ID and a request-scoped logger.
// A caller-supplied X-Request-ID is kept so hops can be correlated upstream.
func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(adaptergw.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(adaptergw.RequestIDHeader, id)

		logger := util.RequestLogger(id).With().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()

		ctx := adaptergw.WithRequestID(r.Context(), id)
		ctx = logger.WithContext(ctx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// recoverer turns a handler panic into an empty 500 and logs it with its stack
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger := util.LoggerFrom(r.Context(), "Server")
			logger.Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("Recovered from panic")
			w.WriteHeader(http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}

// observe logs and records the status and latency of every response
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(start)
		s.metrics.ObserveResponse(route, status, elapsed)

		logger := util.LoggerFrom(r.Context(), "Server")
		logger.Debug().
			Str("route", route).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", elapsed).
			Msg("Request served")
	})
}

// trackInFlight counts operation requests for /healthz and the in-flight gauge
func (s *Server) trackInFlight(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.inflight.Inc()
		defer s.inflight.Dec()
		done := s.metrics.TrackInFlight()
		defer done()

		next.ServeHTTP(w, r)
	})
}
