package obs

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/boulangerie-api/internal/common"
)

// LogConfig selects the output format, minimum level and static fields of a logger.
type LogConfig struct {
	Format    string
	Level     string
	Component string
	Env       string
	Output    io.Writer
}

// NewLogger builds the process logger. Format "console" (or "text") renders
// human readable lines, anything else emits JSON.
func NewLogger(cfg LogConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "console", "text":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	ctx := zerolog.New(out).Level(lvl).With().Timestamp()
	if cfg.Component != "" {
		ctx = ctx.Str("component", cfg.Component)
	}
	if cfg.Env != "" {
		ctx = ctx.Str("env", cfg.Env)
	}
	return ctx.Logger()
}

// RequestLogger writes one http_request entry per request. Server errors log
// at error level, client errors at warn.
type RequestLogger struct {
	Logger    zerolog.Logger
	SkipPaths []string
}

func (l RequestLogger) skip(path string) bool {
	for _, p := range l.SkipPaths {
		if p == path {
			return true
		}
	}
	return false
}

// Middleware implements chi middleware for structured request logs.
func (l RequestLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.skip(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		recorder := NewStatusRecorder(w)
		start := time.Now()
		next.ServeHTTP(recorder, r)

		status := recorder.Status()
		var evt *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			evt = l.Logger.Error()
		case status >= http.StatusBadRequest:
			evt = l.Logger.Warn()
		default:
			evt = l.Logger.Info()
		}
		evt = evt.
			Str("method", r.Method).
			Str("route", routeOf(r, r.URL.Path)).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Int64("bytes", recorder.BytesWritten()).
			Str("request_id", middleware.GetReqID(r.Context()))
		if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
			evt = evt.Str("trace_id", sc.TraceID().String()).Str("span_id", sc.SpanID().String())
		}
		if sid := sessionFromRequest(r); sid != "" {
			evt = evt.Str("session_id", sid)
		}
		if ip := common.ClientIP(r); ip != "" {
			evt = evt.Str("client_ip", ip)
		}
		evt.Msg("http_request")
	})
}

// sessionFromRequest reads the cart session from the context, falling back to
// the sessionId route parameter resolved by chi during dispatch.
func sessionFromRequest(r *http.Request) string {
	if id, ok := common.SessionID(r.Context()); ok {
		return id
	}
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return strings.TrimSpace(rctx.URLParam("sessionId"))
	}
	return ""
}
