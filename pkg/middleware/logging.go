package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/iota-uz/legaldesk/pkg/composables"
	"github.com/iota-uz/legaldesk/pkg/configuration"
	"github.com/iota-uz/legaldesk/pkg/constants"
	"github.com/iota-uz/legaldesk/pkg/httpapi"
)

type LoggerOptions struct {
	LogRequestBody  bool
	LogResponseBody bool
	// MaxBodyLength caps logged bodies; zero means no cap.
	MaxBodyLength int
	Repanic       bool
}

func NewLoggerOptions(logRequestBody bool, logResponseBody bool, maxBodyLength int) LoggerOptions {
	return LoggerOptions{
		LogRequestBody:  logRequestBody,
		LogResponseBody: logResponseBody,
		MaxBodyLength:   maxBodyLength,
	}
}

// DefaultLoggerOptions logs JSON request bodies only. Responses carry whole
// batches and are left out.
func DefaultLoggerOptions() LoggerOptions {
	return NewLoggerOptions(true, false, 512)
}

type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
	body    *bytes.Buffer
}

func (w *statusRecorder) WriteHeader(code int) {
	if w.written {
		return
	}
	w.status = code
	w.written = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(http.StatusOK)
	}
	if w.body != nil {
		w.body.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusRecorder) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func requestID(r *http.Request, conf *configuration.Configuration) string {
	if id := strings.TrimSpace(r.Header.Get(conf.RequestIDHeader)); id != "" {
		return id
	}
	return uuid.New().String()
}

func truncateBody(body string, limit int) string {
	if limit <= 0 || len(body) <= limit {
		return body
	}
	return body[:limit] + "...(truncated)"
}

func isJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "application/json")
}

// jsonBody reads and restores a JSON request body. Uploads and other
// content types are never read.
func jsonBody(r *http.Request, limit int) (string, bool) {
	if r.Body == nil || !isJSON(r.Header.Get("Content-Type")) {
		return "", false
	}
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return "", false
	}
	data, err := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(data))
	if err != nil || len(data) == 0 {
		return "", false
	}
	var compact bytes.Buffer
	if json.Compact(&compact, data) != nil {
		return truncateBody(string(data), limit), true
	}
	return truncateBody(compact.String(), limit), true
}

func levelFor(status int) logrus.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return logrus.ErrorLevel
	case status >= http.StatusBadRequest:
		return logrus.WarnLevel
	default:
		return logrus.InfoLevel
	}
}

// WithLogger attaches a request-scoped logrus entry and a tracing span to
// every request, logs one line per completed request, and turns handler
// panics into a JSON 500.
func WithLogger(logger *logrus.Logger, conf *configuration.Configuration, opts LoggerOptions) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := requestID(r, conf)
			ip, _ := realIP(r, conf.RealIPHeader)

			entry := logger.WithFields(logrus.Fields{
				"request-id": id,
				"method":     r.Method,
				"path":       r.URL.Path,
			})
			if user := strings.TrimSpace(r.Header.Get(conf.UserIDHeader)); user != "" {
				entry = entry.WithField("user-id", user)
			}

			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, "http.request",
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.route", r.URL.Path),
					attribute.String("http.request_id", id),
					attribute.String("net.peer.ip", ip),
				),
			)
			defer span.End()
			if sc := span.SpanContext(); sc.HasTraceID() {
				w.Header().Set("X-Trace-Id", sc.TraceID().String())
				entry = entry.WithField("trace-id", sc.TraceID().String())
			}
			w.Header().Set("X-Request-Id", id)

			ctx = composables.WithLogger(ctx, entry)
			ctx = context.WithValue(ctx, constants.RequestStart, start)

			rec := &statusRecorder{ResponseWriter: w}
			if opts.LogResponseBody {
				rec.body = &bytes.Buffer{}
			}

			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				entry.WithFields(logrus.Fields{
					"panic":    recovered,
					"stack":    string(debug.Stack()),
					"ip":       ip,
					"duration": time.Since(start),
				}).Error("panic recovered in request handler")
				if !rec.written {
					_ = httpapi.WriteError(rec, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal server error", map[string]string{
						"request_id": id,
						"path":       r.URL.Path,
					})
				}
				if opts.Repanic {
					panic(recovered)
				}
			}()

			fields := logrus.Fields{"ip": ip, "user-agent": r.UserAgent()}
			if opts.LogRequestBody {
				if body, ok := jsonBody(r, opts.MaxBodyLength); ok {
					fields["request-body"] = body
				}
			}

			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.Status()
			duration := time.Since(start)
			span.SetAttributes(
				attribute.Int("http.status_code", status),
				attribute.Int64("http.request_duration_ms", duration.Milliseconds()),
			)
			fields["status-code"] = status
			fields["duration"] = duration
			if rec.body != nil && isJSON(rec.Header().Get("Content-Type")) {
				fields["response-body"] = truncateBody(rec.body.String(), opts.MaxBodyLength)
			}
			entry.WithFields(fields).Log(levelFor(status), "request completed")
		})
	}
}
