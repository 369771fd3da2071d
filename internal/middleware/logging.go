package middleware

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// requestUser is attached to the context before the handler chain runs so
// AuthMiddleware can report who made the request back to the logger.
type requestUser struct {
	id int64
}

const requestUserKey contextKey = "request_user"

// LoggingMiddleware logs one line per request. 5xx responses log at error,
// 4xx at warn, the rest at info.
func LoggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := requestID(r)
			w.Header().Set(requestIDHeader, id)

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			user := &requestUser{}
			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), requestUserKey, user)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("request_id", id),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", status),
				zap.Int("size", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
			}
			if user.id != 0 {
				fields = append(fields, zap.Int64("user_id", user.id))
			}

			log := logger.Info
			if status >= http.StatusInternalServerError {
				log = logger.Error
			} else if status >= http.StatusBadRequest {
				log = logger.Warn
			}
			log("http request", fields...)
		})
	}
}

// requestID prefers chi's id, then the caller's header, then a fresh uuid
func requestID(r *http.Request) string {
	if id := chimiddleware.GetReqID(r.Context()); id != "" {
		return id
	}
	if id := r.Header.Get(requestIDHeader); id != "" {
		return id
	}
	return uuid.NewString()
}

// RecoveryMiddleware turns a handler panic into a 500
func RecoveryMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.ByteString("stack", debug.Stack()),
				)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
