package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/peopledesk/peopledesk/pkg/composables"
	"github.com/peopledesk/peopledesk/pkg/configuration"
	"github.com/peopledesk/peopledesk/pkg/constants"
)

// Provide injects a value into every request context under the given key.
func Provide(key constants.ContextKey, value any) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), key, value)))
		})
	}
}

func WithPool(pool *pgxpool.Pool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(composables.WithPool(r.Context(), pool)))
		})
	}
}

// RequestID resolves the inbound request id header, minting a uuidv4 when the
// caller did not send one, and stores it in the request context.
func RequestID() mux.MiddlewareFunc {
	conf := configuration.Use()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(conf.RequestIDHeader))
			if id == "" {
				id = uuid.NewString()
				r.Header.Set(conf.RequestIDHeader, id)
			}
			next.ServeHTTP(w, r.WithContext(composables.WithRequestID(r.Context(), id)))
		})
	}
}

// ProvideActor reads the employee id header set by the upstream identity tier.
// A missing or malformed header leaves the context without an actor; handlers
// that require one reject the request themselves.
func ProvideActor() mux.MiddlewareFunc {
	conf := configuration.Use()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(conf.EmployeeIDHeader))
			if raw != "" {
				if id, err := uuid.Parse(raw); err == nil {
					r = r.WithContext(composables.WithActorID(r.Context(), id))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// WithLogger attaches a request-scoped logrus entry to the context and logs
// one line per completed request.
func WithLogger(logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			entry := logger.WithFields(logrus.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
			})
			if id := composables.UseRequestID(r.Context()); id != "" {
				entry = entry.WithField("request_id", id)
			}

			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r.WithContext(composables.WithLogger(r.Context(), entry)))

			entry.WithFields(logrus.Fields{
				"status":   sw.Status(),
				"duration": time.Since(start).String(),
			}).Info("request completed")
		})
	}
}

func Cors(allowedOrigins ...string) mux.MiddlewareFunc {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return c.Handler
}
