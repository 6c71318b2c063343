package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/repairhq/fieldservice/internal/domain/model"
)

var (
	errMissingActor = errors.New("actor headers are required for this operation")
	errInvalidActor = errors.New("actor role or id is invalid")
	errAdminOnly    = errors.New("back-office role required")
)

// Header names used to identify the caller. The surrounding deployment
// terminates authentication and forwards the verified identity in these
// headers.
const (
	HeaderActorRole = "X-Actor-Role"
	HeaderActorID   = "X-Actor-Id"
)

type contextKey string

const actorContextKey contextKey = "actor"

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// WithActor extracts the caller identity headers into a model.Actor and
// stores it on the request context. Requests without the headers pass
// through with no actor; mutating handlers reject those via RequireActor.
func WithActor() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := model.Role(r.Header.Get(HeaderActorRole))
			id := r.Header.Get(HeaderActorID)
			if role != "" || id != "" {
				actor := model.Actor{Role: role, ID: id}
				r = r.WithContext(context.WithValue(r.Context(), actorContextKey, actor))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ActorFromContext returns the actor attached by WithActor, if any.
func ActorFromContext(ctx context.Context) (model.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(model.Actor)
	return actor, ok
}

// RequireActor resolves the request actor or writes an error response.
// Returns false when the response has already been written.
func RequireActor(w http.ResponseWriter, r *http.Request) (model.Actor, bool) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "actor_required",
			Err:     errMissingActor,
		})
		return model.Actor{}, false
	}
	if !actor.Role.Valid() || actor.ID == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "invalid_actor",
			Err:     errInvalidActor,
		})
		return model.Actor{}, false
	}
	return actor, true
}
