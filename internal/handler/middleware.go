package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"account-service/internal/token"
	"account-service/internal/util"
)

type contextKey string

const userIDContextKey contextKey = "user_id"

// ContextIdentity resolves the acting principal from the request context
// populated by the bearer-token middleware.
type ContextIdentity struct{}

func (ContextIdentity) CurrentUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	return userID, ok && userID != ""
}

// BearerTokenMiddleware validates the Authorization header and stores the
// subject in the request context. Requests without a valid token pass
// through unauthenticated; the service layer decides what requires identity.
func BearerTokenMiddleware(tokens *token.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if strings.HasPrefix(header, "Bearer ") {
				userID, err := tokens.Validate(strings.TrimPrefix(header, "Bearer "))
				if err == nil {
					ctx := context.WithValue(r.Context(), userIDContextKey, userID)
					r = r.WithContext(ctx)
				} else {
					util.Debug("rejected bearer token", zap.Error(err))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoggerMiddleware logs every HTTP request with its outcome.
func LoggerMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				logger.Info("HTTP request",
					util.String("method", r.Method),
					util.String("path", r.URL.Path),
					util.String("remote_addr", r.RemoteAddr),
					util.Int("status", ww.Status()),
					util.Duration("duration", time.Since(start)),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
