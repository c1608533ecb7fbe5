package backend

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type claimsKey struct{}

func claimsFrom(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey{}).(*Claims)
	return claims
}

// requestLogger пишет строку в лог на каждый запрос.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			logger.Info("HTTP request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", wrapped.statusCode),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// responseWriter запоминает код ответа для лога.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// authenticate пропускает запрос только с действующим Bearer-токеном.
func authenticate(tokens *TokenIssuer, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeMessage(w, http.StatusUnauthorized, "Error: Not authenticated!")
				return
			}
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || scheme != "Bearer" || token == "" {
				logger.Debug("invalid authorization header")
				writeMessage(w, http.StatusUnauthorized, "Error: Not authenticated!")
				return
			}
			claims, err := tokens.Parse(token)
			if err != nil {
				logger.Debug("rejected token", zap.Error(err))
				writeMessage(w, http.StatusUnauthorized, "Error: Not authenticated!")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
		})
	}
}

// requireAdmin ставится после authenticate.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r.Context())
		if claims == nil || !claims.IsAdmin() {
			writeMessage(w, http.StatusForbidden, "Error: Access denied!")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allowed разрешает доступ к данным пользователя ему самому и администратору.
func allowed(r *http.Request, userID int64) bool {
	claims := claimsFrom(r.Context())
	return claims != nil && (claims.IsAdmin() || claims.UserID == userID)
}
