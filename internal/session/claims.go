package session

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims: поля токена для отображения. Подпись не проверяется.
type TokenClaims struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
}

// Expired сообщает, истёк ли срок токена относительно now. Токен без срока не истекает.
func (c TokenClaims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Claims разбирает сохранённый токен без проверки подписи.
// Непрозрачный токен (не JWT) даёт ok=false.
func (s *Store) Claims(ctx context.Context) (TokenClaims, bool) {
	token := s.Token(ctx)
	if token == "" {
		return TokenClaims{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		s.logger.Debugf("session: token is not a JWT: %v", err)
		return TokenClaims{}, false
	}
	out := TokenClaims{}
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if role, ok := claims["role"].(string); ok {
		out.Role = role
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, true
}
