package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"growthwatch/backend/services/growth-service/internal/session"
)

type contextKey string

const sessionIDKey contextKey = "sessionID"

// TokenIssuer is the part of session.Tokens the middleware needs.
type TokenIssuer interface {
	Issue(sessionID string) (string, error)
	Parse(token string) (*session.Claims, error)
	NeedsRefresh(claims *session.Claims) bool
	Cookie(token string, secure bool) *http.Cookie
}

// Session attaches a session id to every request, issuing a signed cookie when the request
// has none or its token does not validate. Tokens past half their lifetime are reissued for
// the same session id.
func Session(tokens TokenIssuer, secure bool, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie(session.CookieName); err == nil {
				if claims, err := tokens.Parse(c.Value); err == nil {
					if tokens.NeedsRefresh(claims) {
						if token, err := tokens.Issue(claims.SessionID); err == nil {
							http.SetCookie(w, tokens.Cookie(token, secure))
						} else {
							logger.Warn("refresh session token", zap.Error(err))
						}
					}
					next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), claims.SessionID)))
					return
				}
			}

			id := session.NewID()
			token, err := tokens.Issue(id)
			if err != nil {
				logger.Error("issue session token", zap.Error(err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, tokens.Cookie(token, secure))
			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), id)))
		})
	}
}

// WithSessionID stores id in ctx.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext retrieves the session id set by Session.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok && id != ""
}
