package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName carries the signed session token.
const CookieName = "growth_session"

// Claims is the session token payload.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Tokens issues and validates HS256 session tokens.
type Tokens struct {
	secret    []byte
	expiresIn time.Duration
}

// NewTokens returns a token signer; expiresIn defaults to one hour.
func NewTokens(secret string, expiresIn time.Duration) *Tokens {
	if expiresIn <= 0 {
		expiresIn = time.Hour
	}
	return &Tokens{secret: []byte(secret), expiresIn: expiresIn}
}

// NewID returns a fresh random session id.
func NewID() string { return uuid.NewString() }

// Issue signs a token for sessionID.
func (t *Tokens) Issue(sessionID string) (string, error) {
	if sessionID == "" {
		return "", errors.New("token: session id is required")
	}
	now := time.Now().UTC()
	claims := Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiresIn)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Validate verifies the signature and expiry and returns the session id.
func (t *Tokens) Validate(tokenString string) (string, error) {
	claims, err := t.Parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.SessionID, nil
}

// Parse verifies the token and returns its claims. The session id must be a uuid.
func (t *Tokens) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("token: unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, errors.New("token: invalid claims")
	}
	if _, err := uuid.Parse(claims.SessionID); err != nil {
		return nil, errors.New("token: malformed session id")
	}
	return claims, nil
}

// NeedsRefresh reports whether a valid token is past half its lifetime and should be
// reissued, so an active session outlives the first token.
func (t *Tokens) NeedsRefresh(claims *Claims) bool {
	if claims == nil || claims.IssuedAt == nil {
		return true
	}
	return time.Since(claims.IssuedAt.Time) > t.expiresIn/2
}

// Cookie wraps a signed token for the response.
func (t *Tokens) Cookie(token string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(t.expiresIn / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ExpiredCookie clears the session cookie.
func ExpiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
