package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	CookieName = "sessionID"
	contextKey = "sessionID"

	cookieMaxAge = 14 * 24 * time.Hour
)

// Store is a server-side session value store keyed by session id. A missing
// value is reported as (nil, nil), not an error.
type Store interface {
	Get(ctx context.Context, sid, key string) ([]byte, error)
	Set(ctx context.Context, sid, key string, value []byte) error
	Delete(ctx context.Context, sid, key string) error
}

// Middleware guarantees every request carries a session cookie, minting one
// when absent, and exposes the id via ID(c).
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid := ""
			if cookie, err := c.Cookie(CookieName); err == nil && cookie.Value != "" {
				sid = cookie.Value
			} else {
				newSid, err := newSessionID()
				if err != nil {
					return echo.NewHTTPError(http.StatusInternalServerError, "failed to create session")
				}
				sid = newSid
				c.SetCookie(&http.Cookie{
					Name:     CookieName,
					Value:    sid,
					Path:     "/",
					Expires:  time.Now().Add(cookieMaxAge),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			c.Set(contextKey, sid)
			return next(c)
		}
	}
}

func ID(c echo.Context) string {
	if v, ok := c.Get(contextKey).(string); ok {
		return v
	}
	return ""
}

func newSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
