package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/okravets/coffeehouse/internal/config"
	"github.com/okravets/coffeehouse/internal/service/token"
	"github.com/okravets/coffeehouse/internal/session"
)

const testSessionID = "test-session"

func InitTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func doJSONRequest(t *testing.T, e *echo.Echo, method, target string, payload any, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(session.CookieName, testSessionID)
	return rec, c
}

func signTestAccessToken(t *testing.T, userID uint, role string, secret []byte) string {
	t.Helper()
	signed, err := token.SignAccessToken(userID, role, secret)
	require.NoError(t, err)
	return signed
}
