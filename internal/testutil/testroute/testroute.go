// Package testroute builds gin engines over the memory store for route tests.
package testroute

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chirino/media-tracker/internal/plugin/store/memory"
	"github.com/chirino/media-tracker/internal/security"
	"github.com/chirino/media-tracker/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

// Now is the fixed clock of route tests.
var Now = time.Date(2024, 3, 9, 10, 30, 0, 0, time.UTC)

// Env is a test engine and the services behind it.
type Env struct {
	Router   *gin.Engine
	Services *service.Services
}

// New returns an empty engine over a fresh memory store.
func New(t *testing.T) *Env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return &Env{
		Router:   gin.New(),
		Services: service.New(memory.New(), service.WithClock(func() time.Time { return Now })),
	}
}

// Auth trusts the bearer token as the caller's user id.
func Auth(c *gin.Context) {
	userID := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "error": "missing token"})
		return
	}
	c.Set(security.ContextKeyUserID, userID)
	c.Next()
}

// Do sends a JSON request as userID. A nil body sends no body.
func (e *Env) Do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+userID)
	}
	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

// Decode unmarshals the response body into a value of type T.
func Decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
