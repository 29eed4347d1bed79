package security

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chirino/media-tracker/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolver(mode string) *TokenResolver {
	cfg := config.DefaultConfig()
	cfg.Mode = mode
	cfg.APIKeys = map[string]string{"k-123": "alice"}
	return NewTokenResolver(&cfg)
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	id, err := resolver(config.ModeProd).Resolve(ctx, "", "k-123", "")
	require.NoError(t, err)
	assert.Equal(t, "alice", id.UserID)

	_, err = resolver(config.ModeProd).Resolve(ctx, "", "wrong", "")
	assert.ErrorIs(t, err, errInvalidAPIKey)

	_, err = resolver(config.ModeProd).Resolve(ctx, "bob", "", "bob")
	assert.ErrorIs(t, err, errUnresolvedIdentity)

	id, err = resolver(config.ModeTesting).Resolve(ctx, "bob", "", "")
	require.NoError(t, err)
	assert.Equal(t, "bob", id.UserID)

	id, err = resolver(config.ModeTesting).Resolve(ctx, "bob", "", "carol")
	require.NoError(t, err)
	assert.Equal(t, "carol", id.UserID)
}

func TestTokenClaimsIdentity(t *testing.T) {
	id, err := tokenClaims{Sub: "8f1c", UPN: "jdoe@example.com", Name: "J. Doe"}.identity()
	require.NoError(t, err)
	assert.Equal(t, "jdoe@example.com", id.UserID)
	assert.Equal(t, "J. Doe", id.DisplayName)

	id, err = tokenClaims{Sub: "8f1c"}.identity()
	require.NoError(t, err)
	assert.Equal(t, "8f1c", id.DisplayName)

	_, err = tokenClaims{}.identity()
	assert.ErrorIs(t, err, errMissingIdentity)
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/v1/categories", AuthMiddleware(resolver(config.ModeTesting)), func(c *gin.Context) {
		c.String(http.StatusOK, GetUserID(c))
	})

	call := func(authorization string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/categories", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := call("Bearer alice")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, call("Basic YWxpY2U6").Code)
	w = call("")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"unauthorized"`)
}
