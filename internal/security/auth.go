package security

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/chirino/media-tracker/internal/config"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
)

const (
	// ContextKeyUserID is the gin context key for the authenticated user ID.
	ContextKeyUserID = "userID"
	// ContextKeyUserName is the gin context key for the user's display name.
	ContextKeyUserName = "userName"
)

// Identity holds the resolved caller identity.
type Identity struct {
	UserID      string
	DisplayName string
}

// TokenResolver resolves request credentials to caller identities. It is
// initialized once at startup and shared by every route.
type TokenResolver struct {
	verifier    *oidc.IDTokenVerifier
	apiKeys     map[string]string
	testingMode bool
}

// NewTokenResolver creates a TokenResolver from cfg. When an OIDC issuer is
// configured its discovery document is fetched once here; a failed discovery
// leaves only API keys (and testing mode) available.
func NewTokenResolver(cfg *config.Config) *TokenResolver {
	r := &TokenResolver{
		apiKeys:     cfg.APIKeys,
		testingMode: cfg.Mode == config.ModeTesting,
	}
	if cfg.OIDCIssuer == "" {
		return r
	}
	verifier, err := newVerifier(context.Background(), cfg.OIDCIssuer, cfg.OIDCDiscoveryURL, cfg.OIDCClientID)
	if err != nil {
		log.Error("OIDC discovery failed; bearer JWTs will be rejected", "issuer", cfg.OIDCIssuer, "err", err)
		return r
	}
	log.Info("OIDC auth enabled", "issuer", cfg.OIDCIssuer)
	r.verifier = verifier
	return r
}

// newVerifier discovers issuer. A discoveryURL differing from issuer is
// fetched instead, and tokens are still checked against issuer.
func newVerifier(ctx context.Context, issuer, discoveryURL, clientID string) (*oidc.IDTokenVerifier, error) {
	oidcConfig := &oidc.Config{ClientID: clientID, SkipClientIDCheck: clientID == ""}
	if discoveryURL == "" || discoveryURL == issuer {
		provider, err := oidc.NewProvider(ctx, issuer)
		if err != nil {
			return nil, err
		}
		return provider.Verifier(oidcConfig), nil
	}

	provider, err := oidc.NewProvider(oidc.InsecureIssuerURLContext(ctx, issuer), discoveryURL)
	if err != nil {
		return nil, err
	}
	var doc struct {
		JWKSURI string `json:"jwks_uri"`
	}
	if err := provider.Claims(&doc); err != nil || doc.JWKSURI == "" {
		return provider.Verifier(oidcConfig), nil
	}
	return oidc.NewVerifier(issuer, oidc.NewRemoteKeySet(ctx, doc.JWKSURI), oidcConfig), nil
}

// tokenClaims are the ID token claims a caller is identified by.
type tokenClaims struct {
	Sub               string `json:"sub"`
	PreferredUsername string `json:"preferred_username"`
	UPN               string `json:"upn"`
	Name              string `json:"name"`
}

// identity picks preferred_username, then upn, then sub as the user id.
func (c tokenClaims) identity() (*Identity, error) {
	userID := firstNonBlank(c.PreferredUsername, c.UPN, c.Sub)
	if userID == "" {
		return nil, errMissingIdentity
	}
	return &Identity{UserID: userID, DisplayName: firstNonBlank(c.Name, userID)}, nil
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

var (
	errInvalidJWT         = errors.New("invalid JWT")
	errMissingIdentity    = errors.New("JWT missing identity claims")
	errInvalidAPIKey      = errors.New("invalid API key")
	errUnresolvedIdentity = errors.New("no credentials identify the caller")
)

// Resolve resolves a request's credentials into a caller Identity.
// bearerToken is the raw token value (without the "Bearer " prefix).
// apiKey is the value of the X-API-Key header (may be empty).
// userHeader is the value of the X-User-ID header; it is only trusted in testing mode.
func (r *TokenResolver) Resolve(ctx context.Context, bearerToken, apiKey, userHeader string) (*Identity, error) {
	if key := strings.TrimSpace(apiKey); key != "" {
		userID, ok := r.apiKeys[key]
		if !ok {
			log.Warn("Received invalid API key")
			return nil, errInvalidAPIKey
		}
		return &Identity{UserID: userID, DisplayName: userID}, nil
	}

	if r.verifier != nil && strings.Count(bearerToken, ".") >= 2 {
		idToken, err := r.verifier.Verify(ctx, bearerToken)
		if err != nil {
			return nil, errors.Join(errInvalidJWT, err)
		}

		var claims tokenClaims
		if err := idToken.Claims(&claims); err != nil {
			return nil, errors.Join(errInvalidJWT, err)
		}
		return claims.identity()
	}

	if r.testingMode {
		if hdr := strings.TrimSpace(userHeader); hdr != "" {
			return &Identity{UserID: hdr, DisplayName: hdr}, nil
		}
		// Without OIDC the bearer token is the user id.
		if token := strings.TrimSpace(bearerToken); token != "" {
			return &Identity{UserID: token, DisplayName: token}, nil
		}
	}
	return nil, errUnresolvedIdentity
}

// --- Gin HTTP middleware ---

// GetUserID returns the authenticated user ID from the gin context.
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextKeyUserID)
}

// GetUserName returns the authenticated user's display name from the gin context.
func GetUserName(c *gin.Context) string {
	return c.GetString(ContextKeyUserName)
}

// AuthMiddleware returns a gin middleware that resolves the caller from the
// Authorization, X-API-Key and (testing mode) X-User-ID headers.
func AuthMiddleware(resolver *TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if auth != "" && token == auth {
			log.Info("Auth rejected: invalid Authorization header; expected Bearer token", "method", c.Request.Method, "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "error": "invalid Authorization header; expected Bearer token"})
			return
		}

		id, err := resolver.Resolve(
			c.Request.Context(),
			token,
			c.GetHeader("X-API-Key"),
			c.GetHeader("X-User-ID"),
		)
		if err != nil {
			log.Info("Auth rejected", "method", c.Request.Method, "path", c.Request.URL.Path, "err", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "error": err.Error()})
			return
		}

		c.Set(ContextKeyUserID, id.UserID)
		c.Set(ContextKeyUserName, id.DisplayName)
		c.Next()
	}
}
