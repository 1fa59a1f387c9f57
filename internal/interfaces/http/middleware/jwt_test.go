package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/genlab/backend/internal/infrastructure/auth"
	"github.com/genlab/backend/internal/infrastructure/config"
	"github.com/genlab/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService(expiration time.Duration) *auth.JWTService {
	return auth.NewJWTService(
		config.JWTConfig{
			Secret:                "test-secret-key-at-least-32-chars",
			AccessTokenExpiration: expiration,
			Issuer:                "test-issuer",
		},
		config.AuthConfig{ElevatedRoles: []string{"admin", "veterinarian"}},
	)
}

func newJWTRouter(cfg JWTMiddlewareConfig) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), JWTAuth(cfg))
	router.GET("/api/v1/inputs", func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"user_id":  GetJWTUserID(c),
			"elevated": actor.Elevated,
			"claims":   GetJWTClaims(c) != nil,
		})
	})
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func authedRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/inputs", nil)
	if token != "" {
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	}
	return req
}

func TestJWTAuth(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	router := newJWTRouter(DefaultJWTConfig(svc))

	t.Run("valid client token", func(t *testing.T) {
		userID := uuid.New()
		token, err := svc.IssueAccessToken(userID, "client")
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(token))

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), userID.String())
		assert.Contains(t, rec.Body.String(), `"elevated":false`)
		assert.Contains(t, rec.Body.String(), `"claims":true`)
	})

	t.Run("elevated role", func(t *testing.T) {
		token, err := svc.IssueAccessToken(uuid.New(), "veterinarian")
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(token))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"elevated":true`)
	})

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(""))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, dto.ErrCodeTokenInvalid, decodeEnvelope(t, rec).Error.Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/inputs", nil)
		req.Header.Set(AuthHeaderKey, "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest("not.a.jwt"))

		resp := decodeEnvelope(t, rec)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, dto.ErrCodeTokenInvalid, resp.Error.Code)
		assert.NotEmpty(t, resp.Error.RequestID)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other := auth.NewJWTService(
			config.JWTConfig{Secret: "another-secret-key-at-least-32-chars", AccessTokenExpiration: time.Minute, Issuer: "test-issuer"},
			config.AuthConfig{},
		)
		token, err := other.IssueAccessToken(uuid.New())
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(token))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("skip path needs no token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestJWTAuth_ExpiredToken(t *testing.T) {
	svc := newTestJWTService(-time.Minute)
	router := newJWTRouter(DefaultJWTConfig(svc))

	token, err := svc.IssueAccessToken(uuid.New())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(token))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.ErrCodeTokenExpired, decodeEnvelope(t, rec).Error.Code)
}

type failingBlacklist struct{}

func (failingBlacklist) AddToBlacklist(context.Context, string, time.Duration) error {
	return assert.AnError
}

func (failingBlacklist) IsBlacklisted(context.Context, string) (bool, error) {
	return false, assert.AnError
}

func TestJWTAuth_Blacklist(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	token, err := svc.IssueAccessToken(uuid.New())
	require.NoError(t, err)
	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)

	t.Run("revoked token is rejected", func(t *testing.T) {
		blacklist := auth.NewInMemoryTokenBlacklist()
		require.NoError(t, blacklist.AddToBlacklist(context.Background(), claims.ID, time.Minute))

		cfg := DefaultJWTConfig(svc)
		cfg.TokenBlacklist = blacklist
		rec := httptest.NewRecorder()
		newJWTRouter(cfg).ServeHTTP(rec, authedRequest(token))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, dto.ErrCodeTokenRevoked, decodeEnvelope(t, rec).Error.Code)
	})

	t.Run("unreachable blacklist lets the token through", func(t *testing.T) {
		cfg := DefaultJWTConfig(svc)
		cfg.TokenBlacklist = failingBlacklist{}
		rec := httptest.NewRecorder()
		newJWTRouter(cfg).ServeHTTP(rec, authedRequest(token))

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
