package auth

import (
	"errors"
	"time"

	"github.com/genlab/backend/internal/domain/ledger"
	"github.com/genlab/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingUserID    = errors.New("missing user_id in claims")
	ErrTokenRevoked     = errors.New("token has been revoked")
)

// Claims are the access-token claims the ledger relies on. Tokens are issued
// by the laboratory's account service; this package only verifies them.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string   `json:"user_id"`
	Username string   `json:"username,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// JWTService verifies access tokens signed with the shared HMAC secret
type JWTService struct {
	secret     []byte
	issuer     string
	expiration time.Duration
	auth       config.AuthConfig
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig, authCfg config.AuthConfig) *JWTService {
	return &JWTService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		expiration: cfg.AccessTokenExpiration,
		auth:       authCfg,
	}
}

// IssueAccessToken signs a token for userID with roles. Production tokens come
// from the account service; this is for tests and local tooling.
func (s *JWTService) IssueAccessToken(userID uuid.UUID, roles ...string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID.String(),
		Roles:  roles,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ValidateAccessToken checks signature, issuer and time claims
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, ErrMissingUserID
	}
	return claims, nil
}

// Actor converts verified claims to the ledger's caller identity. Any role
// listed in auth.elevated_roles makes the actor elevated.
func (s *JWTService) Actor(claims *Claims) (ledger.Actor, error) {
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return ledger.Actor{}, ErrMissingUserID
	}
	actor := ledger.Actor{UserID: userID}
	for _, role := range claims.Roles {
		if s.auth.IsElevatedRole(role) {
			actor.Elevated = true
			break
		}
	}
	return actor, nil
}

// RemainingTTL returns the time until the token expires, never negative
func (c *Claims) RemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(time.Until(c.ExpiresAt.Time), 0)
}
