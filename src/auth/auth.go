package auth

import (
	"errors"
	"time"

	"github.com/bizdesk/realtime/src/types"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidAlgorithm = errors.New("invalid signing algorithm")
	ErrEmptySecretKey   = errors.New("secret key cannot be empty")
	ErrWeakSecretKey    = errors.New("secret key must be at least 32 characters")
)

// Verifier is the boundary to the external auth system. The lifecycle
// handler passes it the token a client presented with subscribe and
// trusts whatever identity comes back.
//
// Note: nothing in this subsystem checks that a client is actually
// authorized for the tenant its token names. Token validity is the
// only gate; tenant-level authorization belongs to the token issuer.
type Verifier interface {
	Verify(token string) (types.Identity, error)
}

// Claims carries the identity pair inside a JWT.
type Claims struct {
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
	jwt.RegisteredClaims
}

// JWTVerifier validates HS256-signed tokens issued by the platform's
// auth service.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a verifier for the given shared secret.
func NewJWTVerifier(secret string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, ErrEmptySecretKey
	}
	if len(secret) < 32 {
		return nil, ErrWeakSecretKey
	}
	return &JWTVerifier{secret: []byte(secret)}, nil
}

// Verify parses and validates a token and returns the identity it carries.
func (v *JWTVerifier) Verify(tokenString string) (types.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidAlgorithm
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return types.Identity{}, ErrExpiredToken
		}
		return types.Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return types.Identity{}, ErrInvalidToken
	}
	return types.Identity{UserID: claims.UserID, TenantID: claims.TenantID}, nil
}

// Sign issues a token for the given identity. Production tokens come
// from the auth service; this exists for tooling and tests that need a
// token accepted by the same verifier.
func (v *JWTVerifier) Sign(id types.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   id.UserID,
		TenantID: id.TenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
