package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"cuchito/internal/apierror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// refreshTokenBytes is the entropy of an opaque refresh token (512 bits).
const refreshTokenBytes = 64

// AccessClaims are the claims embedded in every access token.
type AccessClaims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserID parses the id claim.
func (c *AccessClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.ID)
}

// TokenIssuer signs and verifies HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed access token for the user.
func (ti *TokenIssuer) Issue(userID uuid.UUID, email string) (string, error) {
	now := ti.now()
	claims := AccessClaims{
		ID:    userID.String(),
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.secret)
}

// Verify checks signature, algorithm and expiry.
func (ti *TokenIssuer) Verify(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return ti.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(ti.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, apierror.Unauthorized("Token inválido")
	}
	if _, err := claims.UserID(); err != nil {
		return nil, apierror.Unauthorized("Token inválido")
	}
	return claims, nil
}

// newRefreshToken returns a hex-encoded random opaque token.
func newRefreshToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("refresh token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
