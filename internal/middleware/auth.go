package middleware

import (
	"context"
	"net/http"
	"strings"

	"cuchito/internal/apierror"
	"cuchito/internal/model"
	"cuchito/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	ClaimsKey = "claims"
	UserIDKey = "user_id"
)

// TokenVerifier is satisfied by service.AuthService.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*service.AccessClaims, error)
}

// RoleLookup is satisfied by service.PerfilService.
type RoleLookup interface {
	RolDe(ctx context.Context, userID uuid.UUID) (string, error)
}

// JWTAuth validates the Bearer token on every protected route.
func JWTAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(tokenStr) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token no proporcionado"))
			return
		}

		claims, err := verifier.VerifyAccessToken(strings.TrimSpace(tokenStr))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token inválido"))
			return
		}
		uid, err := claims.UserID()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token inválido"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(UserIDKey, uid)
		c.Next()
	}
}

// RequireAdmin looks the caller's role up on every request, so a demotion
// applies to tokens that are still valid. Must run after JWTAuth.
func RequireAdmin(roles RoleLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := GetUserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token no proporcionado"))
			return
		}

		rol, err := roles.RolDe(c.Request.Context(), uid)
		if err != nil && !apierror.Is(err, apierror.KindNotFound) {
			log.Error().
				Str("request_id", c.GetString(RequestIDKey)).
				Str("user_id", uid.String()).
				Err(err).
				Msg("role lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("Error al verificar rol de usuario"))
			return
		}
		if rol != model.RolAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Acceso denegado: solo administradores"))
			return
		}
		c.Next()
	}
}

// GetClaims is a helper to retrieve typed claims from the Gin context.
func GetClaims(c *gin.Context) *service.AccessClaims {
	claims, _ := c.Get(ClaimsKey)
	ac, _ := claims.(*service.AccessClaims)
	return ac
}

// GetUserID returns the authenticated user id set by JWTAuth.
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	uid, ok := v.(uuid.UUID)
	return uid, ok
}
