package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yoockh/careermentor/internal/utils"
)

type apiError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

type JWTConfig struct {
	Secret   string
	Issuer   string // optional
	Audience string // optional
}

type authClaims struct {
	jwt.RegisteredClaims
	Role        string         `json:"role"`
	AppMetadata map[string]any `json:"app_metadata"` // {"role":"admin"} grants admin
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{Code: utils.CodeUnauthorized, Message: msg})
}

// JWTAuth validates an HS256 bearer token and sets user_id (sub) and role.
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if !strings.HasPrefix(auth, "Bearer ") || raw == "" {
			// browsers cannot set headers on a WebSocket handshake
			raw = c.Query("access_token")
		}
		if raw == "" {
			unauthorized(c, "missing bearer token")
			return
		}

		claims := &authClaims{}
		tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			return []byte(cfg.Secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || tok == nil || !tok.Valid {
			unauthorized(c, "invalid token")
			return
		}

		if cfg.Issuer != "" && claims.Issuer != cfg.Issuer {
			unauthorized(c, "invalid token issuer")
			return
		}
		if cfg.Audience != "" && !slices.Contains(claims.Audience, cfg.Audience) {
			unauthorized(c, "invalid token audience")
			return
		}

		userID := claims.Subject
		if userID == "" {
			unauthorized(c, "missing subject")
			return
		}

		role := "user"
		if claims.AppMetadata != nil {
			if v, ok := claims.AppMetadata["role"].(string); ok && v != "" {
				role = v
			}
		}

		c.Set("user_id", userID)
		c.Set("role", role)
		c.Next()
	}
}

// HeaderAuth trusts the X-User-Id header. Only for local development when no
// JWT secret is configured.
func HeaderAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if userID == "" {
			userID = c.Query("user_id")
		}
		if userID == "" {
			unauthorized(c, "missing X-User-Id header")
			return
		}
		role := strings.TrimSpace(c.GetHeader("X-User-Role"))
		if role == "" {
			role = "user"
		}
		c.Set("user_id", userID)
		c.Set("role", role)
		c.Next()
	}
}
