package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"passage-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenVerifier checks a bearer token and returns its claims.
type TokenVerifier func(ctx context.Context, tokenString string) (*models.Claims, error)

const (
	userIDKey = "user_id"
	rolesKey  = "user_roles"
)

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func setClaims(c *gin.Context, claims *models.Claims) {
	c.Set(userIDKey, claims.UserID)
	c.Set(rolesKey, claims.Roles)
	ctx := context.WithValue(c.Request.Context(), models.UserContextKey, claims.UserID)
	ctx = context.WithValue(ctx, models.RolesContextKey, claims.Roles)
	c.Request = c.Request.WithContext(ctx)
}

func abortTokenError(c *gin.Context, err error) {
	if errors.Is(err, models.ErrTokenExpired) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
			Code: models.ErrCodeTokenExpired, Message: "Token has expired",
		})
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Code: models.ErrCodeTokenInvalid, Message: "Token is invalid or malformed",
	})
}

// RequireAuth rejects requests without a valid bearer token. When roles are
// given the token must carry at least one of them.
func RequireAuth(verifier TokenVerifier, logger *zap.Logger, requiredRoles ...string) gin.HandlerFunc {
	logger = logger.Named("AuthMiddleware")
	return func(c *gin.Context) {
		log := logger.With(zap.String("path", c.Request.URL.Path))

		tokenString, ok := bearerToken(c)
		if !ok {
			log.Warn("Missing or malformed Authorization header")
			abortTokenError(c, models.ErrTokenInvalid)
			return
		}

		claims, err := verifier(c.Request.Context(), tokenString)
		if err != nil {
			log.Warn("Token verification failed", zap.Error(err))
			abortTokenError(c, err)
			return
		}

		if len(requiredRoles) > 0 {
			allowed := false
			for _, role := range requiredRoles {
				if models.HasRole(claims.Roles, role) {
					allowed = true
					break
				}
			}
			if !allowed {
				log.Warn("User does not have required role",
					zap.String("userID", claims.UserID.String()),
					zap.Strings("userRoles", claims.Roles),
					zap.Strings("requiredRoles", requiredRoles),
				)
				c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{
					Code: models.ErrCodeForbidden, Message: "Insufficient permissions",
				})
				return
			}
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth attaches claims when a valid token is present and lets
// anonymous or invalid-token requests through untouched.
func OptionalAuth(verifier TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	logger = logger.Named("OptionalAuthMiddleware")
	return func(c *gin.Context) {
		if tokenString, ok := bearerToken(c); ok {
			claims, err := verifier(c.Request.Context(), tokenString)
			if err == nil {
				setClaims(c, claims)
			} else {
				logger.Debug("Ignoring invalid optional token", zap.Error(err))
			}
		}
		c.Next()
	}
}

// UserIDFromGin returns the authenticated user id as a string, or nil.
func UserIDFromGin(c *gin.Context) *string {
	userID, ok := models.GetUserIDFromContext(c.Request.Context())
	if !ok {
		return nil
	}
	s := userID.String()
	return &s
}
