package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sultan/backend/internal/domain/shared/access"
	"github.com/sultan/backend/internal/infrastructure/auth"
	"github.com/sultan/backend/internal/infrastructure/logger"
	"github.com/sultan/backend/internal/interfaces/http/dto"
)

// Auth context keys
const (
	JWTClaimsKey     = "jwt_claims"
	AccessContextKey = "access_context"
	AuthHeaderKey    = "Authorization"
	BearerPrefix     = "Bearer "
)

// TokenValidator validates bearer tokens
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*auth.Claims, error)
}

// AccessLoader builds the access context of an authenticated user
type AccessLoader interface {
	ContextFor(ctx context.Context, userID int64) (*access.Context, error)
}

// RequestInfo is attached to every access context built by JWTAuth
type RequestInfo struct {
	RequestID string
	ClientIP  string
	Username  string
}

// JWTConfig holds configuration for the auth middleware
type JWTConfig struct {
	Tokens TokenValidator
	Access AccessLoader
	// SkipPaths are served without authentication
	SkipPaths []string
	Logger    *zap.Logger
}

// JWTAuth authenticates the bearer token, loads the caller's permissions and
// stores the resulting access context on the gin and request contexts.
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			abortUnauthorized(c, log, auth.ErrMissingToken, "Missing authorization header")
			return
		}
		tokenString, ok := strings.CutPrefix(authHeader, BearerPrefix)
		if !ok || tokenString == "" {
			abortUnauthorized(c, log, auth.ErrMissingToken, "Invalid authorization header format")
			return
		}

		claims, err := cfg.Tokens.ValidateAccessToken(tokenString)
		if err != nil {
			abortUnauthorized(c, log, err, "Token validation failed")
			return
		}

		ctx := c.Request.Context()
		ac, err := cfg.Access.ContextFor(ctx, claims.UserID)
		if err != nil {
			log.Error("Failed to load permissions", zap.Int64("user_id", claims.UserID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeInternal, "Failed to load permissions", GetRequestID(c)))
			return
		}
		ac = access.With(ac, RequestInfo{
			RequestID: GetRequestID(c),
			ClientIP:  c.ClientIP(),
			Username:  claims.Username,
		})

		c.Set(JWTClaimsKey, claims)
		c.Set(AccessContextKey, ac)

		ctx = access.NewRequestContext(ctx, ac)
		ctx = logger.WithUserID(ctx, claims.UserID)
		c.Request = c.Request.WithContext(ctx)

		log.Debug("JWT authentication successful",
			zap.Int64("user_id", claims.UserID),
			zap.String("username", claims.Username),
			zap.Int("grants", len(ac.Permissions())),
		)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, log *zap.Logger, err error, message string) {
	log.Warn("JWT authentication failed",
		zap.Error(err),
		zap.String("message", message),
		zap.String("path", c.Request.URL.Path),
	)

	code, text := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, text = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		code, text = dto.ErrCodeTokenInvalid, "Token is not yet valid"
	case errors.Is(err, auth.ErrInvalidTokenType):
		code, text = dto.ErrCodeTokenInvalid, "Invalid token type"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrMissingUserID):
		code, text = dto.ErrCodeTokenInvalid, "Invalid token"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, text, GetRequestID(c)))
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// GetAccessContext returns the access context set by JWTAuth. Requests that
// did not pass through it get an empty context, which is denied everything.
func GetAccessContext(c *gin.Context) *access.Context {
	if v, exists := c.Get(AccessContextKey); exists {
		if ac, ok := v.(*access.Context); ok && ac != nil {
			return ac
		}
	}
	if ac, ok := access.FromContext(c.Request.Context()); ok {
		return ac
	}
	return access.Empty()
}
