package auth

import (
	"net/http"
	"strings"

	"github.com/bizmatters/mindease/console/internal/models"
	"github.com/bizmatters/mindease/console/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var middlewareTracer = otel.Tracer("auth-middleware")

const (
	// SubjectKey is the gin context key holding the authenticated subject.
	SubjectKey = "subject"
	// ClaimsKey is the gin context key holding the full claims.
	ClaimsKey = "claims"
)

// RequireAuth is a gin middleware that accepts a console token from the
// Authorization header, or from the token query parameter for WebSocket
// upgrades where browsers cannot set headers.
func RequireAuth(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := middlewareTracer.Start(c.Request.Context(), "auth.require_auth")
		defer span.End()

		token := extractToken(c)
		if token == "" {
			span.SetAttributes(attribute.Bool("auth.token_present", false))
			abortUnauthorized(c, "Missing or invalid authorization header")
			return
		}
		span.SetAttributes(attribute.Bool("auth.token_present", true))

		claims, err := jwtManager.ValidateToken(ctx, token, ScopeConsole)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.Bool("auth.token_valid", false))
			logger.WithFields(logger.Fields{"path": c.Request.URL.Path, "error": err.Error()}).Warn("invalid console token")
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		span.SetAttributes(
			attribute.Bool("auth.token_valid", true),
			attribute.String("jwt.subject", claims.Subject),
		)

		c.Set(SubjectKey, claims.Subject)
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	const prefix = "Bearer "
	header := c.GetHeader("Authorization")
	if header != "" {
		if !strings.HasPrefix(header, prefix) {
			return ""
		}
		return strings.TrimSpace(header[len(prefix):])
	}
	return c.Query("token")
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Error: message,
		Code:  models.ErrCodeUnauthorized,
	})
}
