package gateway

import (
	"net/http"
	"strings"
	"time"

	"github.com/bizmatters/mindease/console/internal/auth"
	"github.com/bizmatters/mindease/console/internal/models"
	"github.com/bizmatters/mindease/console/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const defaultConsoleTokenTTL = 12 * time.Hour

// TokenRequest exchanges the console access key for a token.
type TokenRequest struct {
	AccessKey string `json:"access_key" binding:"required"`
	// Subject identifies the browser; a new id is assigned when empty.
	Subject string `json:"subject"`
}

// TokenResponse carries a console token.
type TokenResponse struct {
	Token     string    `json:"token"`
	Subject   string    `json:"subject"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenIssuer mints console tokens for callers presenting the access key.
type TokenIssuer struct {
	jwtManager *auth.JWTManager
	keyHash    []byte
	ttl        time.Duration
	now        func() time.Time
}

// NewTokenIssuer keeps only a bcrypt hash of accessKey. An empty or
// unhashable key leaves the issuer rejecting every request.
func NewTokenIssuer(jm *auth.JWTManager, accessKey string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = defaultConsoleTokenTTL
	}
	t := &TokenIssuer{
		jwtManager: jm,
		ttl:        ttl,
		now:        time.Now,
	}
	if accessKey != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(accessKey), bcrypt.DefaultCost)
		if err != nil {
			logger.WithFields(logger.Fields{"error": err.Error()}).Error("failed to hash console access key")
		} else {
			t.keyHash = hash
		}
	}
	return t
}

// IssueToken godoc
// @Summary Get a console token
// @Description Exchange the console access key for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body TokenRequest true "Access key"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/token [post]
func (t *TokenIssuer) IssueToken(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeInvalidRequest, "Invalid request")
		return
	}

	if t.keyHash == nil || bcrypt.CompareHashAndPassword(t.keyHash, []byte(req.AccessKey)) != nil {
		logger.WithFields(logger.Fields{"client_ip": c.ClientIP()}).Warn("rejected console token request")
		respondError(c, http.StatusUnauthorized, models.ErrCodeUnauthorized, "Invalid access key")
		return
	}

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = uuid.New().String()
	}

	issuedAt := t.now()
	token, err := t.jwtManager.GenerateToken(c.Request.Context(), subject, auth.ScopeConsole, t.ttl)
	if err != nil {
		logger.WithFields(logger.Fields{"error": err.Error()}).Error("failed to generate console token")
		respondError(c, http.StatusInternalServerError, models.ErrCodeInternalError, "Failed to generate token")
		return
	}

	c.JSON(http.StatusOK, TokenResponse{
		Token:     token,
		Subject:   subject,
		ExpiresAt: issuedAt.Add(t.ttl).UTC(),
	})
}
