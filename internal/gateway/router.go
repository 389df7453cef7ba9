package gateway

import (
	"time"

	"github.com/bizmatters/mindease/console/internal/auth"
	"github.com/bizmatters/mindease/console/pkg/logger"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RouterOptions controls the optional parts of the console router.
type RouterOptions struct {
	// ConsoleAuth protects /api when set.
	ConsoleAuth *auth.JWTManager
	// ConsoleAccessKey is exchanged for a token at /api/auth/token.
	ConsoleAccessKey string
	ConsoleTokenTTL  time.Duration
	// AllowedOrigins restricts websocket origins.
	AllowedOrigins []string
	// Swagger mounts /swagger/*any.
	Swagger bool
}

// NewRouter wires the console API.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(StructuredLogging())

	// Health checks stay at the root, outside auth.
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)

	if opts.Swagger {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := router.Group("/api")
	api.GET("/health", h.Health)

	protected := api.Group("")
	if opts.ConsoleAuth != nil {
		issuer := NewTokenIssuer(opts.ConsoleAuth, opts.ConsoleAccessKey, opts.ConsoleTokenTTL)
		api.POST("/auth/token", issuer.IssueToken)
		protected.Use(auth.RequireAuth(opts.ConsoleAuth))
	}

	protected.GET("/assessment/catalog", h.GetCatalog)
	protected.POST("/assessments", h.CreateAssessment)
	protected.GET("/assessments/:id", h.GetAssessment)
	protected.PUT("/assessments/:id/fields/:name", h.UpdateAssessmentField)
	protected.POST("/assessments/:id/submit", h.SubmitAssessment)
	protected.POST("/assessments/:id/dismiss", h.DismissAssessment)
	protected.DELETE("/assessments/:id", h.DeleteAssessment)

	protected.GET("/chat/suggestions", h.GetSuggestions)
	protected.POST("/chats", h.CreateChat)
	protected.GET("/chats/:id", h.GetChat)
	protected.POST("/chats/:id/messages", h.SendChatMessage)
	protected.POST("/chats/:id/suggestions/:index", h.SendChatSuggestion)
	protected.POST("/chats/:id/clear", h.ClearChat)
	protected.DELETE("/chats/:id", h.DeleteChat)

	protected.GET("/monitoring", h.GetMonitoring)

	stream := NewEventStream(h, opts.AllowedOrigins)
	protected.GET("/ws/sessions/:id", stream.StreamSession)

	return router
}

// StructuredLogging logs one entry per request through the shared logger.
func StructuredLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := logger.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
		}
		if subject, ok := c.Get(auth.SubjectKey); ok {
			fields["subject"] = subject
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		entry := logger.WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("request completed")
		case status >= 400:
			entry.Warn("request completed")
		default:
			entry.Info("request completed")
		}
	}
}
