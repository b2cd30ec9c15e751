package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"contact-keeper/internal/auth"
	"contact-keeper/internal/service"
)

// DefaultTokenHeader carries the bearer credential unless configured otherwise.
const DefaultTokenHeader = "x-auth-token"

// Options tunes the HTTP surface.
type Options struct {
	// TokenHeader names the request header holding the token.
	TokenHeader string
	// OwnershipStatus is written when a caller touches a contact they do not own.
	OwnershipStatus int
	Logger          *logrus.Logger
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	contacts service.ContactService
	users    service.UserService
	exports  service.ExportService
	tokens   auth.TokenService
	guard    *auth.Guard
	opts     Options
	log      *logrus.Logger
}

func NewHandler(contacts service.ContactService, users service.UserService, exports service.ExportService, tokens auth.TokenService, opts Options) *Handler {
	if strings.TrimSpace(opts.TokenHeader) == "" {
		opts.TokenHeader = DefaultTokenHeader
	}
	if opts.OwnershipStatus == 0 {
		opts.OwnershipStatus = http.StatusUnauthorized
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	useJSONFieldNames()

	return &Handler{
		contacts: contacts,
		users:    users,
		exports:  exports,
		tokens:   tokens,
		guard:    auth.NewGuard(tokens),
		opts:     opts,
		log:      opts.Logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.log), corsMiddleware(h.opts.TokenHeader))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "welcome to contact-keeper API"})
	})

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})

		api.POST("/users", h.register)
		api.POST("/auth", h.login)
		api.GET("/auth", h.currentUser)

		api.GET("/contacts", h.listContacts)
		api.POST("/contacts", h.createContact)
		api.PUT("/contacts/:id", h.updateContact)
		api.DELETE("/contacts/:id", h.deleteContact)

		api.POST("/exports", h.createExport)
		api.GET("/exports", h.listExports)
		api.DELETE("/exports", h.purgeExports)
	}
}

// authorize runs the guard at the top of a protected handler. On failure the
// response is already written and ok is false.
func (h *Handler) authorize(c *gin.Context) (userID string, ok bool) {
	token := c.GetHeader(h.opts.TokenHeader)
	if strings.TrimSpace(token) == "" {
		token = auth.BearerToken(c.GetHeader("Authorization"))
	}

	identity, err := h.guard.Authorize(token)
	if err != nil {
		h.respondError(c, err)
		return "", false
	}

	c.Request = c.Request.WithContext(auth.WithUserID(c.Request.Context(), identity.UserID))
	return identity.UserID, true
}

func corsMiddleware(tokenHeader string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, "+tokenHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func requestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  status,
			"latency": time.Since(start).String(),
		}
		if userID, ok := auth.UserIDFromContext(c.Request.Context()); ok {
			fields["user"] = userID
		}

		entry := log.WithFields(fields)
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request served")
		}
	}
}
