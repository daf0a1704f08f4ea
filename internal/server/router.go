package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ltran/procurement/internal/logger"
)

// RouterConfig wires the handlers and ambient middleware settings into
// a router.
type RouterConfig struct {
	RFPHandler     *RFPHandler
	VendorHandler  *VendorHandler
	AllowedOrigins []string

	// MailboxHealthy reports whether the inbound mail session is up.
	// Optional; when nil the health endpoint omits the mailbox field.
	MailboxHealthy func() bool

	Log *logger.Logger
}

// NewRouter builds the gin engine with the full route table.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(cfg.Log))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/health", func(c *gin.Context) {
		payload := gin.H{"status": "ok"}
		if cfg.MailboxHealthy != nil {
			payload["mailbox"] = cfg.MailboxHealthy()
		}
		RespondOK(c, payload)
	})

	api := router.Group("/api")

	rfps := api.Group("/rfps")
	{
		rfps.POST("/create", cfg.RFPHandler.Create)
		rfps.POST("/getAll", cfg.RFPHandler.GetAll)
		rfps.POST("/getById", cfg.RFPHandler.GetByID)
		rfps.PUT("/update", cfg.RFPHandler.Update)
		rfps.PUT("/delete", cfg.RFPHandler.Delete)
		rfps.POST("/send", cfg.RFPHandler.Send)
		rfps.POST("/getProposals", cfg.RFPHandler.GetProposals)
		rfps.POST("/compare", cfg.RFPHandler.Compare)
	}

	vendors := api.Group("/vendors")
	{
		vendors.POST("/create", cfg.VendorHandler.Create)
		vendors.POST("/getAll", cfg.VendorHandler.GetAll)
		vendors.POST("/getById", cfg.VendorHandler.GetByID)
		vendors.PUT("/update", cfg.VendorHandler.Update)
		vendors.PUT("/delete", cfg.VendorHandler.Delete)
	}

	return router
}

// requestLogger logs one line per request in the structured log instead
// of gin's default writer.
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}
