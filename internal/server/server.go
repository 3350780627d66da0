package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/ystore/backend/internal/auth"
	"github.com/emilythestrangee/ystore/backend/internal/comments"
	"github.com/emilythestrangee/ystore/backend/internal/config"
	"github.com/emilythestrangee/ystore/backend/internal/database"
	"github.com/emilythestrangee/ystore/backend/internal/handlers"
	"github.com/emilythestrangee/ystore/backend/internal/logger"
	"github.com/emilythestrangee/ystore/backend/internal/middleware"
	"github.com/emilythestrangee/ystore/backend/internal/models"
	"github.com/emilythestrangee/ystore/backend/internal/observability"
)

type Server struct {
	cfg     *config.Config
	db      database.Service
	auth    *auth.Service
	handler *handlers.Handler
}

// New wires the services on top of an opened backend.
func New(cfg *config.Config, backend database.Backend) *Server {
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.ExpirationMinutes)*time.Minute)
	authSvc := auth.NewService(backend, tokens)
	commentSvc := comments.NewService(backend)

	return &Server{
		cfg:     cfg,
		db:      backend,
		auth:    authSvc,
		handler: handlers.NewHandler(commentSvc, authSvc),
	}
}

// HTTPServer builds the http.Server for the configured address
func (s *Server) HTTPServer() *http.Server {
	srv := &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  s.cfg.Server.IdleTimeout,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	logger.Infof("Server starting on %s", srv.Addr)
	return srv
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	r.Use(logger.GinLogger(), logger.GinRecovery(true), observability.Middleware())

	// CORS configuration
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:  []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(s.cfg.Server.CORSOrigins) == 0 || s.cfg.Server.CORSOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.cfg.Server.CORSOrigins
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", s.healthHandler)
	r.GET("/metrics", observability.Handler())

	requireAuth := middleware.AuthMiddleware(s.auth)
	optionalAuth := middleware.OptionalAuth(s.auth)
	limit := middleware.RateLimit(s.cfg.RateLimit.Rate, s.cfg.RateLimit.Capacity)

	api := r.Group("/api")
	{
		authRoutes := api.Group("/auth")
		authRoutes.POST("/register", limit, s.handler.Auth.Register)
		authRoutes.POST("/login", limit, s.handler.Auth.Login)
		authRoutes.GET("/me", requireAuth, s.handler.Auth.GetMe)

		users := api.Group("/users")
		users.GET("/:id", s.handler.User.GetUserProfile)
		users.PUT("/me", requireAuth, limit, s.handler.User.UpdateMyProfile)

		admin := api.Group("/admin", requireAuth, middleware.RequireRole(models.RoleAdmin))
		admin.PUT("/roles", s.handler.User.SetUserRole)

		c := api.Group("/comments")
		// public reads
		c.GET("/subject/:subject_id", optionalAuth, s.handler.Comment.GetThreaded)
		c.GET("/subject/:subject_id/flat", s.handler.Comment.GetFlat)
		c.GET("/count/:subject_id", s.handler.Comment.Count)

		protected := c.Group("")
		protected.Use(requireAuth, limit)
		{
			protected.POST("", s.handler.Comment.CreateComment)
			protected.POST("/:comment_id/react", s.handler.Comment.ReactComment)
			protected.DELETE("/:comment_id", s.handler.Comment.DeleteComment)
		}
	}

	return r
}

func (s *Server) healthHandler(c *gin.Context) {
	stats := s.db.Health()
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, stats)
}
