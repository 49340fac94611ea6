package apiserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clientflow/clientflow/pkg/apiserver/handlers"
	"github.com/clientflow/clientflow/pkg/apiserver/middleware"
	"github.com/clientflow/clientflow/pkg/config"
	"github.com/clientflow/clientflow/pkg/engine"
	"github.com/clientflow/clientflow/pkg/store"
	"github.com/clientflow/clientflow/pkg/store/postgres"
	redisclient "github.com/clientflow/clientflow/pkg/store/redis"
)

type Server struct {
	router   *gin.Engine
	db       *postgres.Store
	redis    *redisclient.Client
	engine   *engine.Engine
	activity store.ActivityStore
	cfg      *config.Config
	logger   *zap.Logger
}

func NewServer(db *postgres.Store, redis *redisclient.Client, eng *engine.Engine, activity store.ActivityStore, cfg *config.Config, logger *zap.Logger) *Server {
	s := &Server{
		db:       db,
		redis:    redis,
		engine:   eng,
		activity: activity,
		cfg:      cfg,
		logger:   logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// The sweep trigger authenticates with its own shared secret so an
	// external cron can call it without a session token.
	sweepHandler := handlers.NewSweepHandler(s.engine, s.cfg.Sweep.Secret, s.logger)
	r.POST("/api/v1/internal/auto-approve", sweepHandler.Run)

	api := r.Group("/api/v1")
	{
		api.Use(middleware.Auth(s.cfg.Auth))

		approvalHandler := handlers.NewApprovalHandler(s.db, s.engine, s.logger)
		api.POST("/approvals/:id/recompute", approvalHandler.Recompute)
		api.PATCH("/approvals/:id/items/:itemID", approvalHandler.UpdateItem)
		api.GET("/approvals", approvalHandler.List)
		api.GET("/approvals/:id", approvalHandler.Get)
		api.DELETE("/approvals/:id", approvalHandler.Delete)

		commentHandler := handlers.NewCommentHandler(s.engine, s.logger)
		api.PATCH("/comments/:id", commentHandler.Update)
		api.DELETE("/comments/:id", commentHandler.Delete)

		notificationHandler := handlers.NewNotificationHandler(s.db, s.logger)
		api.GET("/notifications", notificationHandler.List)

		if s.activity != nil {
			activityHandler := handlers.NewActivityHandler(s.activity, s.logger)
			api.GET("/approvals/:id/activity", activityHandler.List)
		}
	}

	s.router = r
}

func (s *Server) Router() *gin.Engine {
	return s.router
}
