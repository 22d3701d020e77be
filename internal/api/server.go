package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/chat-stats-bot/internal/analysis"
	"github.com/chat-stats-bot/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Stats is the aggregate-query surface exposed over HTTP.
type Stats interface {
	GetTopUsersStats(ctx context.Context, chatID int64, r models.TimeRange, rangeKey models.RangeKey) (models.TopUsersStats, error)
	GetUserStats(ctx context.Context, chatID, userID int64, r models.TimeRange, rangeKey models.RangeKey) (models.UserStats, error)
	GetTopKeywords(ctx context.Context, chatID int64, r models.TimeRange, rangeKey models.RangeKey, limit int) ([]models.KeywordCount, error)
}

// Analyzer runs a user analysis by username.
type Analyzer interface {
	AnalyzeByUsername(ctx context.Context, chatID int64, username string) (analysis.Result, error)
}

// Store is the storage surface the API needs beyond aggregates.
type Store interface {
	Ping(ctx context.Context) error
	FindUserByUsername(ctx context.Context, username string) (models.UserRecord, error)
}

// Server exposes the stats core over HTTP
type Server struct {
	config   *models.BotConfig
	store    Store
	stats    Stats
	analyzer Analyzer
	logger   zerolog.Logger

	router *gin.Engine
	server *http.Server
}

// NewServer creates the HTTP API server
func NewServer(config *models.BotConfig, store Store, stats Stats, analyzer Analyzer, logger zerolog.Logger) *Server {
	if config.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		config:   config,
		store:    store,
		stats:    stats,
		analyzer: analyzer,
		logger:   logger.With().Str("component", "api").Logger(),
		router:   router,
	}

	s.initRouter()
	return s
}

func (s *Server) initRouter() {
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/api/v1")
	v1.GET("/health", s.handleHealth)
	v1.POST("/analyze", s.handleAnalyze)
	v1.GET("/chats/:id/stats", s.handleChatStats)
	v1.GET("/chats/:id/keywords", s.handleChatKeywords)
}

// Start runs the HTTP server until it is shut down
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.HTTPPort),
		Handler: s.router,
	}

	s.logger.Info().Int("port", s.config.HTTPPort).Msg("Starting HTTP API server")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the underlying HTTP handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
