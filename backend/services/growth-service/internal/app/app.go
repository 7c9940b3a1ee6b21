package app

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	libredis "growthwatch/backend/libs/redis"
	"growthwatch/backend/services/growth-service/internal/chatbot"
	"growthwatch/backend/services/growth-service/internal/clients"
	"growthwatch/backend/services/growth-service/internal/config"
	"growthwatch/backend/services/growth-service/internal/db"
	"growthwatch/backend/services/growth-service/internal/growth"
	httpserver "growthwatch/backend/services/growth-service/internal/http"
	"growthwatch/backend/services/growth-service/internal/http/handlers"
	"growthwatch/backend/services/growth-service/internal/http/middleware"
	"growthwatch/backend/services/growth-service/internal/markdown"
	"growthwatch/backend/services/growth-service/internal/repository"
	"growthwatch/backend/services/growth-service/internal/service"
	"growthwatch/backend/services/growth-service/internal/session"
	"growthwatch/backend/services/growth-service/internal/ws"
)

// App wires growth-service dependencies.
type App struct {
	server      *httpserver.Server
	chatSockets *ws.Manager
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	strategy, err := buildStrategy(cfg, logger)
	if err != nil {
		return nil, err
	}

	redisClient, err := libredis.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	var (
		sqlDB   *sql.DB
		history service.HistoryRepository
	)
	if cfg.HistoryEnabled() {
		sqlDB, err = db.NewPostgres(cfg.Database.DSN)
		if err != nil {
			redisClient.Close()
			return nil, err
		}
		if err := db.Migrate(sqlDB); err != nil {
			sqlDB.Close()
			redisClient.Close()
			return nil, err
		}
		history = repository.NewAssessmentRepository(sqlDB)
	} else {
		logger.Info("assessment history disabled, no database dsn configured")
	}

	recommender := clients.NewRecommendationClient(clients.RecommendationConfig{
		APIKey:      cfg.Recommendation.APIKey,
		BaseURL:     cfg.Recommendation.BaseURL,
		Model:       cfg.Recommendation.Model,
		Temperature: cfg.Recommendation.Temperature,
		Timeout:     cfg.RecommendationTimeout(),
	}, nil, logger.Named("recommendation"))
	if !recommender.HasCredential() {
		logger.Info("no server-side recommendation key, requests must supply api_key")
	}

	store := session.NewRedisStore(redisClient, cfg.SessionTTL())
	tokens := session.NewTokens(cfg.Session.Secret, cfg.SessionTTL())
	assessments := service.NewAssessmentService(strategy, store, history, recommender, chatbot.NewResponder(nil), logger)

	chatHandlers := handlers.NewChatHandlers(assessments, logger)
	chatSockets := ws.NewManager()
	socketServer := ws.NewServer(chatSockets, chatHandlers, 0, logger)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		PageHandlers:  handlers.NewPageHandlers(assessments, markdown.NewRenderer(), logger),
		APIHandlers:   handlers.NewAPIHandlers(assessments, logger),
		ChatHandlers:  chatHandlers,
		ChatSocket:    socketServer.HandleWS,
		HealthHandler: http.HandlerFunc(handlers.Health),
	})
	server := httpserver.NewServer(cfg.HTTPAddress(), router, cfg.HTTPWriteTimeout(), logger,
		middleware.Recovery(logger),
		middleware.Logging(logger),
		middleware.Session(tokens, cfg.HTTP.SecureCookie, logger),
	)

	logger.Info("growth classifier ready",
		zap.String("strategy", string(strategy.Name())),
		zap.Int("reference_rows", strategy.Reference().Len()),
		zap.Bool("history", history != nil),
	)

	return &App{
		server:      server,
		chatSockets: chatSockets,
		db:          sqlDB,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

func buildStrategy(cfg *config.Config, logger *zap.Logger) (growth.Strategy, error) {
	var table *growth.ReferenceTable
	if path := cfg.Classifier.ReferenceFile; path != "" {
		loaded, err := growth.LoadReferenceFile(path)
		if err != nil {
			return nil, err
		}
		logger.Info("loaded reference table", zap.String("path", path), zap.Int("rows", loaded.Len()))
		table = loaded
	}
	return growth.NewStrategy(growth.StrategyName(cfg.Classifier.Strategy), table)
}

// Run starts HTTP server and closes chat sockets on shutdown.
func (a *App) Run(ctx context.Context) error {
	go a.chatSockets.Run(ctx)
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
