package server

import (
	"database/sql"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"homestock/internal/config"
	"homestock/internal/database"
	custommiddleware "homestock/internal/middleware"
	"homestock/internal/repository"
	"homestock/internal/service"
	"homestock/internal/transport"
	"homestock/web"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config      *config.Config
	logger      *zap.Logger
	db          *sql.DB
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB) *Server {
	// Everything, UI included, is served under the optional base path
	basePath := strings.TrimSuffix(cfg.Server.BasePath, "/")

	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(nil, cfg.Server.Env == "development"))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithJSON(w, http.StatusOK, database.Health(r.Context(), db))
	})

	// Redis-backed rate limiting on the auth endpoints
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	authRateLimit := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: 20,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit:auth",
	}, logger)

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	itemRepo := repository.NewItemRepository(db)

	// Initialize services
	sessionExpiry := time.Duration(cfg.Auth.SessionExpiry) * time.Hour
	accountService := service.NewAccountService(accountRepo, cfg.Auth.Secret, sessionExpiry)
	inventoryService := service.NewInventoryService(itemRepo, categoryRepo, logger)

	// Initialize handlers
	accountHandler := transport.NewAccountHandler(accountService, sessionExpiry, logger)
	itemHandler := transport.NewItemHandler(inventoryService, logger)
	categoryHandler := transport.NewCategoryHandler(inventoryService, logger)
	webHandler := transport.NewWebHandler(inventoryService, accountService, sessionExpiry, basePath, logger)

	// Create auth middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.Auth.Secret, logger)
	webAuthMiddleware := custommiddleware.WebAuthMiddleware(cfg.Auth.Secret, basePath+"/web/login", logger)

	// Register routes
	router.Group(func(r chi.Router) {
		r.Use(authRateLimit)
		accountHandler.RegisterRoutes(r, authMiddleware)
	})
	itemHandler.RegisterRoutes(router, authMiddleware)
	categoryHandler.RegisterRoutes(router, authMiddleware)
	webHandler.RegisterRoutes(router, webAuthMiddleware)

	// Embedded static assets
	staticFS, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		logger.Fatal("Failed to mount static assets", zap.Error(err))
	}
	router.Handle("/static/*", http.StripPrefix(basePath+"/static/", http.FileServer(http.FS(staticFS))))

	// The UI is the landing page
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, basePath+"/web", http.StatusSeeOther)
	})

	// Mounting keeps route registration path-relative when a base path is set
	var handler http.Handler = router
	if basePath != "" {
		root := chi.NewRouter()
		root.Mount(basePath, router)
		handler = root
	}

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      handler,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:      cfg,
		logger:      logger,
		db:          db,
		redisClient: redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
