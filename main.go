package main

import (
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/username/tradejournal/backend/src/config"
	"github.com/username/tradejournal/backend/src/database"
	"github.com/username/tradejournal/backend/src/handlers"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/security"
	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/utils"
)

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Trade journal import server starting...")

	if len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing import cache...", "ttl", config.Cfg.ImportCacheTTL)
	importCache := cache.New(config.Cfg.ImportCacheTTL, config.Cfg.ImportCacheCleanup)

	logger.L.Info("Initializing services and handlers...")
	authService := security.NewAuthService(config.Cfg.JWTSecret, config.Cfg.AccessTokenExpiry)
	importService := services.NewImportService(importCache)
	importHandler := handlers.NewImportHandler(importService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	requireAuth := handlers.AuthMiddleware(authService)
	apiRouter.Handle("POST /api/imports", requireAuth(http.HandlerFunc(importHandler.HandleCreateImport)))
	apiRouter.Handle("GET /api/imports", requireAuth(http.HandlerFunc(importHandler.HandleListImports)))
	apiRouter.Handle("GET /api/imports/{id}", requireAuth(http.HandlerFunc(importHandler.HandleGetImport)))
	apiRouter.Handle("GET /api/imports/{id}/export", requireAuth(http.HandlerFunc(importHandler.HandleExportImport)))

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			utils.SendJSON(w, map[string]string{"message": "Trade journal import backend is running"}, http.StatusOK)
			return
		}
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
			http.NotFound(w, r)
		}
	})

	logger.L.Info("Applying global middleware...")
	limiter := rate.NewLimiter(rate.Every(config.Cfg.RateLimitInterval), config.Cfg.RateLimitBurst)
	finalHandler := handlers.CORSMiddleware(config.Cfg.AllowedOrigins)(
		handlers.RateLimitMiddleware(limiter)(handlers.RequestLoggerMiddleware(rootMux)))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
