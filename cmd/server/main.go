package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/krishimitra/assistant/internal/api"
	"github.com/krishimitra/assistant/internal/auth"
	"github.com/krishimitra/assistant/internal/config"
	"github.com/krishimitra/assistant/internal/core"
	"github.com/krishimitra/assistant/internal/metrics"
	"github.com/krishimitra/assistant/internal/store"
	"github.com/krishimitra/assistant/pkg/log"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig

	log.Init(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalw("failed to initialize database", "error", err)
	}
	defer dbStore.Close()

	if err := dbStore.SeedProducts(store.DefaultProducts); err != nil {
		log.Fatalw("failed to seed product catalog", "error", err)
	}

	ctx := context.Background()
	gateway, err := core.NewGeminiGateway(ctx, cfg.GeminiAPIKey, cfg.ImageModel, cfg.GatewayRPM)
	if err != nil {
		log.Fatalw("failed to initialize generation gateway", "error", err)
	}
	defer gateway.Close()

	collector := metrics.NewCollector()
	tokens := auth.NewTokenManager(cfg.JWTSecret, 24*time.Hour)

	identityService := core.NewIdentityService(dbStore, tokens)
	if err := identityService.EnsureAdmin(cfg.AdminPassword); err != nil {
		log.Fatalw("failed to ensure admin account", "error", err)
	}

	chatService := core.NewChatService(gateway, dbStore, collector, cfg.ChatModel, cfg.TitleModel)
	plannerService := core.NewPlannerService(gateway, cfg.ChatModel)
	catalogService := core.NewCatalogService(dbStore)
	adminService := core.NewAdminService(dbStore, dbStore)
	editorService := core.NewEditorService(cfg.EditorRoot, gateway, cfg.ChatModel)

	apiHandler := api.NewAPIHandler(
		identityService, chatService, plannerService,
		catalogService, adminService, editorService, gateway,
	)
	router := api.NewRouter(apiHandler, collector.Handler())

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // Streaming LLM turns can run long
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infof("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("could not listen", "addr", serverAddr, "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infow("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Infow("server exiting gracefully")
}
