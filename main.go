package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"menugen-studio/internal/api"
	"menugen-studio/internal/config"
	"menugen-studio/internal/gateway"
	"menugen-studio/internal/studio"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	zapLog, err := newLogger(cfg)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer zapLog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw, err := gateway.Dial(ctx, cfg.GeminiAPIKey, gateway.Config{
		TextModel:  cfg.TextModel,
		ImageModel: cfg.ImageModel,
		EditModel:  cfg.EditModel,
	}, zapLog.Named("gateway"))
	if err != nil {
		zapLog.Fatal("Failed to initialize AI gateway", zap.Error(err))
	}

	registry := studio.NewRegistry(gw, cfg.SessionIdleTTL, zapLog.Named("studio"))
	go registry.Run(ctx)

	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}
	server := api.NewServer(registry, api.Options{
		AllowOrigins:   cfg.CORSAllowOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, zapLog.Named("api"))

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLog.Info("Starting server", zap.String("addr", cfg.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Failed to shut down server", zap.Error(err))
	}

	// Image requests already started run to completion.
	registry.Wait()
	zapLog.Info("Server stopped")
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.Development() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
