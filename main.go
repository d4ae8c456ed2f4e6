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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tripconcierge/internal/api"
	"tripconcierge/internal/config"
	"tripconcierge/internal/logger"
	"tripconcierge/internal/observability"
	"tripconcierge/internal/service/ai"
	"tripconcierge/internal/service/reply"
	"tripconcierge/internal/service/trips"
	"tripconcierge/internal/service/weather"
)

func main() {
	cfgPath := os.Getenv("TRIPCONCIERGE_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := trips.Open(ctx, cfg.Store, zapLog)
	if err != nil {
		zapLog.Error("trip store disabled", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	if store != nil {
		defer store.Close()
	}

	gateway, err := ai.NewGateway(ctx, cfg.Provider, cfg.BasicConfig.FrontendURL)
	if err != nil {
		zapLog.Fatal("init model gateway", zap.Error(err))
	}
	metrics := observability.New("trip-concierge", zapLog)
	defer metrics.Shutdown(context.Background())

	chat := ai.NewService(gateway, reply.NewProcessor(cfg.Images.BaseURL, nil), zapLog)
	handlers := api.NewHandler(
		chat,
		trips.NewService(store, zapLog),
		weather.NewRelay(cfg.Weather),
		metrics,
		zapLog,
	)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), logger.GinMiddleware(zapLog), metrics.GinMiddleware(), corsMiddleware(cfg.BasicConfig.CORSOrigins))
	handlers.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.BasicConfig.ServerAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zapLog.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("provider", cfg.Provider.Kind),
			zap.String("model", cfg.Provider.Model),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("shutdown", zap.Error(err))
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		})
	}
	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
	})
}
