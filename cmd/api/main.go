package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"giveaway-draw-bot/internal/common/config"
	"giveaway-draw-bot/internal/common/ephemeral"
	"giveaway-draw-bot/internal/common/logger"
	"giveaway-draw-bot/internal/common/middleware"
	"giveaway-draw-bot/internal/common/scheduler"
	giveawayhttp "giveaway-draw-bot/internal/features/giveaway/delivery/http"
	"giveaway-draw-bot/internal/features/giveaway/registry"
	"giveaway-draw-bot/internal/features/giveaway/repository"
	memoryrepo "giveaway-draw-bot/internal/features/giveaway/repository/memory"
	redisrepo "giveaway-draw-bot/internal/features/giveaway/repository/redis"
	"giveaway-draw-bot/internal/features/giveaway/service"
	"giveaway-draw-bot/internal/platform/mproxy"
	redisplatform "giveaway-draw-bot/internal/platform/redis"
)

func main() {
	cfg := config.Load()
	logger.Init("giveaway-draw-api", cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	var history repository.HistoryRepository
	if cfg.HasRedis() {
		rdb, err := redisplatform.Open(ctx, cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()
		history = redisrepo.NewHistoryRepository(rdb)
	} else {
		logger.Warn().Msg("REDIS_HOST not set, giveaway history is in-memory only")
		history = memoryrepo.NewHistoryRepository()
	}

	tokens := ephemeral.NewStore(time.Minute)
	defer tokens.Stop()
	sched := scheduler.New()
	defer sched.Stop()

	svc := service.NewGiveawayService(
		mproxy.NewClient(cfg.MProxy.BaseURL, cfg.MProxy.Token),
		registry.New(),
		history,
		tokens,
		sched,
		rand.Reader,
		cfg.Telegram.BotUsername,
	)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.Logger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.Server.Origin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	api := router.Group("/api/v1")
	giveawayhttp.NewGiveawayHandler(svc, cfg.Telegram.ExcludedUsernames).RegisterRoutes(api)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen failed")
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown")
	}
	logger.Info().Msg("server stopped")
}
