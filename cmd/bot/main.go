package main

import (
	"context"
	"crypto/rand"
	"os/signal"
	"syscall"
	"time"

	tele "gopkg.in/telebot.v3"

	"giveaway-draw-bot/internal/common/config"
	"giveaway-draw-bot/internal/common/ephemeral"
	"giveaway-draw-bot/internal/common/logger"
	"giveaway-draw-bot/internal/common/scheduler"
	"giveaway-draw-bot/internal/features/bot"
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
	logger.Init("giveaway-draw-bot", cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telegram.BotToken == "" {
		logger.Fatal().Msg("BOT_TOKEN is required")
	}

	tb, err := tele.NewBot(tele.Settings{
		Token:     cfg.Telegram.BotToken,
		Poller:    &tele.LongPoller{Timeout: 10 * time.Second},
		ParseMode: tele.ModeHTML,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create bot")
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

	botUsername := cfg.Telegram.BotUsername
	if tb.Me != nil && tb.Me.Username != "" {
		botUsername = tb.Me.Username
	}

	svc := service.NewGiveawayService(
		mproxy.NewClient(cfg.MProxy.BaseURL, cfg.MProxy.Token),
		registry.New(),
		history,
		tokens,
		sched,
		rand.Reader,
		botUsername,
	)

	b := bot.New(tb, svc, tokens, bot.NewStateStore(), cfg.Telegram.ExcludedUsernames, cfg.Telegram.EnablePostGiveaway)
	b.Register()

	go func() {
		<-ctx.Done()
		b.Stop()
	}()

	logger.Info().Str("username", botUsername).Msg("bot started")
	b.Start()
	logger.Info().Msg("bot stopped")
}
