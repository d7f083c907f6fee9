package main

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"project_outreach/internal/config"
	"project_outreach/internal/entities"
	"project_outreach/internal/infrastructure"
	"project_outreach/internal/interfaces"
	"project_outreach/internal/interfaces/http"
	"project_outreach/internal/logger"
	"project_outreach/internal/repository"
	"project_outreach/internal/usecases"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log, cfg.App.Name)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("service stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := infrastructure.NewPostgresClient(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pg.Close()

	if err := pg.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	accountRepo := repository.NewAccountRepository(pg.Pool)
	contactRepo := repository.NewContactRepository(pg.Pool)
	broadcastRepo := repository.NewBroadcastRepository(pg.Pool)
	mappingRepo := repository.NewChannelMappingRepository(pg.Pool)
	segmentConfigRepo := repository.NewSegmentConfigRepository(pg.Pool)
	numberRepo := repository.NewSMSNumberRepository(pg.Pool)
	templateRepo := repository.NewTemplateRepository(pg.Pool)

	if len(cfg.SMS.NumberPool) > 0 {
		added, err := numberRepo.AddToPool(ctx, cfg.SMS.NumberPool...)
		if err != nil {
			return fmt.Errorf("seed sms number pool: %w", err)
		}
		log.Info("sms number pool seeded", zap.Int("added", added))
	}

	senders := map[entities.Channel]interfaces.ChannelSender{}

	if cfg.SMS.Enabled {
		sms, err := infrastructure.NewSMSSender(ctx, cfg.SMS.Region, cfg.SMS.SMSType)
		if err != nil {
			return fmt.Errorf("sms sender: %w", err)
		}
		senders[entities.ChannelSMS] = sms
		log.Info("sms channel enabled", zap.String("provider", sms.Provider()), zap.String("region", cfg.SMS.Region))
	} else {
		log.Warn("sms channel disabled")
	}

	// A nil verifier skips chat checks; it must stay an untyped nil.
	var verifier usecases.ChatVerifier
	telegram, err := infrastructure.NewTelegramSender(cfg.Telegram.BotToken)
	if err != nil {
		return fmt.Errorf("telegram sender: %w", err)
	}
	if telegram.Enabled() {
		senders[entities.ChannelTelegram] = telegram
		verifier = telegram
		go telegram.Listen(ctx, log)
		log.Info("telegram channel enabled", zap.String("bot", telegram.BotName()))
	} else {
		log.Warn("telegram channel disabled (no bot token)")
	}

	locker, closeLocker, err := newLocker(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeLocker()

	pacer := infrastructure.NewMessageRateLimiter(cfg.Broadcast.SendRatePerSecond, cfg.Broadcast.SendBurst)
	go pacer.RunSweeper(ctx, 5*time.Minute, 30*time.Minute)

	policy := usecases.NewSegmentPolicy(cfg.Segments, segmentConfigRepo, log)
	quota := usecases.NewQuotaGuard(accountRepo, broadcastRepo, cfg.Quota.AutoRollPeriod, log)
	dispatcher := usecases.NewBroadcastDispatcher(usecases.DispatcherDeps{
		Broadcasts:  broadcastRepo,
		Mappings:    mappingRepo,
		Provisioner: numberRepo,
		Locker:      locker,
		Pacer:       pacer,
		Senders:     senders,
		Audience:    usecases.NewAudienceFinder(contactRepo, cfg.Broadcast.CandidateScanLimit),
		Quota:       quota,
		Policy:      policy,
	}, cfg.Broadcast, log)

	services := http.Services{
		Accounts:   usecases.NewAccountResolver(accountRepo, log),
		Broadcasts: dispatcher,
		Usage:      quota,
		History:    usecases.NewBroadcastHistory(broadcastRepo),
		Contacts:   usecases.NewContactUsecase(contactRepo, policy, cfg.Broadcast.CandidateScanLimit),
		Channels:   usecases.NewChannelUsecase(mappingRepo, policy, verifier, log),
		Segments:   policy,
		Templates:  usecases.NewTemplateUsecase(templateRepo, policy, cfg.Broadcast.MaxBodyLength, log),
		Billing:    usecases.NewBillingUsecase(accountRepo, log),
	}

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	middleware := http.NewMiddleware(cfg.JWT, cfg.RateLimit, log)
	go middleware.Limiter().RunSweeper(ctx, 5*time.Minute, 30*time.Minute)
	http.SetupRoutes(r, services, middleware, cfg.Server.MaxBodyBytes, log)

	srv := &nethttp.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// newLocker builds the per-tenant dispatch lock for the configured mode.
func newLocker(ctx context.Context, cfg *config.Config, log *zap.Logger) (interfaces.TenantLocker, func(), error) {
	switch cfg.Quota.LockMode {
	case config.LockModeLocal:
		log.Info("dispatch lock: in-process")
		return infrastructure.NewLocalLocker(cfg.Quota.LockWait), func() {}, nil
	case config.LockModeRedis:
		client, err := infrastructure.NewRedisClient(ctx, cfg.Redis, log)
		if err != nil {
			return nil, nil, fmt.Errorf("dispatch lock: %w", err)
		}
		log.Info("dispatch lock: redis", zap.Duration("ttl", cfg.Quota.LockTTL))
		return infrastructure.NewRedisLocker(client, cfg.Quota.LockTTL, cfg.Quota.LockWait), func() { _ = client.Close() }, nil
	default:
		log.Warn("dispatch lock disabled; concurrent broadcasts may overrun quota by one batch")
		return infrastructure.NoopLocker{}, func() {}, nil
	}
}
