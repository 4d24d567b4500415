package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"dealhawk/internal/config"
	cronrunner "dealhawk/internal/cron"
	"dealhawk/internal/db"
	"dealhawk/internal/handler"
	"dealhawk/internal/logger"
	"dealhawk/internal/notification"
	"dealhawk/internal/pricesource"
	gormrepository "dealhawk/internal/repository/gorm"
	"dealhawk/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("DH_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("DH_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)

	var source pricesource.Source = pricesource.NewClient(pricesource.Options{
		BaseURL: cfg.PriceSource.BaseURL,
		APIKey:  cfg.PriceSource.APIKey,
		Timeout: cfg.PriceSource.Timeout,
		Country: cfg.PriceSource.Country,
		Lang:    cfg.PriceSource.Lang,
	}, logger)

	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		source = &pricesource.CachedSource{
			Inner:  source,
			Client: redisClient,
			TTL:    cfg.Redis.QuoteTTL,
			Logger: logger,
		}
	}

	mailer := &notification.BrevoMailer{
		HTTP:     &http.Client{Timeout: cfg.Email.Timeout},
		BaseURL:  cfg.Email.BaseURL,
		APIKey:   cfg.Email.APIKey,
		FromMail: cfg.Email.FromEmail,
		FromName: cfg.Email.FromName,
	}

	alertSweep := &service.AlertSweepService{
		Repo:      store,
		Source:    source,
		Mailer:    mailer,
		Logger:    logger,
		LockTTL:   cfg.AlertSweep.LockTTL,
		ItemDelay: cfg.AlertSweep.ItemDelay,
	}
	wishlistRefresh := &service.WishlistRefreshService{
		Repo:      store,
		Source:    source,
		Logger:    logger,
		LockTTL:   cfg.Wishlist.LockTTL,
		ItemDelay: cfg.Wishlist.ItemDelay,
	}
	retention := &service.RetentionService{
		Repo:   store,
		Logger: logger,
		MaxAge: cfg.Retention.MaxAge,
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	jobsHandler := &handler.JobsHandler{
		Repo:    store,
		Logger:  logger,
		BaseCtx: baseCtx,
		Jobs: []handler.Job{
			{Name: service.AlertJobLock, Run: alertSweep.Run},
			{Name: service.WishlistJobLock, Run: wishlistRefresh.Run},
			{Name: "alert-retention", Run: retention.Run},
		},
	}
	jobsHandler.Register(engine)

	cronRunner := cronrunner.New(logger, baseCtx)
	if cfg.Cron.Enabled {
		_, err = cronRunner.Add(cfg.Cron.AlertSweep, func(ctx context.Context) {
			if err := alertSweep.Run(ctx); err != nil {
				logger.Warn("alert sweep failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register alert sweep failed", zap.Error(err))
		}

		_, err = cronRunner.Add(cfg.Cron.WishlistRefresh, func(ctx context.Context) {
			if err := wishlistRefresh.Run(ctx); err != nil {
				logger.Warn("wishlist refresh failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register wishlist refresh failed", zap.Error(err))
		}

		_, err = cronRunner.Add(cfg.Cron.Retention, func(ctx context.Context) {
			if err := retention.Run(ctx); err != nil {
				logger.Warn("alert retention failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register retention failed", zap.Error(err))
		}

		cronRunner.Start()
		defer cronRunner.Stop()
	} else {
		logger.Info("cron disabled, background jobs will not run")
	}

	server := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", zap.Error(err))
	}
}
