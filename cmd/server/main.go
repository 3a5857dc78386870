package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"alsaraya/internal/catalog"
	"alsaraya/internal/config"
	"alsaraya/internal/diagnostics"
	"alsaraya/internal/infrastructure/kafka"
	"alsaraya/internal/infrastructure/logger"
	"alsaraya/internal/infrastructure/mysql"
	"alsaraya/internal/infrastructure/redis"
	"alsaraya/internal/order"
	"alsaraya/internal/order/submitter"
	"alsaraya/internal/order/translator"
	"alsaraya/internal/order/usecase"
	"alsaraya/internal/pos"
	"alsaraya/internal/pos/token"
	"alsaraya/internal/product"
	productrepo "alsaraya/internal/product/repository"
	"alsaraya/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Service)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected")

	var statusCache usecase.StatusCache = redis.NopStatusCache{}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(cfg.Redis)
		defer rdb.Close()
		statusCache = redis.NewStatusCache(rdb, cfg.Redis.StatusTTL)
		zapLogger.Info("status cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	var fallbackSink interface {
		submitter.FallbackSink
		Close() error
	} = kafka.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		fallbackSink = kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.FallbackTopic, cfg.Log.Service, zapLogger)
		zapLogger.Info("manual-entry publishing enabled", zap.String("topic", cfg.Kafka.FallbackTopic))
	}
	defer func() {
		if err := fallbackSink.Close(); err != nil {
			zapLogger.Warn("closing kafka publisher", zap.Error(err))
		}
	}()

	posClient := pos.NewClient(cfg.POS, nil, zapLogger)
	tokens := token.NewCache(posClient, cfg.POS.TokenTTL, cfg.POS.TokenSafetyMargin, zapLogger,
		token.WithRefreshTimeout(cfg.POS.HTTPTimeout))
	sub := submitter.New(
		translator.New(cfg.POS, cfg.Delivery),
		tokens,
		posClient,
		fallbackSink,
		submitter.Config{
			PollAttempts: cfg.POS.StatusPollAttempts,
			PollInterval: cfg.POS.StatusPollInterval,
		},
		zapLogger,
	)

	products := productrepo.NewMySQLRepository(db)
	productCtrl := product.NewModule(products, zapLogger)
	orderCtrl := order.NewModule(db, sub, statusCache, products, cfg, zapLogger)

	reconciler := catalog.NewReconciler(tokens, posClient, products, cfg.POS.MenuID, zapLogger)
	diagSvc := diagnostics.NewService(tokens, posClient, reconciler,
		cfg.POS.OrganizationID, cfg.POS.TerminalGroupID, zapLogger)
	diagCtrl := diagnostics.NewController(diagSvc, zapLogger)

	router := server.NewRouter(productCtrl, orderCtrl, diagCtrl, cfg.Server.WriteTimeout, zapLogger)
	srv := server.New(cfg.Server, router, zapLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		zapLogger.Info("received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.Sync.Enabled {
		scheduler := catalog.NewScheduler(reconciler, cfg.Sync.Interval, zapLogger)
		g.Go(func() error {
			return scheduler.Run(gctx)
		})
	} else {
		zapLogger.Info("catalog sync disabled")
	}

	if err := g.Wait(); err != nil {
		zapLogger.Error("server stopped with error", zap.Error(err))
		return
	}

	zapLogger.Info("server stopped gracefully")
}
