// Command server wires the app accounts backend: Postgres row stores, the
// Redis permission gate, the Kafka change notifier, and the HTTP surface.
// Business logic lives in the internal services packages.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"appaccounts/internal/account"
	accounthandler "appaccounts/internal/account/handler"
	"appaccounts/internal/audit"
	"appaccounts/internal/jwttoken"
	"appaccounts/internal/lifecycle"
	"appaccounts/internal/notify"
	"appaccounts/internal/permission"
	"appaccounts/internal/platform/config"
	"appaccounts/internal/platform/httpserver"
	"appaccounts/internal/platform/metrics"
	"appaccounts/internal/platform/postgres"
	"appaccounts/internal/product"
	producthandler "appaccounts/internal/product/handler"
	"appaccounts/internal/servicetype"
	servicetypehandler "appaccounts/internal/servicetype/handler"
	"appaccounts/internal/transport"
)

func main() {
	cfg := config.FromEnv()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Error("connecting to postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error("parsing redis url", slog.Any("error", err))
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("connecting to redis", slog.Any("error", err))
		os.Exit(1)
	}

	m := metrics.New()
	gate := permission.NewRedisGate(redisClient)
	recorder := audit.NewPostgresStore(db)

	var notifier notify.Notifier
	if cfg.PublishEvents {
		kafkaNotifier, err := notify.NewKafkaNotifier(cfg.KafkaBrokers, logger)
		if err != nil {
			logger.Error("connecting to kafka", slog.Any("error", err))
			os.Exit(1)
		}
		defer kafkaNotifier.Close()
		notifier = kafkaNotifier
	}

	accountService := account.NewService(db, account.NewPostgresStore(db), gate, recorder,
		account.WithLogger(logger), account.WithMetrics(m))

	engineOpts := func() []lifecycle.Option[servicetype.ServiceType] {
		opts := []lifecycle.Option[servicetype.ServiceType]{
			lifecycle.WithLogger[servicetype.ServiceType](logger),
			lifecycle.WithMetrics[servicetype.ServiceType](m),
		}
		if notifier != nil {
			opts = append(opts, lifecycle.WithNotifier[servicetype.ServiceType](notifier))
		}
		return opts
	}
	serviceTypeService := servicetype.NewService(
		servicetype.NewPostgresStore(db), gate, recorder, accountService, engineOpts()...)

	productOpts := []lifecycle.Option[product.Product]{
		lifecycle.WithLogger[product.Product](logger),
		lifecycle.WithMetrics[product.Product](m),
	}
	if notifier != nil {
		productOpts = append(productOpts, lifecycle.WithNotifier[product.Product](notifier))
	}
	productService := product.NewService(
		product.NewPostgresStore(db), gate, recorder, accountService, productOpts...)

	validator := jwttoken.NewService(cfg.JWTSigningKey, "appaccounts")
	router := transport.NewRouter(transport.Handlers{
		Accounts:     accounthandler.New(accountService, logger),
		ServiceTypes: servicetypehandler.New(serviceTypeService, logger),
		Products:     producthandler.New(productService, logger),
	}, validator, logger)

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting appaccounts server", slog.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}
