package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/api/routes"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/cron"
	"github.com/angelmondragon/storefront/internal/orders"
	"github.com/angelmondragon/storefront/internal/storefront"
	"github.com/angelmondragon/storefront/pkg/auth/session"
	"github.com/angelmondragon/storefront/pkg/backend"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/instance"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/migrate"
	"github.com/angelmondragon/storefront/pkg/redis"
	"github.com/angelmondragon/storefront/pkg/telegram"
)

const serviceName = "storefront-api"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Instance:    instance.GetID(),
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	sessionStore, err := session.NewStore(redisClient, cfg.Auth)
	if err != nil {
		return err
	}

	parseMode, err := enums.ParseParseMode(cfg.Telegram.ParseMode)
	if err != nil {
		return err
	}
	bot, err := telegram.NewClient(cfg.Telegram.BotToken,
		telegram.WithBaseURL(cfg.Telegram.BaseURL),
		telegram.WithTimeout(cfg.Telegram.Timeout),
		telegram.WithParseMode(parseMode),
	)
	if err != nil {
		return err
	}

	backendClient, err := backend.NewClient(cfg.Backend.BaseURL,
		backend.WithTimeout(cfg.Backend.Timeout),
		backend.WithServiceToken(cfg.Backend.ServiceToken),
	)
	if err != nil {
		return err
	}
	resources := backend.NewResources(backendClient)
	menu, err := catalog.FromResources(resources)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)
	housekeepingMetrics := metrics.NewHousekeepingMetrics(registry)

	journal, err := orders.NewJournal(orders.NewRepository(dbClient.DB()))
	if err != nil {
		return err
	}

	shoppers, err := storefront.NewSessions(storefront.Params{
		Channel:       bot,
		Contacts:      resources.TelegramContacts,
		DefaultChatID: cfg.Telegram.DefaultChatID,
		ParseMode:     parseMode,
		Journal:       journal,
		Metrics:       checkoutMetrics,
		Logger:        logg,
		IdleTTL:       cfg.Cart.IdleTTL,
		MaxSessions:   cfg.Cart.MaxSessions,
	})
	if err != nil {
		return err
	}

	jobs, err := cron.NewRegistry(storefront.NewSweepJob(shoppers, housekeepingMetrics))
	if err != nil {
		return err
	}
	housekeeping, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: jobs,
		Lock:     cron.NewLocalLock(),
		Metrics:  housekeepingMetrics,
		Interval: cfg.Cart.SweepInterval,
	})
	if err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	g, gctx := errgroup.WithContext(ctx)
	server := routes.NewServer(gctx, addr, routes.NewRouter(cfg, logg, routes.Deps{
		DB:          dbClient,
		Redis:       redisClient,
		RateLimiter: redisClient,
		Sessions:    sessionStore,
		Storefront:  shoppers,
		Catalog:     menu,
		Journal:     journal,
		Resources: func(name enums.Resource) controllers.RawResource {
			return backend.Raw(backendClient, name)
		},
		Metrics:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		HTTPMetrics: metrics.NewHTTPMetrics(registry),
	}), cfg.HTTP)

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	g.Go(func() error {
		logg.Info(logCtx, "api.listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return housekeeping.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		logg.Info(logCtx, "api.shutting_down")
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
