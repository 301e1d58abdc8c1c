package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/routes"
	adminsvc "github.com/angelmondragon/storefront-backend/internal/admin"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/i18n"
	"github.com/angelmondragon/storefront-backend/internal/miniapp"
	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/toast"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/telegram"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(runCtx, cfg.DB, logg)
	requireResource(runCtx, logg, "database", err)

	if err := migrate.MaybeRunDev(runCtx, cfg, logg, dbClient); err != nil {
		logg.Error(runCtx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(runCtx, cfg.Redis, logg)
	requireResource(runCtx, logg, "redis", err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	storefrontMetrics := metrics.NewStorefrontMetrics(registry)

	catalogRepo := catalog.NewRepository(dbClient.DB())
	catalogService, err := catalog.NewService(catalogRepo)
	requireResource(runCtx, logg, "catalog service", err)

	cartService, err := cart.NewService(redisClient, catalogService, cfg.Cart.SnapshotTTL, logg, storefrontMetrics,
		cart.WithIdleTimeout(cfg.Session.IdleTimeout))
	requireResource(runCtx, logg, "cart service", err)

	ordersService, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient, storefrontMetrics)
	requireResource(runCtx, logg, "orders service", err)

	notifier := notifications.NewService(nil, "", logg)
	if cfg.Telegram.NotificationsEnabled() {
		bot, err := telegram.NewClient(cfg.Telegram.BotToken,
			telegram.WithBaseURL(cfg.Telegram.APIBaseURL),
			telegram.WithTimeout(cfg.Telegram.Timeout),
		)
		requireResource(runCtx, logg, "telegram client", err)
		notifier = notifications.NewService(bot, cfg.Telegram.AdminChatID, logg)
	} else {
		logg.Warn(runCtx, "telegram credentials missing, order notifications disabled")
	}

	checkoutService, err := checkout.NewService(cartService, ordersService, notifier, checkout.Config{
		ClearDelay:          cfg.Checkout.ClearDelay,
		NotificationTimeout: cfg.Checkout.NotificationTimeout,
	}, logg, storefrontMetrics, checkout.WithIdleTimeout(cfg.Session.IdleTimeout))
	requireResource(runCtx, logg, "checkout service", err)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT.TTL())
	requireResource(runCtx, logg, "session manager", err)

	authenticator, err := adminsvc.NewAuthenticator(cfg.Admin, cfg.JWT, sessionManager)
	requireResource(runCtx, logg, "admin authenticator", err)

	adminService, err := adminsvc.NewService(catalogRepo, ordersService, dbClient)
	requireResource(runCtx, logg, "admin service", err)

	defaultLocale, err := enums.ParseLocale(cfg.I18n.DefaultLocale)
	requireResource(runCtx, logg, "default locale", err)
	bundle, err := i18n.LoadEmbedded(defaultLocale)
	requireResource(runCtx, logg, "translation catalogs", err)
	preferences, err := i18n.NewPreferences(redisClient, cfg.I18n.PreferenceTTL)
	requireResource(runCtx, logg, "locale preferences", err)

	toasts := toast.NewBoard(cfg.Session.IdleTimeout,
		toast.WithDefaultDuration(cfg.Toast.DefaultDuration),
		toast.WithMaxEntries(cfg.Toast.MaxEntries),
	)

	handler := routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, routes.Services{
		Catalog:   catalogService,
		Cart:      cartService,
		Checkout:  checkoutService,
		Toasts:    toasts,
		Localizer: controllers.NewLocalizer(bundle, preferences, logg),
		MiniApp:   miniapp.NewService(cfg.Telegram, cfg.Storefront),
		Admin:     adminService,
		AdminAuth: authenticator,
		Metrics:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(runCtx, map[string]any{
		"env":            cfg.App.Env,
		"addr":           addr,
		"db_dialect":     cfg.DB.Dialect(),
		"default_locale": defaultLocale.String(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutting down api server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	var closeErr error
	closeErr = multierr.Append(closeErr, server.Shutdown(shutdownCtx))
	toasts.Close()
	closeErr = multierr.Append(closeErr, redisClient.Close())
	closeErr = multierr.Append(closeErr, dbClient.Close())
	if closeErr != nil {
		for _, err := range multierr.Errors(closeErr) {
			logg.Error(ctx, "error during shutdown", err)
		}
		exitCode = 1
	}
	logg.Info(ctx, "api server stopped")
	os.Exit(exitCode)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
