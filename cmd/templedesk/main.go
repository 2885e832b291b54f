// Package main is the entry point for the TempleDesk API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"templedesk/internal/cache"
	"templedesk/internal/capacity"
	"templedesk/internal/config"
	"templedesk/internal/database"
	"templedesk/internal/handlers"
	"templedesk/internal/hierarchy"
	"templedesk/internal/models"
	"templedesk/internal/qrticket"
	"templedesk/internal/router"
	"templedesk/internal/session"
	"templedesk/internal/store"
)

func main() {
	// Structured logger — outputs JSON in production, text in development.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (Redis-compatible cache + session store).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// Initialize session store backed by Valkey.
	sessionStore := session.NewStore(valkeyClient)

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	nodeStore := store.NewNodeStore(db)
	slotStore := store.NewSlotStore(db)
	bookingStore := store.NewBookingStore(db)
	settingStore := store.NewSettingStore(db)

	// Hierarchy engine: the guard fronts every structural write, and the
	// booking module registers its active-dependent check for the node
	// types that carry bookable slots.
	guard := hierarchy.NewGuard(nodeStore)
	hierarchyService := hierarchy.NewService(nodeStore, guard)
	for _, t := range []models.NodeType{models.NodeTypeTower, models.NodeTypeVenue} {
		guard.RegisterDependency(t, func(ctx context.Context, nodeID uuid.UUID) (bool, error) {
			count, err := bookingStore.CountActiveUnderNode(ctx, nodeID)
			return count > 0, err
		})
	}

	// Capacity statistics: computed on read, memoized briefly in Valkey.
	statsCache := cache.NewStatsCache(valkeyClient, cache.DefaultStatsTTL)
	aggregator := capacity.NewCachedAggregator(capacity.NewAggregator(db), statsCache)

	// Booking QR ticket issuer.
	issuer, err := qrticket.NewIssuer(cfg.TicketKey)
	if err != nil {
		slog.Error("failed to initialize ticket issuer", "error", err)
		os.Exit(1)
	}

	// Create handler groups with their dependencies.
	nodeHandlers := handlers.NewNodes(hierarchyService, aggregator)
	slotHandlers := handlers.NewSlots(slotStore, nodeStore, aggregator)
	bookingHandlers := handlers.NewBookings(bookingStore, slotStore, nodeStore, aggregator, issuer)
	settingHandlers := handlers.NewSettings(settingStore)
	authHandlers := handlers.NewAuth(sessionStore, userStore)

	// Set up the Chi router with all middleware and routes.
	r := router.New(sessionStore, nodeHandlers, slotHandlers, bookingHandlers, settingHandlers, authHandlers)

	// Create the HTTP server with sensible timeouts.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
