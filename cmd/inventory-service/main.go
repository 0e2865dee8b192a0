package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/yaksok/yaksok-backend/internal/inventory/events"
	"github.com/yaksok/yaksok-backend/internal/inventory/handler"
	"github.com/yaksok/yaksok-backend/internal/inventory/repository"
	"github.com/yaksok/yaksok-backend/internal/inventory/service"
	"github.com/yaksok/yaksok-backend/pkg/config"
	"github.com/yaksok/yaksok-backend/pkg/database"
	"github.com/yaksok/yaksok-backend/pkg/httputil"
	"github.com/yaksok/yaksok-backend/pkg/logger"
	"github.com/yaksok/yaksok-backend/pkg/messaging"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("inventory-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("inventory-service", cfg.Server.Environment)
	log.Info().Msg("starting Inventory Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ. The broker is required in production; in
	// development the service runs without one and drops events.
	var rmq *messaging.RabbitMQ
	var publisher *messaging.Publisher

	rmq, err = messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		if cfg.Server.Environment == config.EnvProduction || cfg.Server.Environment == config.EnvStaging {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		log.Warn().Err(err).Msg("RabbitMQ unavailable, events disabled")
		rmq = nil
	} else {
		defer rmq.Close()
		publisher, err = messaging.NewPublisher(rmq, messaging.ExchangeInventoryEvents, "inventory-service", log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
	}

	eventPublisher := events.NewInventoryEventPublisher(publisher, log)

	// Initialize repositories
	itemRepo := repository.NewItemRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)

	// Initialize services
	classifier := service.NewClassifier(cfg.Inventory)
	inventoryService := service.NewInventoryService(db, itemRepo, batchRepo, ledgerRepo, classifier, eventPublisher, log)
	alertService := service.NewAlertService(itemRepo, batchRepo, ledgerRepo, classifier, cfg.Inventory, log)

	// Initialize handlers
	inventoryHandler := handler.NewInventoryHandler(inventoryService, log)
	statusHandler := handler.NewStatusHandler(inventoryService, log)
	alertHandler := handler.NewAlertHandler(alertService, log)

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := map[string]interface{}{
			"status":   "healthy",
			"service":  "inventory-service",
			"database": db.Health(r.Context()),
		}
		if rmq != nil {
			health["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, health)
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/inventory", func(r chi.Router) {
			r.Post("/in", inventoryHandler.ReceiveInbound)
			r.Post("/out", inventoryHandler.ConsumeOutbound)
			r.Post("/dispose", inventoryHandler.Dispose)
			r.Get("/status", statusHandler.GetStatusList)
		})

		r.Route("/items", func(r chi.Router) {
			r.Get("/", statusHandler.ListItems)
			r.Get("/{itemID}", statusHandler.GetItem)
			r.Get("/{itemID}/report", statusHandler.GetItemReport)
			r.Get("/{itemID}/stock-history", statusHandler.GetStockHistory)
			r.Get("/{itemID}/transactions", statusHandler.GetTransactions)
			r.Get("/{itemID}/usage", statusHandler.GetMonthlyUsage)
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/summary", alertHandler.GetSummary)
			r.Get("/details", alertHandler.GetDetails)
		})
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
