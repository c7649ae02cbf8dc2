package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"

	"railway-booking/config"
	"railway-booking/database"
	"railway-booking/handlers"
	"railway-booking/services"
	"railway-booking/store"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Printf("Starting Railway Booking System")
	log.Printf("Store backend: %s", cfg.StoreBackend)

	st, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	trains := services.NewTrainService(st, cfg.LockTimeout)
	bookings := services.NewBookingService(st, cfg.LockTimeout)

	if cfg.SeedCatalog {
		if _, err := trains.SeedCatalog(context.Background(), services.SampleCatalog()); err != nil {
			log.Fatalf("Failed to seed catalog: %v", err)
		}
	}

	// Setup Gin router
	router := handlers.NewRouter(
		&handlers.Handler{Trains: trains, Bookings: bookings},
		handlers.HeaderResolver{Header: cfg.UserHeader},
	)

	var handler http.Handler = router
	if cfg.TracingEnabled {
		handler = xray.Handler(xray.NewFixedSegmentNamer("railway-booking"), router)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: handler,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		if err := database.Connect(cfg); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.RunMigrations(database.GetDB()); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return store.NewPostgres(database.GetDB()), nil
	case config.BackendBolt:
		return store.NewBolt(cfg.BoltPath)
	default:
		return store.NewMemory(), nil
	}
}
