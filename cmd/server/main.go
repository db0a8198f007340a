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

	"nthanda/config"
	"nthanda/internal/database"
	"nthanda/internal/repository"
	"nthanda/internal/router"
	"nthanda/internal/worker"
	"nthanda/internal/ws"
	"nthanda/pkg/rates"
)

func main() {
	cfg := config.Load()
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rateTable := rates.NewTable(cfg.Rates.GBPToMWK)
	if cfg.Rates.BaseURL != "" {
		client := rates.NewClient(cfg.Rates.BaseURL, cfg.Rates.APIKey)
		go client.Refresh(ctx, rateTable, cfg.Rates.RefreshInterval)
	} else {
		log.Printf("[RATES] RATES_BASE_URL not set; using static GBP/MWK rate %.2f", cfg.Rates.GBPToMWK)
	}

	hub := ws.NewPaymentsHub()
	txnRepo := repository.NewTransactionRepository(db)
	sweeper := worker.NewExpiryWorker(txnRepo, txnRepo, hub, cfg.Checkout.PendingMaxAge, cfg.Checkout.SweepInterval)
	go sweeper.Run(ctx)

	engine := router.Setup(cfg, db, router.Deps{
		Rates:    rateTable,
		Hub:      hub,
		Adapters: router.BuildAdapters(cfg),
	})
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("server shutdown:", err)
	}
	fmt.Println("server stopped")
}
