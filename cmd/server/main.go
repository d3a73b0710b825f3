package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/creperia-pos/api/internal/catalog"
	"github.com/creperia-pos/api/internal/config"
	"github.com/creperia-pos/api/internal/database"
	"github.com/creperia-pos/api/internal/printer"
	"github.com/creperia-pos/api/internal/router"
	"github.com/creperia-pos/api/internal/service"
	"github.com/creperia-pos/api/internal/ws"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	queries := database.New(pool)
	cache := catalog.NewCache(catalog.NewStoreReader(queries), cfg.CatalogTTL)
	if _, err := cache.Refresh(ctx); err != nil {
		log.Fatalf("Unable to load catalog: %v", err)
	}

	receipts := printer.Multi{printer.LogPrinter{}}
	if cfg.AMQPURL != "" {
		conn, err := printer.DialQueue(cfg.AMQPURL, cfg.PrintQueue)
		if err != nil {
			log.Fatalf("Unable to connect to print queue: %v", err)
		}
		defer conn.Close()
		receipts = append(receipts, conn.Printer(cfg.PrintQueue))
		log.Printf("Printing receipts to queue %q", cfg.PrintQueue)
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		tg, err := printer.DialTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Fatalf("Unable to connect to Telegram: %v", err)
		}
		receipts = append(receipts, tg)
		log.Println("Sending receipts to Telegram")
	}

	hub := ws.NewHub()
	go hub.Run(ctx)

	opts := service.Options{
		StartingCounter: cfg.OrderNumberStart,
		StockPolicy:     cfg.StockPolicy,
		MaxRetries:      cfg.MaxTxRetries,
		Printer:         receipts,
		PrintTimeout:    cfg.PrintTimeout,
		Events:          hub,
		OnStockChange:   cache.Invalidate,
	}
	orders := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}, opts)
	stock := service.NewStockService(pool, func(db database.DBTX) service.StockStore {
		return database.New(db)
	}, opts)

	r := router.New(ctx, cfg, router.Deps{
		Catalog:    cache,
		Orders:     orders,
		OrderStore: queries,
		Stock:      stock,
		Hub:        hub,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Println("Shutting down")
	case err := <-errCh:
		log.Printf("ERROR: server: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: shutdown: %v", err)
	}
}
