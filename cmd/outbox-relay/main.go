package main

import (
	"context"
	"net/http"
	"time"

	"github.com/example/roombook/internal/outbox"
	"github.com/example/roombook/internal/storage"
	"github.com/example/roombook/libs/config"
	"github.com/example/roombook/libs/db"
	otelx "github.com/example/roombook/libs/otel"
	"github.com/example/roombook/libs/runtime"
)

func main() {
	service := config.String("SERVICE_NAME", "outbox-relay")
	port, err := config.Port("PORT", "8090")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if config.String("ENSURE_SCHEMA", "false") == "true" {
		if err := storage.EnsureSchema(ctx, pool); err != nil {
			logger.Error("schema bootstrap failed", "err", err)
			panic(err)
		}
	}

	pollEvery, err := config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second)
	if err != nil {
		panic(err)
	}

	mux := runtime.NewBaseMuxWithReady(runtime.ReadyCheck{Name: "postgres", Check: db.ReadyCheck(pool)})
	srv := &http.Server{Addr: ":" + port, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", "err", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	publisher := outbox.NewPublisher(pool, outbox.NewRepository(pool), logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: pollEvery,
		BatchSize: 50,
	})

	logger.Info("outbox relay started", "port", port)
	publisher.Run(ctx)
	logger.Info("outbox relay stopped")
}
