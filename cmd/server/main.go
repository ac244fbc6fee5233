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

	"github.com/example/prereqkit/internal/auth"
	"github.com/example/prereqkit/internal/config"
	"github.com/example/prereqkit/internal/metrics"
	"github.com/example/prereqkit/internal/receipts"
	"github.com/example/prereqkit/internal/solana"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	_ = godotenv.Load()
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := config.Load()
	metrics.BuildInfo.WithLabelValues(version, commit).Set(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	keys, err := auth.NewMongoAPIKeyStore(ctx, mongoClient, cfg.MongoDB, cfg.KeyCacheTTL)
	if err != nil {
		return err
	}
	rcpts, err := receipts.NewMongoStore(ctx, mongoClient, cfg.MongoDB)
	if err != nil {
		return err
	}
	chain := solana.NewClient(cfg.RPCURL, solana.Options{
		Commitment:        cfg.Commitment,
		RequestsPerSecond: cfg.RPCRequestsPerSecond,
		ConfirmTimeout:    cfg.ConfirmTimeout,
		PollInterval:      cfg.ConfirmPollInterval,
	})

	handler, stop, err := newHandler(cfg, deps{
		Keys:     keys,
		Creator:  keys,
		Receipts: rcpts,
		Balances: chain,
	}, log)
	if err != nil {
		return err
	}
	defer stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srv.Addr, "rpc", cfg.RPCURL, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-sigCh:
	}
	log.Info("shutting down")
	shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shCancel()
	return srv.Shutdown(shCtx)
}
