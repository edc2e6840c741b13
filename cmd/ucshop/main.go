package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ucshop/internal/config"
	"ucshop/internal/httpx"
	kafkax "ucshop/internal/kafka"
	"ucshop/internal/notify"
	"ucshop/internal/orders"
	"ucshop/internal/postgres"
	"ucshop/internal/processor"
	"ucshop/internal/redeem"
	"ucshop/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Secret2 == "" {
		// verification fails closed without it; better to refuse to start
		slog.Error("FREEKASSA_SECRET_2 is not set")
		os.Exit(1)
	}

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		slog.Error("db connect failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := postgres.InitSchema(ctx, db); err != nil {
		slog.Error("schema init failed", "error", err)
		os.Exit(1)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024)
	prod.Start(ctx)

	// Redeemer: real provider or the simulator for demo deployments
	var redeemer processor.Redeemer
	if cfg.RedeemSimulate {
		slog.Warn("redeem simulation enabled, no real entitlements will be issued")
		redeemer = &redeem.Simulator{}
	} else {
		redeemer = redeem.NewClient(cfg.RedeemerURL, cfg.RedeemerAPIKey, cfg.RedeemTimeout)
	}

	proc := &processor.Processor{
		Store:         &orders.Repo{DB: db},
		Redeemer:      redeemer,
		Notifier:      notify.NewTelegram(cfg.TelegramToken),
		Producer:      prod,
		Guard:         &redisx.Guard{RDB: rdb},
		Secret:        cfg.Secret2,
		Service:       cfg.ServiceName,
		RedeemTimeout: cfg.RedeemTimeout,
	}

	router := httpx.NewRouter()
	h := &httpx.CallbackHandler{Processor: proc}
	h.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		slog.Info("HTTP listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	slog.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()      // close inbox -> flush & close writer
	cancel()          // stop producer loop
	prod.WaitClosed() // drain
}
