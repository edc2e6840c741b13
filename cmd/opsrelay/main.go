package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ucshop/internal/config"
	kafkax "ucshop/internal/kafka"
	"ucshop/internal/notify"
	"ucshop/internal/opsrelay"
	"ucshop/internal/orders"
	"ucshop/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OpsChatID == 0 {
		slog.Error("OPS_CHAT_ID is not set")
		os.Exit(1)
	}

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &opsrelay.Service{
		Notifier:  notify.NewTelegram(cfg.TelegramToken),
		Dedup:     &redisx.Dedup{RDB: rdb, Service: "opsrelay"},
		OpsChatID: cfg.OpsChatID,
	}

	group := getenv("OPSRELAY_GROUP", "opsrelay")
	workers := mustAtoi(os.Getenv("OPSRELAY_WORKERS"), "2")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicFulfillmentFailed, workers)

	go func() {
		slog.Info("opsrelay consumer started",
			"group", group, "topic", orders.TopicFulfillmentFailed, "workers", workers)
		if err := cons.Start(ctx, svc.HandleEvent); err != nil {
			slog.Error("consumer exited", "error", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	slog.Info("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}
