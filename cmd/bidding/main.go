package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/openbid/auction-platform/internal/bidding"
	"github.com/openbid/auction-platform/internal/bus"
	"github.com/openbid/auction-platform/internal/client"
	"github.com/openbid/auction-platform/internal/config"
	"github.com/openbid/auction-platform/internal/logger"
	"github.com/openbid/auction-platform/internal/model"
	"github.com/openbid/auction-platform/internal/outbox"
	httptransport "github.com/openbid/auction-platform/internal/transport/http"
)

func main() {
	// 1. load config
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		panic(fmt.Errorf("load config: %w", err))
	}

	// 2. init logger
	log, err := logger.NewLogger()
	if err != nil {
		panic(fmt.Errorf("init logger: %w", err))
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. postgres
	gdb, err := gorm.Open(postgres.Open(cfg.Bidding.PostgresDSN), &gorm.Config{PrepareStmt: true})
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}
	if err := gdb.AutoMigrate(&model.Bid{}, &model.AuctionReplica{}, &model.OutboxEvent{}); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	// 4. redis snapshot cache
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("redis ping: %v", err)
	}

	// 5. kafka
	publisher := bus.NewPublisher(cfg.Kafka.Brokers, log)
	defer publisher.Close()

	// 6. repo, resolver & service
	repo := bidding.NewRepository(gdb)
	auctionClient := client.NewAuctionClient(cfg.AuctionClient.BaseURL,
		time.Duration(cfg.AuctionClient.TimeoutSec)*time.Second)
	resolver := bidding.NewSnapshotResolver(repo, rdb, auctionClient,
		time.Duration(cfg.Bidding.SnapshotTTLSec)*time.Second, log)
	svc := bidding.NewService(repo, resolver, log)

	// 7. outbox sweeper
	sweeper := outbox.NewSweeper(gdb, publisher, sweepConfig(cfg.Outbox), log)
	if err := sweeper.Start(ctx); err != nil {
		log.Fatalf("start sweeper: %v", err)
	}
	defer sweeper.Stop()

	// 8. consume auction lifecycle events and ended signals
	consumer := bus.NewConsumer(bus.ConsumerConfig{
		Brokers: cfg.Kafka.Brokers,
		GroupID: "bidding",
		Topics:  []string{bus.TopicAuctions, bus.TopicAuctionEnded},
	}, svc.Handlers(), log)
	go consumer.RunLoop(ctx, 5*time.Second)

	// 9. serve
	router := httptransport.NewRouter(cfg.RateLimit, log, func(r *gin.Engine) {
		httptransport.RegisterBidHandlers(r, svc)
	})
	addr := fmt.Sprintf(":%d", cfg.Bidding.Port)
	log.Infof("bidding service listening on %s", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("listen: %v", err)
	}
}

func sweepConfig(c config.OutboxConfig) outbox.Config {
	cfg := outbox.DefaultConfig()
	if c.IntervalSec > 0 {
		cfg.Interval = time.Duration(c.IntervalSec) * time.Second
	}
	if c.GraceSec > 0 {
		cfg.GracePeriod = time.Duration(c.GraceSec) * time.Second
	}
	if c.BatchSize > 0 {
		cfg.BatchSize = c.BatchSize
	}
	return cfg
}
