package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/openbid/auction-platform/internal/auction"
	"github.com/openbid/auction-platform/internal/bus"
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
	gdb, err := gorm.Open(postgres.Open(cfg.Auction.PostgresDSN), &gorm.Config{PrepareStmt: true})
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}
	if err := gdb.AutoMigrate(&model.Auction{}, &model.OutboxEvent{}); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	// 4. kafka
	publisher := bus.NewPublisher(cfg.Kafka.Brokers, log)
	defer publisher.Close()

	// 5. repo & service
	repo := auction.NewRepository(gdb)
	svc := auction.NewService(repo, log)

	// 6. outbox sweeper
	sweeper := outbox.NewSweeper(gdb, publisher, sweepConfig(cfg.Outbox), log)
	if err := sweeper.Start(ctx); err != nil {
		log.Fatalf("start sweeper: %v", err)
	}
	defer sweeper.Stop()

	// 7. deadline scanner publishes ended signals
	scanner := auction.NewScanner(repo, publisher,
		time.Duration(cfg.Auction.ScanIntervalSec)*time.Second, log)
	scanner.Start(ctx)
	defer scanner.Stop()

	// 8. consume AuctionFinished back from the finalizer
	consumer := bus.NewConsumer(bus.ConsumerConfig{
		Brokers: cfg.Kafka.Brokers,
		GroupID: "auction",
		Topics:  []string{bus.TopicAuctions},
	}, svc.Handlers(), log)
	go consumer.RunLoop(ctx, 5*time.Second)

	// 9. serve
	router := httptransport.NewRouter(cfg.RateLimit, log, func(r *gin.Engine) {
		httptransport.RegisterAuctionHandlers(r, svc)
	})
	addr := fmt.Sprintf(":%d", cfg.Auction.Port)
	log.Infof("auction service listening on %s", addr)
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
