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

	"github.com/openbid/auction-platform/internal/bus"
	"github.com/openbid/auction-platform/internal/client"
	"github.com/openbid/auction-platform/internal/config"
	"github.com/openbid/auction-platform/internal/logger"
	"github.com/openbid/auction-platform/internal/model"
	"github.com/openbid/auction-platform/internal/search"
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
	gdb, err := gorm.Open(postgres.Open(cfg.Search.PostgresDSN), &gorm.Config{PrepareStmt: true})
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}
	if err := gdb.AutoMigrate(&model.SearchRecord{}); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	// 4. projector: catch up from the watermark, then follow events
	repo := search.NewRepository(gdb)
	auctionClient := client.NewAuctionClient(cfg.AuctionClient.BaseURL,
		time.Duration(cfg.AuctionClient.TimeoutSec)*time.Second)
	projector := search.NewProjector(repo, auctionClient, log)
	if err := projector.CatchUp(ctx); err != nil {
		// Events still arrive and the next restart reconciles; don't die.
		log.Errorf("catch-up failed: %v", err)
	}

	consumer := bus.NewConsumer(bus.ConsumerConfig{
		Brokers: cfg.Kafka.Brokers,
		GroupID: "search",
		Topics:  []string{bus.TopicAuctions},
	}, projector.Handlers(), log)
	go consumer.RunLoop(ctx, 5*time.Second)

	// 5. serve
	router := httptransport.NewRouter(cfg.RateLimit, log, func(r *gin.Engine) {
		httptransport.RegisterSearchHandlers(r, repo)
	})
	addr := fmt.Sprintf(":%d", cfg.Search.Port)
	log.Infof("search service listening on %s", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("listen: %v", err)
	}
}
