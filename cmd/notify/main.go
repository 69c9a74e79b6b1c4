package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openbid/auction-platform/internal/bus"
	"github.com/openbid/auction-platform/internal/config"
	"github.com/openbid/auction-platform/internal/logger"
	"github.com/openbid/auction-platform/internal/notify"
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

	// 3. websocket hub
	hub := notify.NewHub(log)
	go hub.Run(ctx)

	// 4. rebroadcast every domain event
	consumer := bus.NewConsumer(bus.ConsumerConfig{
		Brokers: cfg.Kafka.Brokers,
		GroupID: "notify",
		Topics:  []string{bus.TopicAuctions, bus.TopicBids},
	}, hub.Handlers(), log)
	go consumer.RunLoop(ctx, 5*time.Second)

	// 5. serve websocket upgrades
	router := httptransport.NewRouter(cfg.RateLimit, log, func(r *gin.Engine) {
		r.GET("/ws", func(c *gin.Context) {
			hub.ServeWS(c.Writer, c.Request)
		})
	})
	addr := fmt.Sprintf(":%d", cfg.Notify.Port)
	log.Infof("notify service listening on %s", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("listen: %v", err)
	}
}
