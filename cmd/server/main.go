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

	"restaurant-service/config"
	"restaurant-service/internal/api"
	"restaurant-service/internal/broker"
	"restaurant-service/internal/redisclient"
	"restaurant-service/internal/service"
	"restaurant-service/internal/store"
	"restaurant-service/internal/util"
	"restaurant-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting restaurant service")

	tp, err := util.InitTracer("restaurant-service", cfg.Server.Env, cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	auditProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicAudit)
	tableProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicTableState)
	eventPublisher := broker.NewEventPublisher(auditProducer, tableProducer)
	defer eventPublisher.Close()
	log.Println("Kafka producers initialized")

	auditor := service.NewAuditor(eventPublisher)

	orderService := service.NewOrderService(db, auditor, cfg.Business.OrderNumberLength)
	paymentService := service.NewPaymentService(db, auditor)
	reservationService := service.NewReservationService(db, auditor, cfg.Business.ReservationDefaultDuration)
	blockService := service.NewBlockService(db, auditor)
	floorService := service.NewFloorService(db, redisClient, auditor)
	kitchenService := service.NewKitchenService(db, cfg.Business.KitchenUrgentThreshold)

	warmTableCache(db, redisClient)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	tableConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicTableState, cfg.Kafka.ConsumerGroup)
	tableWorker := worker.NewTableStateWorker(tableConsumer, redisClient)
	go func() {
		if err := tableWorker.Start(workerCtx); err != nil && err != context.Canceled {
			log.Printf("Table state worker error: %v", err)
		}
	}()

	blockScheduler := worker.NewBlockScheduler(blockService, redisClient, cfg.Business.BlockSchedulerInterval)
	go func() {
		if err := blockScheduler.Start(workerCtx); err != nil && err != context.Canceled {
			log.Printf("Block scheduler error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(orderService, paymentService, reservationService,
		blockService, floorService, kitchenService)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	tableWorker.Stop()

	log.Println("Server exited")
}

// warmTableCache primes the Redis floor cache from database state so the
// realtime layout is correct before the first event arrives.
func warmTableCache(db *store.Store, redisClient *redisclient.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	floors, err := db.ListFloors(ctx)
	if err != nil {
		log.Printf("Failed to warm table cache: %v", err)
		return
	}

	states := make(map[int64]string)
	for _, floor := range floors {
		zones, err := db.ListZonesByFloor(ctx, floor.ID)
		if err != nil {
			continue
		}
		for _, zone := range zones {
			tables, err := db.ListTablesByZone(ctx, zone.ID)
			if err != nil {
				continue
			}
			for _, mesa := range tables {
				states[mesa.ID] = mesa.Estado
			}
		}
	}

	if len(states) == 0 {
		return
	}
	if err := redisClient.WarmTableStates(ctx, states); err != nil {
		log.Printf("Failed to warm table cache: %v", err)
		return
	}
	log.Printf("Table cache warmed: %d tables", len(states))
}
