package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/veliqo/commerce/internal/catalog"
	"github.com/veliqo/commerce/internal/config"
	"github.com/veliqo/commerce/internal/httpx"
	kafkax "github.com/veliqo/commerce/internal/kafka"
	"github.com/veliqo/commerce/internal/orders"
	"github.com/veliqo/commerce/internal/postgres"
	"github.com/veliqo/commerce/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.MigrateOnStart {
		if err := postgres.Migrate(cfg.PostgresDSN); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024)
	prod.Start(ctx)

	cat := &catalog.PGCatalog{DB: db}
	placer := &orders.PlacementService{
		Store:   &orders.PGStore{DB: db},
		Catalog: cat,
		Tenants: cat,
	}

	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{
		Placer:   placer,
		Reader:   &orders.Repo{DB: db},
		Redis:    rdb,
		Producer: prod,
		Service:  cfg.ServiceName,
	}
	oh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()
	cancel()
	prod.WaitClosed()
}
