package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dreamcraft-ai/dreamcraft/internal/config"
	"github.com/dreamcraft-ai/dreamcraft/internal/db"
	"github.com/dreamcraft-ai/dreamcraft/internal/httpapi"
	"github.com/dreamcraft-ai/dreamcraft/internal/store/rabbitmq"
	"github.com/dreamcraft-ai/dreamcraft/internal/store/redisstore"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	gdb, err := db.Connect(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	var rds *redisstore.Store
	if cfg.RedisAddr != "" {
		rds = redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		pctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rds.Ping(pctx); err != nil {
			log.Printf("redis unavailable, shared revision locks disabled: %v", err)
			rds = nil
		}
		cancel()
	}

	var pub *rabbitmq.Publisher
	if cfg.RabbitURL != "" {
		pub, err = rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			log.Printf("rabbit unavailable, async revisions disabled: %v", err)
			pub = nil
		}
	}

	r, h := httpapi.NewRouter(gdb, cfg, rds, pub)

	srv := &http.Server{Addr: cfg.Addr, Handler: r}

	go func() {
		log.Printf("api listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// flush open builder sessions so pending autosaves are not lost
	h.Sessions.CloseAll(shutdownCtx)

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if pub != nil {
		_ = pub.Close()
	}
	if rds != nil {
		_ = rds.Close()
	}
}
