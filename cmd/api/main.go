package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/config"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/attachments"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/auth"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/bootstrap"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/storage/postgres"
)

const serviceName = "sunbelt-pm-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := bootstrap.OpenDB(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	rdb, err := bootstrap.OpenRedis(ctx, &cfg.Redis)
	if err != nil {
		log.Printf("Redis unavailable, report caching disabled: %v", err)
		rdb = nil
	} else {
		defer rdb.Close()
	}

	var snapshots *postgres.SnapshotStore
	sqlDB, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		log.Printf("Snapshot store unavailable: %v", err)
	} else {
		defer sqlDB.Close()
		snapshots = postgres.NewSnapshotStore(sqlDB)
	}

	authClient, err := auth.InitializeFirebase(&cfg.Firebase)
	if err != nil {
		log.Fatalf("firebase: %v", err)
	}
	if authClient == nil {
		log.Println("Firebase credentials not configured, using header-based dev auth")
	}

	var signer attachments.Signer
	presigner, err := attachments.NewPresigner(ctx, &cfg.Storage)
	if err != nil {
		log.Printf("Object storage disabled: %v", err)
	} else {
		signer = presigner
	}

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:  serviceName,
		Version:      cfg.App.Version,
		CORSOrigins:  cfg.App.CORSOrigins,
		RateLimitRPS: cfg.App.RateLimitRPS,
		RateBurst:    cfg.App.RateBurst,
		DB:           pool,
		Redis:        rdb,
		Snapshots:    snapshots,
		Auth:         authClient,
		Signer:       signer,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		log.Printf("%s v%s listening on :%s", serviceName, cfg.App.Version, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	stop()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
