package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/config"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/announcements"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/bootstrap"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/clients"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/db"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/factories"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/jobs"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/projects"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/reports"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/rfis"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/storage/postgres"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/submittals"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/tasks"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: worker run|snapshot|sweep|migrate")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	pool, err := bootstrap.OpenDB(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	rdb, err := bootstrap.OpenRedis(ctx, &cfg.Redis)
	if err != nil {
		log.Printf("Redis unavailable, snapshots will not be cached: %v", err)
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

	reportSvc := buildReports(pool, rdb, snapshots)
	announcementRepo := announcements.NewRepo(pool)

	switch os.Args[1] {
	case "run":
		sched := jobs.NewScheduler(reportSvc, announcementRepo)
		sched.Start()
		defer sched.Stop()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Println("Worker shutting down...")
	case "snapshot":
		jobs.RunSnapshot(reportSvc)
	case "sweep":
		jobs.RunSweep(announcementRepo)
	case "migrate":
		if err := db.Migrate(ctx, pool); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		log.Println("Migrations applied")
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func buildReports(pool *pgxpool.Pool, rdb *redis.Client, snapshots *postgres.SnapshotStore) *reports.Service {
	var cache *reports.Cache
	if rdb != nil {
		cache = reports.NewCache(rdb)
	}

	var sink reports.SnapshotSink
	if snapshots != nil {
		sink = snapshots
	}

	return reports.NewService(reports.Deps{
		Projects:   projects.NewRepo(pool),
		Tasks:      tasks.NewRepo(pool),
		RFIs:       rfis.NewRepo(pool),
		Submittals: submittals.NewRepo(pool),
		Factories:  factories.NewRepo(pool),
		Clients:    clients.NewRepo(pool),
		Cache:      cache,
		Snapshots:  sink,
	})
}
