package bootstrap

import (
	firebase "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/announcements"
	httpapi "github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/api/http"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/api/http/middleware"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/attachments"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/auth"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/clients"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/factories"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/projects"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/reports"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/rfis"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/storage/postgres"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/submittals"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/tasks"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/users"
)

type RouterDeps struct {
	ServiceName  string
	Version      string
	CORSOrigins  []string
	RateLimitRPS float64
	RateBurst    int

	DB        *pgxpool.Pool
	Redis     *redis.Client           // nil leaves report caching off
	Snapshots *postgres.SnapshotStore // nil leaves snapshot history off
	Auth      *firebase.Client        // nil falls back to dev auth
	Signer    attachments.Signer      // nil leaves uploads off
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.RequestID())

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(dep.RateLimitRPS, dep.RateBurst))
	api.Use(auth.Authenticate(dep.Auth))

	userRepo := users.NewRepo(dep.DB)
	api.Use(auth.WithUser(userRepo))

	users.RegisterAuthRoutes(api.Group("/auth"), userRepo)
	users.RegisterDirectoryRoutes(api.Group("/users"), userRepo)

	projectRepo := projects.NewRepo(dep.DB)
	taskRepo := tasks.NewRepo(dep.DB)
	rfiRepo := rfis.NewRepo(dep.DB)
	submittalRepo := submittals.NewRepo(dep.DB)
	factoryRepo := factories.NewRepo(dep.DB)
	clientRepo := clients.NewRepo(dep.DB)
	announcementRepo := announcements.NewRepo(dep.DB)
	attachmentRepo := attachments.NewRepo(dep.DB)

	var cache *reports.Cache
	if dep.Redis != nil {
		cache = reports.NewCache(dep.Redis)
	}
	reportSvc := reports.NewService(reports.Deps{
		Projects:   projectRepo,
		Tasks:      taskRepo,
		RFIs:       rfiRepo,
		Submittals: submittalRepo,
		Factories:  factoryRepo,
		Clients:    clientRepo,
		Cache:      cache,
		Snapshots:  snapshotSink(dep.Snapshots),
	})

	projectsGroup := api.Group("/projects")
	projects.Register(projectsGroup, projectRepo)
	tasks.RegisterProjectRoutes(projectsGroup, taskRepo)
	rfis.RegisterProjectRoutes(projectsGroup, rfiRepo)
	submittals.RegisterProjectRoutes(projectsGroup, submittalRepo)
	attachments.RegisterEntityRoutes(projectsGroup, "project", attachmentRepo, dep.Signer)
	reports.RegisterProjectSummary(projectsGroup, reportSvc)

	tasksGroup := api.Group("/tasks")
	tasks.RegisterItemRoutes(tasksGroup, taskRepo)
	attachments.RegisterEntityRoutes(tasksGroup, "task", attachmentRepo, dep.Signer)
	tasks.RegisterMyRoutes(api, taskRepo)

	rfisGroup := api.Group("/rfis")
	rfis.RegisterItemRoutes(rfisGroup, rfiRepo)
	attachments.RegisterEntityRoutes(rfisGroup, "rfi", attachmentRepo, dep.Signer)

	submittalsGroup := api.Group("/submittals")
	submittals.RegisterItemRoutes(submittalsGroup, submittalRepo)
	attachments.RegisterEntityRoutes(submittalsGroup, "submittal", attachmentRepo, dep.Signer)

	factories.Register(api.Group("/factories"), factoryRepo)
	clients.Register(api.Group("/clients"), clientRepo)
	announcements.Register(api.Group("/announcements"), announcementRepo)
	attachments.RegisterItemRoutes(api.Group("/attachments"), attachmentRepo, dep.Signer)
	reports.Register(api.Group("/reports"), reportSvc)

	return r
}

// snapshotSink keeps a nil *SnapshotStore from turning into a non-nil
// interface inside the reports service.
func snapshotSink(s *postgres.SnapshotStore) reports.SnapshotSink {
	if s == nil {
		return nil
	}
	return s
}
