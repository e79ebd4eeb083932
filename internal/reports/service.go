// Package reports assembles the dashboard tiles and the executive
// report from the feature repositories, caches them in Redis, and
// freezes nightly snapshots for trends.
package reports

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/analytics"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/clients"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/projects"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/storage/postgres"
)

// Narrow read interfaces implemented by the feature repos. Keeping
// them here lets tests feed canned facts without a database.
type ProjectSource interface {
	List(ctx context.Context, f projects.Filter) ([]projects.Project, error)
	Get(ctx context.Context, publicID string) (*projects.Project, error)
	Facts(ctx context.Context) ([]analytics.ProjectFacts, error)
}

type TaskSource interface {
	Facts(ctx context.Context, projectPublicID string) ([]analytics.TaskFacts, error)
	FactsByProject(ctx context.Context) (map[string][]analytics.TaskFacts, error)
}

type RFISource interface {
	Facts(ctx context.Context, projectPublicID string) ([]analytics.RFIFacts, error)
	FactsByProject(ctx context.Context) (map[string][]analytics.RFIFacts, error)
}

type SubmittalSource interface {
	Facts(ctx context.Context, projectPublicID string) ([]analytics.SubmittalFacts, error)
	FactsByProject(ctx context.Context) (map[string][]analytics.SubmittalFacts, error)
}

type FactorySource interface {
	Loads(ctx context.Context) ([]analytics.FactoryFacts, error)
}

type ClientSource interface {
	List(ctx context.Context, f clients.Filter) ([]clients.Client, error)
}

type SnapshotSink interface {
	Upsert(ctx context.Context, scope string, asOf time.Time, payload any) (*postgres.ReportSnapshot, error)
	List(ctx context.Context, scope string, limit int) ([]postgres.ReportSnapshot, error)
}

type DashboardStats struct {
	GeneratedAt time.Time                  `json:"generated_at"`
	Projects    analytics.ProjectSummary   `json:"projects"`
	Tasks       analytics.TaskSummary      `json:"tasks"`
	RFIs        analytics.RFISummary       `json:"rfis"`
	Submittals  analytics.SubmittalSummary `json:"submittals"`
}

// ProjectRollup is one row of the executive report's project table.
type ProjectRollup struct {
	PublicID          string `json:"public_id"`
	Number            string `json:"number,omitempty"`
	Name              string `json:"name"`
	Status            string `json:"status"`
	PercentComplete   int    `json:"percent_complete"`
	OpenTasks         int    `json:"open_tasks"`
	OverdueTasks      int    `json:"overdue_tasks"`
	OpenRFIs          int    `json:"open_rfis"`
	PendingSubmittals int    `json:"pending_submittals"`
}

type ClientActivity struct {
	PublicID     string `json:"public_id"`
	Name         string `json:"name"`
	Status       string `json:"status"`
	ProjectCount int    `json:"project_count"`
}

type ExecutiveReport struct {
	GeneratedAt    time.Time                  `json:"generated_at"`
	Projects       analytics.ProjectSummary   `json:"projects"`
	Tasks          analytics.TaskSummary      `json:"tasks"`
	RFIs           analytics.RFISummary       `json:"rfis"`
	Submittals     analytics.SubmittalSummary `json:"submittals"`
	FactoryLoads   []analytics.FactoryLoad    `json:"factory_loads"`
	ProjectRollups []ProjectRollup            `json:"project_rollups"`
	Clients        []ClientActivity           `json:"clients"`
}

// ProjectReport is the per-project summary behind the project page.
type ProjectReport struct {
	GeneratedAt time.Time                  `json:"generated_at"`
	Project     *projects.Project          `json:"project"`
	Tasks       analytics.TaskSummary      `json:"tasks"`
	RFIs        analytics.RFISummary       `json:"rfis"`
	Submittals  analytics.SubmittalSummary `json:"submittals"`
}

type Deps struct {
	Projects   ProjectSource
	Tasks      TaskSource
	RFIs       RFISource
	Submittals SubmittalSource
	Factories  FactorySource
	Clients    ClientSource
	Cache      *Cache        // nil disables caching
	Snapshots  SnapshotSink  // nil disables persistence
}

type Service struct {
	deps Deps
}

func NewService(deps Deps) *Service {
	return &Service{deps: deps}
}

// Dashboard serves the stat tiles, from cache when fresh.
func (s *Service) Dashboard(ctx context.Context) (*DashboardStats, error) {
	if s.deps.Cache != nil {
		if cached, err := s.deps.Cache.GetDashboard(ctx); err == nil {
			return cached, nil
		}
	}

	stats, err := s.BuildDashboard(ctx)
	if err != nil {
		return nil, err
	}

	if s.deps.Cache != nil {
		if err := s.deps.Cache.SetDashboard(ctx, stats); err != nil {
			log.Printf("reports: dashboard cache write failed: %v", err)
		}
	}
	return stats, nil
}

// BuildDashboard recomputes the tiles from the live tables.
func (s *Service) BuildDashboard(ctx context.Context) (*DashboardStats, error) {
	now := time.Now()

	pFacts, err := s.deps.Projects.Facts(ctx)
	if err != nil {
		return nil, err
	}
	tFacts, err := s.deps.Tasks.Facts(ctx, "")
	if err != nil {
		return nil, err
	}
	rFacts, err := s.deps.RFIs.Facts(ctx, "")
	if err != nil {
		return nil, err
	}
	sFacts, err := s.deps.Submittals.Facts(ctx, "")
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		GeneratedAt: now,
		Projects:    analytics.ProjectStats(pFacts),
		Tasks:       analytics.TaskStats(now, tFacts),
		RFIs:        analytics.RFIStats(now, rFacts),
		Submittals:  analytics.SubmittalStats(sFacts),
	}, nil
}

// Executive serves the full report, from cache unless force is set.
func (s *Service) Executive(ctx context.Context, force bool) (*ExecutiveReport, error) {
	if !force && s.deps.Cache != nil {
		if cached, err := s.deps.Cache.GetExecutive(ctx); err == nil {
			return cached, nil
		}
	}

	report, err := s.BuildExecutive(ctx)
	if err != nil {
		return nil, err
	}

	if s.deps.Cache != nil {
		if err := s.deps.Cache.SetExecutive(ctx, report); err != nil {
			log.Printf("reports: executive cache write failed: %v", err)
		}
	}
	return report, nil
}

// BuildExecutive recomputes the whole report from the live tables.
func (s *Service) BuildExecutive(ctx context.Context) (*ExecutiveReport, error) {
	now := time.Now()

	projList, err := s.deps.Projects.List(ctx, projects.Filter{})
	if err != nil {
		return nil, err
	}
	tasksByProject, err := s.deps.Tasks.FactsByProject(ctx)
	if err != nil {
		return nil, err
	}
	rfisByProject, err := s.deps.RFIs.FactsByProject(ctx)
	if err != nil {
		return nil, err
	}
	submittalsByProject, err := s.deps.Submittals.FactsByProject(ctx)
	if err != nil {
		return nil, err
	}
	factoryFacts, err := s.deps.Factories.Loads(ctx)
	if err != nil {
		return nil, err
	}
	clientList, err := s.deps.Clients.List(ctx, clients.Filter{})
	if err != nil {
		return nil, err
	}

	pFacts := make([]analytics.ProjectFacts, len(projList))
	for i, p := range projList {
		pFacts[i] = analytics.ProjectFacts{Status: p.Status, PercentComplete: p.PercentComplete}
	}

	var allTasks []analytics.TaskFacts
	for _, fs := range tasksByProject {
		allTasks = append(allTasks, fs...)
	}
	var allRFIs []analytics.RFIFacts
	for _, fs := range rfisByProject {
		allRFIs = append(allRFIs, fs...)
	}
	var allSubmittals []analytics.SubmittalFacts
	for _, fs := range submittalsByProject {
		allSubmittals = append(allSubmittals, fs...)
	}

	rollups := make([]ProjectRollup, 0, len(projList))
	for _, p := range projList {
		r := ProjectRollup{
			PublicID:        p.PublicID,
			Number:          p.Number,
			Name:            p.Name,
			Status:          p.Status,
			PercentComplete: p.PercentComplete,
		}
		for _, t := range tasksByProject[p.PublicID] {
			if t.Status != "done" {
				r.OpenTasks++
				if t.DueDate != nil && t.DueDate.Before(now) {
					r.OverdueTasks++
				}
			}
		}
		for _, rf := range rfisByProject[p.PublicID] {
			if rf.Status == "open" {
				r.OpenRFIs++
			}
		}
		for _, sub := range submittalsByProject[p.PublicID] {
			if sub.Status == "submitted" || sub.Status == "under_review" {
				r.PendingSubmittals++
			}
		}
		rollups = append(rollups, r)
	}

	activity := make([]ClientActivity, 0, len(clientList))
	for _, cl := range clientList {
		activity = append(activity, ClientActivity{
			PublicID:     cl.PublicID,
			Name:         cl.Name,
			Status:       cl.Status,
			ProjectCount: cl.ProjectCount,
		})
	}
	sort.SliceStable(activity, func(i, j int) bool {
		if activity[i].ProjectCount != activity[j].ProjectCount {
			return activity[i].ProjectCount > activity[j].ProjectCount
		}
		return activity[i].Name < activity[j].Name
	})

	return &ExecutiveReport{
		GeneratedAt:    now,
		Projects:       analytics.ProjectStats(pFacts),
		Tasks:          analytics.TaskStats(now, allTasks),
		RFIs:           analytics.RFIStats(now, allRFIs),
		Submittals:     analytics.SubmittalStats(allSubmittals),
		FactoryLoads:   analytics.FactoryLoads(factoryFacts),
		ProjectRollups: rollups,
		Clients:        activity,
	}, nil
}

// Refresh rebuilds the executive report, re-caches it, freezes today's
// snapshot, and tells listeners. Used by the HTTP trigger, the nightly
// cron, and the worker subcommand.
func (s *Service) Refresh(ctx context.Context) (*ExecutiveReport, error) {
	report, err := s.BuildExecutive(ctx)
	if err != nil {
		return nil, err
	}

	if s.deps.Cache != nil {
		if err := s.deps.Cache.SetExecutive(ctx, report); err != nil {
			log.Printf("reports: executive cache write failed: %v", err)
		}
	}
	if s.deps.Snapshots != nil {
		if _, err := s.deps.Snapshots.Upsert(ctx, ScopeExecutive, report.GeneratedAt, report); err != nil {
			log.Printf("reports: snapshot write failed: %v", err)
		}
	}
	if s.deps.Cache != nil {
		if err := s.deps.Cache.PublishRefreshed(ctx, report); err != nil {
			log.Printf("reports: refresh publish failed: %v", err)
		}
	}

	return report, nil
}

// ProjectSummary computes the per-project counters for one project.
func (s *Service) ProjectSummary(ctx context.Context, publicID string) (*ProjectReport, error) {
	p, err := s.deps.Projects.Get(ctx, publicID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	tFacts, err := s.deps.Tasks.Facts(ctx, publicID)
	if err != nil {
		return nil, err
	}
	rFacts, err := s.deps.RFIs.Facts(ctx, publicID)
	if err != nil {
		return nil, err
	}
	sFacts, err := s.deps.Submittals.Facts(ctx, publicID)
	if err != nil {
		return nil, err
	}

	return &ProjectReport{
		GeneratedAt: now,
		Project:     p,
		Tasks:       analytics.TaskStats(now, tFacts),
		RFIs:        analytics.RFIStats(now, rFacts),
		Submittals:  analytics.SubmittalStats(sFacts),
	}, nil
}

// Snapshots lists frozen reports for trend views.
func (s *Service) Snapshots(ctx context.Context, scope string, limit int) ([]postgres.ReportSnapshot, error) {
	if s.deps.Snapshots == nil {
		return []postgres.ReportSnapshot{}, nil
	}
	if scope == "" {
		scope = ScopeExecutive
	}
	return s.deps.Snapshots.List(ctx, scope, limit)
}
