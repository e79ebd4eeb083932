package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/analytics"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/clients"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/projects"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/storage/postgres"
)

type fakeProjects struct {
	list []projects.Project
}

func (f *fakeProjects) List(_ context.Context, _ projects.Filter) ([]projects.Project, error) {
	return f.list, nil
}

func (f *fakeProjects) Get(_ context.Context, publicID string) (*projects.Project, error) {
	for i := range f.list {
		if f.list[i].PublicID == publicID {
			return &f.list[i], nil
		}
	}
	return nil, projects.ErrNotFound
}

func (f *fakeProjects) Facts(_ context.Context) ([]analytics.ProjectFacts, error) {
	out := make([]analytics.ProjectFacts, len(f.list))
	for i, p := range f.list {
		out[i] = analytics.ProjectFacts{Status: p.Status, PercentComplete: p.PercentComplete}
	}
	return out, nil
}

type fakeTasks struct {
	byProject map[string][]analytics.TaskFacts
}

func (f *fakeTasks) Facts(_ context.Context, projectPublicID string) ([]analytics.TaskFacts, error) {
	if projectPublicID != "" {
		return f.byProject[projectPublicID], nil
	}
	var all []analytics.TaskFacts
	for _, fs := range f.byProject {
		all = append(all, fs...)
	}
	return all, nil
}

func (f *fakeTasks) FactsByProject(_ context.Context) (map[string][]analytics.TaskFacts, error) {
	return f.byProject, nil
}

type fakeRFIs struct {
	byProject map[string][]analytics.RFIFacts
}

func (f *fakeRFIs) Facts(_ context.Context, projectPublicID string) ([]analytics.RFIFacts, error) {
	if projectPublicID != "" {
		return f.byProject[projectPublicID], nil
	}
	var all []analytics.RFIFacts
	for _, fs := range f.byProject {
		all = append(all, fs...)
	}
	return all, nil
}

func (f *fakeRFIs) FactsByProject(_ context.Context) (map[string][]analytics.RFIFacts, error) {
	return f.byProject, nil
}

type fakeSubmittals struct {
	byProject map[string][]analytics.SubmittalFacts
}

func (f *fakeSubmittals) Facts(_ context.Context, projectPublicID string) ([]analytics.SubmittalFacts, error) {
	if projectPublicID != "" {
		return f.byProject[projectPublicID], nil
	}
	var all []analytics.SubmittalFacts
	for _, fs := range f.byProject {
		all = append(all, fs...)
	}
	return all, nil
}

func (f *fakeSubmittals) FactsByProject(_ context.Context) (map[string][]analytics.SubmittalFacts, error) {
	return f.byProject, nil
}

type fakeFactories struct {
	facts []analytics.FactoryFacts
}

func (f *fakeFactories) Loads(_ context.Context) ([]analytics.FactoryFacts, error) {
	return f.facts, nil
}

type fakeClients struct {
	list []clients.Client
}

func (f *fakeClients) List(_ context.Context, _ clients.Filter) ([]clients.Client, error) {
	return f.list, nil
}

type upsertCall struct {
	scope string
	asOf  time.Time
}

type fakeSink struct {
	upserts []upsertCall
	listed  []string
}

func (f *fakeSink) Upsert(_ context.Context, scope string, asOf time.Time, _ any) (*postgres.ReportSnapshot, error) {
	f.upserts = append(f.upserts, upsertCall{scope: scope, asOf: asOf})
	return &postgres.ReportSnapshot{ID: "uuid-1", Scope: scope, AsOf: asOf}, nil
}

func (f *fakeSink) List(_ context.Context, scope string, limit int) ([]postgres.ReportSnapshot, error) {
	f.listed = append(f.listed, scope)
	return []postgres.ReportSnapshot{{ID: "uuid-1", Scope: scope}}, nil
}

func testDeps() (Deps, *fakeSink) {
	yesterday := time.Now().AddDate(0, 0, -1)
	tomorrow := time.Now().AddDate(0, 0, 1)
	sink := &fakeSink{}

	deps := Deps{
		Projects: &fakeProjects{list: []projects.Project{
			{PublicID: "proj-11111-0001", Number: "24-101", Name: "Lakeside Clinic", Status: "active", PercentComplete: 40},
			{PublicID: "proj-11111-0002", Number: "24-102", Name: "Mill Creek Office", Status: "planning", PercentComplete: 5},
		}},
		Tasks: &fakeTasks{byProject: map[string][]analytics.TaskFacts{
			"proj-11111-0001": {
				{Status: "todo", DueDate: &yesterday},
				{Status: "in_progress", DueDate: &tomorrow},
				{Status: "done"},
			},
			"proj-11111-0002": {
				{Status: "todo"},
			},
		}},
		RFIs: &fakeRFIs{byProject: map[string][]analytics.RFIFacts{
			"proj-11111-0001": {
				{Status: "open", CreatedAt: yesterday},
				{Status: "answered", CreatedAt: yesterday, AnsweredAt: &tomorrow},
			},
		}},
		Submittals: &fakeSubmittals{byProject: map[string][]analytics.SubmittalFacts{
			"proj-11111-0001": {
				{Status: "submitted", SubmittedAt: &yesterday},
				{Status: "approved", SubmittedAt: &yesterday, ReviewedAt: &tomorrow},
			},
		}},
		Factories: &fakeFactories{facts: []analytics.FactoryFacts{
			{PublicID: "fac-11111-0001", Name: "Tulsa", Status: "active", Capacity: 10, ActiveProjects: 8},
			{PublicID: "fac-11111-0002", Name: "Boise", Status: "active", Capacity: 10, ActiveProjects: 2},
		}},
		Clients: &fakeClients{list: []clients.Client{
			{PublicID: "cli-11111-0001", Name: "Acme Health", Status: "active", ProjectCount: 1},
			{PublicID: "cli-11111-0002", Name: "Summit Dev", Status: "active", ProjectCount: 4},
		}},
		Snapshots: sink,
	}
	return deps, sink
}

func TestService_BuildExecutive(t *testing.T) {
	deps, _ := testDeps()
	svc := NewService(deps)

	report, err := svc.BuildExecutive(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Projects.Total)
	assert.Equal(t, 1, report.Projects.Active)
	assert.Equal(t, 4, report.Tasks.Total)
	assert.Equal(t, 1, report.Tasks.Overdue)

	require.Len(t, report.ProjectRollups, 2)
	first := report.ProjectRollups[0]
	assert.Equal(t, "proj-11111-0001", first.PublicID)
	assert.Equal(t, 2, first.OpenTasks)
	assert.Equal(t, 1, first.OverdueTasks)
	assert.Equal(t, 1, first.OpenRFIs)
	assert.Equal(t, 1, first.PendingSubmittals)

	second := report.ProjectRollups[1]
	assert.Equal(t, 1, second.OpenTasks)
	assert.Equal(t, 0, second.OverdueTasks)

	// Busiest client first.
	require.Len(t, report.Clients, 2)
	assert.Equal(t, "Summit Dev", report.Clients[0].Name)

	// Most loaded factory first.
	require.Len(t, report.FactoryLoads, 2)
	assert.Equal(t, "Tulsa", report.FactoryLoads[0].Name)
	assert.Equal(t, 80.0, report.FactoryLoads[0].UtilizationPct)
}

func TestService_DashboardCacheThrough(t *testing.T) {
	deps, _ := testDeps()
	cache, _ := setupCache(t)
	deps.Cache = cache
	svc := NewService(deps)

	first, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, first.Tasks.Total)

	// Shrink the underlying data; the cached copy should still serve.
	deps.Tasks.(*fakeTasks).byProject = map[string][]analytics.TaskFacts{}

	second, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, second.Tasks.Total)
}

func TestService_ExecutiveForceBypassesCache(t *testing.T) {
	deps, _ := testDeps()
	cache, _ := setupCache(t)
	deps.Cache = cache
	svc := NewService(deps)

	first, err := svc.Executive(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 4, first.Tasks.Total)

	deps.Tasks.(*fakeTasks).byProject = map[string][]analytics.TaskFacts{}

	cached, err := svc.Executive(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 4, cached.Tasks.Total)

	fresh, err := svc.Executive(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.Tasks.Total)
}

func TestService_RefreshFreezesSnapshot(t *testing.T) {
	deps, sink := testDeps()
	svc := NewService(deps)

	report, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)

	require.Len(t, sink.upserts, 1)
	assert.Equal(t, ScopeExecutive, sink.upserts[0].scope)
	assert.True(t, sink.upserts[0].asOf.Equal(report.GeneratedAt))
}

func TestService_ProjectSummary(t *testing.T) {
	deps, _ := testDeps()
	svc := NewService(deps)

	t.Run("computes scoped counters", func(t *testing.T) {
		rep, err := svc.ProjectSummary(context.Background(), "proj-11111-0001")
		require.NoError(t, err)
		assert.Equal(t, "Lakeside Clinic", rep.Project.Name)
		assert.Equal(t, 3, rep.Tasks.Total)
		assert.Equal(t, 2, rep.RFIs.Total)
		assert.Equal(t, 2, rep.Submittals.Total)
	})

	t.Run("propagates a missing project", func(t *testing.T) {
		_, err := svc.ProjectSummary(context.Background(), "proj-00000-0000")
		assert.ErrorIs(t, err, projects.ErrNotFound)
	})
}

func TestService_Snapshots(t *testing.T) {
	t.Run("defaults the scope", func(t *testing.T) {
		deps, sink := testDeps()
		svc := NewService(deps)

		out, err := svc.Snapshots(context.Background(), "", 10)
		require.NoError(t, err)
		require.Len(t, out, 1)
		require.Len(t, sink.listed, 1)
		assert.Equal(t, ScopeExecutive, sink.listed[0])
	})

	t.Run("no sink yields an empty list", func(t *testing.T) {
		deps, _ := testDeps()
		deps.Snapshots = nil
		svc := NewService(deps)

		out, err := svc.Snapshots(context.Background(), "executive", 10)
		require.NoError(t, err)
		assert.Empty(t, out)
	})
}
