package jobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/announcements"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/reports"
)

// Scheduler runs the recurring background jobs: the nightly executive
// snapshot and the hourly announcement sweep.
type Scheduler struct {
	reports       *reports.Service
	announcements *announcements.Repo
	cron          *cron.Cron
}

func NewScheduler(rs *reports.Service, ar *announcements.Repo) *Scheduler {
	return &Scheduler{reports: rs, announcements: ar}
}

// Start registers the cron entries and begins running them.
func (s *Scheduler) Start() {
	c := cron.New(cron.WithSeconds())

	// (12:00 AM)
	if _, err := c.AddFunc("0 0 0 * * *", func() {
		RunSnapshot(s.reports)
	}); err != nil {
		log.Printf("Failed to create snapshot cron job: %v", err)
		return
	}

	// top of every hour
	if _, err := c.AddFunc("0 0 * * * *", func() {
		RunSweep(s.announcements)
	}); err != nil {
		log.Printf("Failed to create sweep cron job: %v", err)
		return
	}

	log.Println("Cron scheduler started (snapshot nightly at 12:00AM, sweep hourly)")
	c.Start()
	s.cron = c
}

// Stop halts the cron loop. Jobs already running are not interrupted.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// RunSnapshot rebuilds the executive report, recaches it, and freezes a
// snapshot row. Shared by the scheduler and the worker subcommand.
func RunSnapshot(rs *reports.Service) {
	log.Println("Nightly snapshot job started...")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	rep, err := rs.Refresh(ctx)
	if err != nil {
		log.Printf("Snapshot failed: %v", err)
		return
	}

	log.Printf("Nightly snapshot completed (projects=%d, generated_at=%s)",
		rep.Projects.Total, rep.GeneratedAt.Format(time.RFC1123))
}

// RunSweep archives announcements whose expiry has passed.
func RunSweep(ar *announcements.Repo) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := ar.SweepExpired(ctx)
	if err != nil {
		log.Printf("Announcement sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("Announcement sweep archived %d announcement(s)", n)
	}
}
