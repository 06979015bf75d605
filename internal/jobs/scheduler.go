// Package jobs runs the periodic housekeeping of the service: evicting
// abandoned placement sessions and purging stale stored results.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/cefrkit/placement/internal/logging"
	"github.com/cefrkit/placement/internal/store"
)

// runTimeout bounds a single job run.
const runTimeout = 2 * time.Minute

// Sweeper evicts sessions idle for longer than the given duration.
type Sweeper interface {
	Sweep(ctx context.Context, idle time.Duration) (int, error)
}

// Options configures the scheduler. A zero interval disables that job.
type Options struct {
	Sweeper    Sweeper
	IdleTTL    time.Duration
	SweepEvery time.Duration

	Summaries  store.SummaryRepo
	Users      store.UserRepo
	MaxAge     time.Duration
	PurgeEvery time.Duration
	// AfterPurge runs after every purge, e.g. to re-seed a login account
	// the purge may have removed.
	AfterPurge func(ctx context.Context) error

	Logger *logging.Logger
	Now    func() time.Time
}

// PurgeResult counts rows removed by one retention run.
type PurgeResult struct {
	Summaries int64
	Users     int64
}

// Scheduler owns the gocron scheduler and the job bodies.
type Scheduler struct {
	opts  Options
	sched *gocron.Scheduler
	log   *logging.Logger
}

// New builds a scheduler running in UTC. Jobs are registered by Start.
func New(opts Options) *Scheduler {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	sched := gocron.NewScheduler(time.UTC)
	sched.SingletonModeAll()
	return &Scheduler{opts: opts, sched: sched, log: opts.Logger.With("component", "jobs")}
}

// Start registers the enabled jobs and starts the scheduler without
// blocking. Job runs derive their context from ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.opts.Sweeper != nil && s.opts.SweepEvery > 0 && s.opts.IdleTTL > 0 {
		_, err := s.sched.Every(s.opts.SweepEvery).Tag("sweep").Do(func() {
			runCtx, cancel := context.WithTimeout(ctx, runTimeout)
			defer cancel()
			if _, err := s.SweepIdle(runCtx); err != nil {
				s.log.Error("session sweep failed", "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("schedule session sweep: %w", err)
		}
	}
	if s.opts.Summaries != nil && s.opts.PurgeEvery > 0 && s.opts.MaxAge > 0 {
		_, err := s.sched.Every(s.opts.PurgeEvery).Tag("purge").Do(func() {
			runCtx, cancel := context.WithTimeout(ctx, runTimeout)
			defer cancel()
			if _, err := s.Purge(runCtx); err != nil {
				s.log.Error("retention purge failed", "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("schedule retention purge: %w", err)
		}
	}
	s.sched.StartAsync()
	s.log.Info("scheduler started", "jobs", len(s.sched.Jobs()))
	return nil
}

// Stop halts the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	if s.sched.IsRunning() {
		s.sched.Stop()
	}
}

// Tags lists the tags of the registered jobs.
func (s *Scheduler) Tags() []string {
	var tags []string
	for _, j := range s.sched.Jobs() {
		tags = append(tags, j.Tags()...)
	}
	return tags
}

// SweepIdle evicts sessions idle for longer than IdleTTL.
func (s *Scheduler) SweepIdle(ctx context.Context) (int, error) {
	if s.opts.Sweeper == nil {
		return 0, nil
	}
	return s.opts.Sweeper.Sweep(ctx, s.opts.IdleTTL)
}

// Purge deletes summaries older than MaxAge, then users left without
// any summary who have been dormant as long.
func (s *Scheduler) Purge(ctx context.Context) (PurgeResult, error) {
	var res PurgeResult
	if s.opts.Summaries == nil {
		return res, nil
	}
	cutoff := s.opts.Now().Add(-s.opts.MaxAge)

	n, err := s.opts.Summaries.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return res, err
	}
	res.Summaries = n

	if s.opts.Users != nil {
		n, err = s.opts.Users.PurgeDormant(ctx, cutoff)
		if err != nil {
			return res, err
		}
		res.Users = n
	}

	var hookErr error
	if s.opts.AfterPurge != nil {
		if err := s.opts.AfterPurge(ctx); err != nil {
			hookErr = fmt.Errorf("after purge: %w", err)
		}
	}
	if res.Summaries > 0 || res.Users > 0 {
		s.log.Info("retention purge", "summaries", res.Summaries, "users", res.Users,
			"cutoff", cutoff.UTC().Format(time.RFC3339))
	}
	return res, hookErr
}
