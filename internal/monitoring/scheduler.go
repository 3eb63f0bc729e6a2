package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/finance-tracker-be/internal/ratelimit"
	"github.com/isdelr/finance-tracker-be/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Job specs for the maintenance tasks.
const (
	SweepSpec = "@every 5m"
	PurgeSpec = "@daily"
)

// EventPurger is the part of the event service the scheduler needs.
type EventPurger interface {
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler runs periodic maintenance: forgetting expired rate-limit windows
// and trimming the audit trail.
type Scheduler struct {
	cron      *cron.Cron
	events    EventPurger
	limiters  []*ratelimit.Limiter
	retention time.Duration
	now       func() time.Time
}

var _ EventPurger = (services.EventServiceProvider)(nil)

// NewScheduler creates a new scheduler instance. A zero retention disables the purge job.
func NewScheduler(events EventPurger, retention time.Duration, limiters ...*ratelimit.Limiter) *Scheduler {
	logger := cron.PrintfLogger(&log.Logger)
	return &Scheduler{
		cron:      cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))),
		events:    events,
		limiters:  limiters,
		retention: retention,
		now:       time.Now,
	}
}

// Start registers the jobs and starts the cron loop in its own goroutine.
func (s *Scheduler) Start() error {
	log.Info().Msg("Starting background scheduler...")
	if _, err := s.cron.AddFunc(SweepSpec, s.sweepLimiters); err != nil {
		return fmt.Errorf("schedule limiter sweep: %w", err)
	}
	if s.retention > 0 && s.events != nil {
		if _, err := s.cron.AddFunc(PurgeSpec, s.purgeEvents); err != nil {
			return fmt.Errorf("schedule event purge: %w", err)
		}
	}
	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped background scheduler.")
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) sweepLimiters() {
	for _, l := range s.limiters {
		if removed := l.Sweep(); removed > 0 {
			log.Debug().Str("limiter", l.Name()).Int("removed", removed).Int("active", l.ActiveClients()).Msg("Swept rate limiter")
		}
	}
}

func (s *Scheduler) purgeEvents() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := s.now().Add(-s.retention)
	removed, err := s.events.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Scheduler: Failed to purge old events")
		return
	}
	log.Info().Int64("removed", removed).Time("cutoff", cutoff).Msg("Purged old events")
}
