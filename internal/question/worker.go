package question

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// Refresher reloads the deck on a fixed interval.
type Refresher struct {
	supply    *Supply
	scheduler gocron.Scheduler
	interval  time.Duration
	timeout   time.Duration
	logger    zerolog.Logger
}

// NewRefresher schedules supply.Refresh every interval. Runs never overlap.
func NewRefresher(supply *Supply, interval, timeout time.Duration, logger zerolog.Logger, opts ...gocron.SchedulerOption) (*Refresher, error) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	scheduler, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("create deck scheduler: %w", err)
	}
	r := &Refresher{
		supply:    supply,
		scheduler: scheduler,
		interval:  interval,
		timeout:   timeout,
		logger:    logger.With().Str("component", "deck_refresher").Logger(),
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(r.refresh),
		gocron.WithName("deck-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("schedule deck refresh: %w", err)
	}
	return r, nil
}

// Run starts the scheduler and blocks until ctx is done.
func (r *Refresher) Run(ctx context.Context) error {
	r.scheduler.Start()
	r.logger.Info().Dur("interval", r.interval).Msg("deck refresher started")
	<-ctx.Done()
	if err := r.scheduler.Shutdown(); err != nil {
		r.logger.Warn().Err(err).Msg("deck scheduler shutdown")
	}
	return ctx.Err()
}

func (r *Refresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.supply.Refresh(ctx); err != nil {
		r.logger.Warn().Err(err).Int("deck_size", r.supply.Size()).Msg("deck refresh failed, keeping current deck")
	}
}
