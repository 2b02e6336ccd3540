package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/fieldbook/internal/booking"
	"github.com/codr1/fieldbook/internal/config"
	"github.com/codr1/fieldbook/internal/metrics"
	"github.com/codr1/fieldbook/internal/notify"
)

const (
	JobOfferExpiry     = "waitlist_offer_expiry"
	JobPromotionSweep  = "waitlist_promotion_sweep"
	JobWaitlistCleanup = "waitlist_cleanup"

	jobTimeout = 5 * time.Minute
)

// WaitlistJobs holds the periodic callers of the promoter. The engine itself
// has no timers.
type WaitlistJobs struct {
	Engine   *booking.Engine
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
	// Location decides which slot dates count as past for the sweep and cleanup.
	Location *time.Location
}

// ExpireOffers lapses offers past their acceptance window and notifies the
// next user offered each freed slot.
func (j *WaitlistJobs) ExpireOffers(ctx context.Context) error {
	promotions, err := j.Engine.Promoter.ExpireOffers(ctx)
	if err != nil {
		return fmt.Errorf("expire waitlist offers: %w", err)
	}
	j.announce(ctx, "expiry", promotions)
	return nil
}

// PromotionSweep offers every freed slot that still has waiting entries.
func (j *WaitlistJobs) PromotionSweep(ctx context.Context) error {
	promotions, err := j.Engine.Promoter.Sweep(ctx, j.Location)
	if err != nil {
		return fmt.Errorf("waitlist promotion sweep: %w", err)
	}
	j.announce(ctx, "sweep", promotions)
	return nil
}

// Cleanup deletes entries for slot dates that have passed.
func (j *WaitlistJobs) Cleanup(ctx context.Context) error {
	deleted, err := j.Engine.Waitlist.CleanupPast(ctx, j.Location)
	if err != nil {
		return fmt.Errorf("waitlist cleanup: %w", err)
	}
	log.Ctx(ctx).Debug().Int64("deleted_waitlists", deleted).Msg("Cleaned up past waitlists")
	return nil
}

func (j *WaitlistJobs) announce(ctx context.Context, trigger string, promotions []booking.Promotion) {
	j.Metrics.RecordPromotions(trigger, len(promotions))
	if j.Notifier == nil {
		return
	}
	for _, p := range promotions {
		j.Notifier.WaitlistPromoted(ctx, p)
	}
}

// RegisterWaitlistJobs adds the waitlist jobs to svc on the configured
// schedules.
func RegisterWaitlistJobs(svc *Service, cfg config.JobsConfig, jobs *WaitlistJobs) error {
	specs := []struct {
		name string
		expr string
		run  func(context.Context) error
	}{
		{name: JobOfferExpiry, expr: cfg.OfferExpiry, run: jobs.ExpireOffers},
		{name: JobPromotionSweep, expr: cfg.PromotionSweep, run: jobs.PromotionSweep},
		{name: JobWaitlistCleanup, expr: cfg.WaitlistCleanup, run: jobs.Cleanup},
	}
	for _, spec := range specs {
		if _, err := svc.AddJob(spec.name, spec.expr, jobs.task(spec.name, spec.run)); err != nil {
			return fmt.Errorf("register %s: %w", spec.name, err)
		}
	}
	return nil
}

func (j *WaitlistJobs) task(name string, run func(context.Context) error) func() {
	return func() {
		logger := log.With().Str("job_name", name).Logger()
		ctx, cancel := context.WithTimeout(logger.WithContext(context.Background()), jobTimeout)
		defer cancel()

		start := time.Now()
		err := run(ctx)
		j.Metrics.RecordJobRun(name, time.Since(start), err)
		if err != nil {
			logger.Error().Err(err).Msg("Scheduler job failed")
		}
	}
}
