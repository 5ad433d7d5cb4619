package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

// Scheduler runs functions later, either once or periodically. The returned
// cancel function is safe to call more than once and after the job ran.
type Scheduler interface {
	AfterFunc(delay time.Duration, fn func()) (cancel func(), err error)
	Every(interval time.Duration, fn func()) (cancel func(), err error)
}

// Gocron is the production scheduler backed by gocron.
type Gocron struct {
	scheduler gocron.Scheduler
}

// NewGocron creates a scheduler; call Start before jobs can run.
func NewGocron() (*Gocron, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Gocron{
		scheduler: scheduler,
	}, nil
}

// Start begins running scheduled jobs.
func (g *Gocron) Start() {
	g.scheduler.Start()
}

// Stop shuts the scheduler down and waits for running jobs.
func (g *Gocron) Stop() error {
	return g.scheduler.Shutdown()
}

func (g *Gocron) AfterFunc(delay time.Duration, fn func()) (func(), error) {
	start := gocron.OneTimeJobStartImmediately()
	if delay > 0 {
		start = gocron.OneTimeJobStartDateTime(time.Now().Add(delay))
	}

	job, err := g.scheduler.NewJob(
		gocron.OneTimeJob(start),
		gocron.NewTask(fn),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule one-time job: %w", err)
	}

	return g.remover(job), nil
}

func (g *Gocron) Every(interval time.Duration, fn func()) (func(), error) {
	job, err := g.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(fn),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule periodic job: %w", err)
	}

	return g.remover(job), nil
}

func (g *Gocron) remover(job gocron.Job) func() {
	return func() {
		// One-time jobs are gone once they ran, so a missing job is expected.
		if err := g.scheduler.RemoveJob(job.ID()); err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
			log.Warn().Err(err).Str("job_id", job.ID().String()).Msg("failed to remove job")
		}
	}
}
