package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/Jce-C/megregalo/internal/queue"
)

const backfillSchedule = "0 0 3 * * *"

type Enqueuer interface {
	Enqueue(ctx context.Context, task queue.Task) error
}

// Scheduler queues periodic maintenance work for the worker.
type Scheduler struct {
	cron  *cron.Cron
	queue Enqueuer
	log   zerolog.Logger
}

func NewScheduler(q Enqueuer, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:  c,
		queue: q,
		log:   log,
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil {
		return nil
	}

	// nightly pass over originals missing a thumbnail
	if _, err := s.cron.AddFunc(backfillSchedule, s.enqueueBackfill); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron and returns a context that is done once running jobs
// finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) enqueueBackfill() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.queue.Enqueue(ctx, queue.Task{Type: queue.TaskBackfill}); err != nil {
		s.log.Error().Err(err).Msg("enqueue backfill failed")
		return
	}
	s.log.Info().Msg("backfill queued")
}
