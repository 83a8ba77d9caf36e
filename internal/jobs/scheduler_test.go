package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Jce-C/megregalo/internal/queue"
)

type recordingEnqueuer struct {
	tasks []queue.Task
	err   error
}

func (r *recordingEnqueuer) Enqueue(_ context.Context, task queue.Task) error {
	if r.err != nil {
		return r.err
	}
	r.tasks = append(r.tasks, task)
	return nil
}

func TestStartWithoutQueueIsNoop(t *testing.T) {
	s := NewScheduler(nil, zerolog.Nop())
	if err := s.Start(); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if len(s.cron.Entries()) != 0 {
		t.Fatalf("expected no cron entries, got %d", len(s.cron.Entries()))
	}
	<-s.Stop().Done()
}

func TestStartRegistersBackfill(t *testing.T) {
	q := &recordingEnqueuer{}
	s := NewScheduler(q, zerolog.Nop())
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	if len(s.cron.Entries()) != 1 {
		t.Fatalf("expected 1 cron entry, got %d", len(s.cron.Entries()))
	}
}

func TestEnqueueBackfill(t *testing.T) {
	q := &recordingEnqueuer{}
	s := NewScheduler(q, zerolog.Nop())

	s.enqueueBackfill()
	if len(q.tasks) != 1 || q.tasks[0].Type != queue.TaskBackfill {
		t.Fatalf("expected one backfill task, got %+v", q.tasks)
	}

	q.err = errors.New("redis down")
	s.enqueueBackfill()
	if len(q.tasks) != 1 {
		t.Fatalf("expected failed enqueue to be dropped, got %+v", q.tasks)
	}
}
