package cascade

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/Jce-C/megregalo/internal/models"
	"github.com/Jce-C/megregalo/internal/photoclient"
)

var ErrAlreadyStarted = errors.New("cascade already started")

type PhotoSource interface {
	ListPhotos(ctx context.Context) photoclient.Listing
}

// Observer is told about every change to the live set. Calls come from
// scheduler goroutines and must not block.
type Observer interface {
	Admitted(item Item)
	Removed(item Item)
	PhotosDegraded(err error)
}

type Options struct {
	Capacity        int
	Grace           time.Duration
	RefreshSchedule string
	MessageEvery    time.Duration
	HeartEvery      time.Duration
	PhotoEvery      time.Duration
	BurstSize       int
}

func DefaultOptions() Options {
	return Options{
		Capacity:        DefaultCapacity,
		Grace:           5 * time.Second,
		RefreshSchedule: "@every 5s",
		MessageEvery:    800 * time.Millisecond,
		HeartEvery:      600 * time.Millisecond,
		PhotoEvery:      1500 * time.Millisecond,
		BurstSize:       10,
	}
}

type timer interface {
	Stop() bool
}

type afterFunc func(d time.Duration, f func()) timer

func realAfterFunc(d time.Duration, f func()) timer {
	return time.AfterFunc(d, f)
}

type Scheduler struct {
	spawner  *Spawner
	source   PhotoSource
	live     *LiveSet
	opts     Options
	observer Observer
	log      zerolog.Logger
	after    afterFunc

	mu      sync.Mutex
	photos  []models.Photo
	timers  map[uint64]timer
	nextID  uint64
	started bool
	stopped bool
	cron    *cron.Cron
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler builds a scheduler. observer may be nil.
func NewScheduler(spawner *Spawner, source PhotoSource, observer Observer, opts Options, log zerolog.Logger) *Scheduler {
	defaults := DefaultOptions()
	if opts.Grace <= 0 {
		opts.Grace = defaults.Grace
	}
	if opts.RefreshSchedule == "" {
		opts.RefreshSchedule = defaults.RefreshSchedule
	}
	if opts.MessageEvery <= 0 {
		opts.MessageEvery = defaults.MessageEvery
	}
	if opts.HeartEvery <= 0 {
		opts.HeartEvery = defaults.HeartEvery
	}
	if opts.PhotoEvery <= 0 {
		opts.PhotoEvery = defaults.PhotoEvery
	}
	if opts.BurstSize < 0 {
		opts.BurstSize = 0
	}
	if spawner == nil {
		spawner = NewSpawner(nil)
	}

	return &Scheduler{
		spawner:  spawner,
		source:   source,
		live:     NewLiveSet(opts.Capacity),
		opts:     opts,
		observer: observer,
		log:      log,
		after:    realAfterFunc,
		timers:   make(map[uint64]timer),
	}
}

// Start loads the first photo snapshot, schedules the opening burst and runs
// the periodic spawners until Stop or ctx cancellation.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.refresh(ctx)

	c := cron.New()
	if _, err := c.AddFunc(s.opts.RefreshSchedule, func() { s.refresh(ctx) }); err != nil {
		s.cancel()
		return err
	}
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.cron = c
	c.Start()
	s.loop(ctx, s.opts.MessageEvery, s.spawnMessage)
	s.loop(ctx, s.opts.HeartEvery, s.spawnHeart)
	s.loop(ctx, s.opts.PhotoEvery, s.spawnPhoto)
	s.mu.Unlock()

	s.burst()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop tears down tickers, cron refresh and every pending timer. It is safe
// to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped || !s.started {
		s.stopped = true
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.cancel()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	c := s.cron
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	s.wg.Wait()
}

// Snapshot returns the items currently alive, oldest first.
func (s *Scheduler) Snapshot() []Item {
	return s.live.Snapshot()
}

func (s *Scheduler) Dropped() int {
	return s.live.Dropped()
}

func (s *Scheduler) Photos() []models.Photo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.photos
}

func (s *Scheduler) refresh(ctx context.Context) {
	listing := s.source.ListPhotos(ctx)

	s.mu.Lock()
	s.photos = listing.Photos
	s.mu.Unlock()

	if listing.Fallback != nil {
		s.log.Warn().Err(listing.Fallback).Int("photos", len(listing.Photos)).Msg("photo refresh using local backup")
		if s.observer != nil {
			s.observer.PhotosDegraded(listing.Fallback)
		}
	}
}

func (s *Scheduler) burst() {
	hasPhotos := len(s.Photos()) > 0
	for i := 0; i < s.opts.BurstSize; i++ {
		s.schedule(time.Duration(i)*200*time.Millisecond, s.spawnMessage)
		s.schedule(time.Duration(i)*150*time.Millisecond, s.spawnHeart)
		if hasPhotos {
			s.schedule(time.Duration(i)*300*time.Millisecond, s.spawnPhoto)
		}
	}
}

func (s *Scheduler) loop(ctx context.Context, every time.Duration, spawn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				spawn()
			}
		}
	}()
}

func (s *Scheduler) spawnMessage() { s.admit(s.spawner.Message()) }

func (s *Scheduler) spawnHeart() { s.admit(s.spawner.Heart()) }

func (s *Scheduler) spawnPhoto() {
	if item, ok := s.spawner.Photo(s.Photos()); ok {
		s.admit(item)
	}
}

// admit adds item and arms its removal in one step, so a stopped scheduler
// never holds an item without a removal timer.
func (s *Scheduler) admit(item Item) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if !s.live.Add(item) {
		s.mu.Unlock()
		s.log.Debug().Str("kind", string(item.Kind)).Msg("live set full, item dropped")
		return
	}
	id := item.ID
	s.scheduleLocked(item.Lifetime+s.opts.Grace, func() { s.remove(id) })
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.Admitted(item)
	}
}

func (s *Scheduler) remove(id string) {
	item, ok := s.live.Remove(id)
	if ok && s.observer != nil {
		s.observer.Removed(item)
	}
}

// schedule runs f after d unless the scheduler stops first.
func (s *Scheduler) schedule(d time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.scheduleLocked(d, f)
}

func (s *Scheduler) scheduleLocked(d time.Duration, f func()) {
	s.nextID++
	id := s.nextID
	s.timers[id] = s.after(d, func() { s.fire(id, f) })
}

func (s *Scheduler) fire(id uint64, f func()) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	delete(s.timers, id)
	s.mu.Unlock()
	f()
}
