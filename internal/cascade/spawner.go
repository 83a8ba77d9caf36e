package cascade

import (
	"math/rand"
	"sync"
	"time"

	"github.com/Jce-C/megregalo/internal/ids"
	"github.com/Jce-C/megregalo/internal/models"
)

var Messages = []string{
	"I love you so much baby♡",
	"I love you so much baby♡♡",
	"I love you so much baby♡♡♡",
}

var Hearts = []string{"♡", "♥", "💕", "💖", "🧡"}

// Spawner builds randomized items. It is safe for concurrent use.
type Spawner struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSpawner uses rnd as its randomness source; nil seeds from the clock.
func NewSpawner(rnd *rand.Rand) *Spawner {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Spawner{rnd: rnd}
}

func (s *Spawner) Message() Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	duration := s.seconds(15, 25)
	return Item{
		ID:      ids.WithPrefix(string(KindMessage)),
		Kind:    KindMessage,
		Content: Messages[s.rnd.Intn(len(Messages))],
		Style: Style{
			LeftPercent: s.between(0, 80),
			FontSizePx:  s.between(14, 32),
			RotationDeg: s.between(-15, 15),
			Duration:    duration,
			Delay:       s.seconds(0, 2),
		},
		Lifetime: duration,
	}
}

func (s *Spawner) Heart() Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	duration := s.seconds(18, 30)
	return Item{
		ID:      ids.WithPrefix(string(KindHeart)),
		Kind:    KindHeart,
		Content: Hearts[s.rnd.Intn(len(Hearts))],
		Style: Style{
			LeftPercent: s.between(0, 80),
			FontSizePx:  s.between(15, 30),
			Duration:    duration,
			Delay:       s.seconds(0, 4),
		},
		Lifetime: duration,
	}
}

// Photo picks one of photos uniformly. It reports false when there is
// nothing to show.
func (s *Spawner) Photo(photos []models.Photo) (Item, bool) {
	if len(photos) == 0 {
		return Item{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	photo := photos[s.rnd.Intn(len(photos))]
	duration := s.seconds(12, 20)
	return Item{
		ID:      ids.WithPrefix(string(KindPhoto)),
		Kind:    KindPhoto,
		Content: photo.URL,
		Style: Style{
			LeftPercent: s.between(0, 80),
			SizePx:      s.between(100, 240),
			RotationDeg: s.between(-10, 10),
			Duration:    duration,
			Delay:       s.seconds(0, 3),
		},
		Lifetime: duration,
	}, true
}

// between returns a value in [min, max). Callers hold s.mu.
func (s *Spawner) between(min, max float64) float64 {
	return min + s.rnd.Float64()*(max-min)
}

func (s *Spawner) seconds(min, max float64) time.Duration {
	return time.Duration(s.between(min, max) * float64(time.Second))
}
