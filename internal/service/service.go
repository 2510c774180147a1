package service

import (
	"math/rand/v2"
	"time"

	cache "github.com/goserg/rankings/internal/cache/mem"
	"github.com/goserg/rankings/internal/storage"

	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
)

const defaultFlushConcurrency = 4

type Service struct {
	store       storage.Storage
	queue       storage.QueueStorage
	coordinator Coordinator
	leaderboard *cache.Cache
	clock       func() time.Time
	shuffle     func(n int, swap func(i, j int))
	flushLimit  int
	locks       rankingLocks
	log         *logrus.Entry
}

type Option func(*Service)

// WithQueue keeps queues somewhere other than the main store.
func WithQueue(q storage.QueueStorage) Option {
	return func(s *Service) { s.queue = q }
}

func WithCoordinator(c Coordinator) Option {
	return func(s *Service) { s.coordinator = c }
}

func WithLeaderboard(c *cache.Cache) Option {
	return func(s *Service) { s.leaderboard = c }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// WithShuffle replaces the team order shuffle used by matchmaking.
func WithShuffle(shuffle func(n int, swap func(i, j int))) Option {
	return func(s *Service) { s.shuffle = shuffle }
}

func WithFlushConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.flushLimit = n
		}
	}
}

func New(l *logrus.Logger, store storage.Storage, opts ...Option) *Service {
	s := &Service{
		store:       store,
		queue:       store,
		coordinator: NopCoordinator{},
		leaderboard: cache.New(),
		clock:       time.Now,
		shuffle:     rand.Shuffle,
		flushLimit:  defaultFlushConcurrency,
		locks:       rankingLocks{locks: make(map[uuid.UUID]*deadlock.Mutex)},
		log: l.WithFields(map[string]interface{}{
			"from": "service",
		}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// now is truncated to what the stores can keep.
func (s *Service) now() time.Time {
	return s.clock().UTC().Truncate(time.Millisecond)
}

// rankingLocks serialises everything that reads and then writes ratings,
// votes or queue membership of one ranking.
type rankingLocks struct {
	mu    deadlock.Mutex
	locks map[uuid.UUID]*deadlock.Mutex
}

func (r *rankingLocks) lock(rankingID uuid.UUID) func() {
	r.mu.Lock()
	m, ok := r.locks[rankingID]
	if !ok {
		m = &deadlock.Mutex{}
		r.locks[rankingID] = m
	}
	r.mu.Unlock()

	m.Lock()
	return m.Unlock
}
