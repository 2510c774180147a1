package mem

import (
	"sort"
	"sync"

	"github.com/goserg/rankings/internal/domain"
	"github.com/goserg/rankings/internal/normalize"
	"github.com/goserg/rankings/internal/rating"

	"github.com/google/uuid"
)

type board struct {
	entries []domain.LeaderboardEntry
	byName  map[string]int
}

// Cache holds a sorted leaderboard per ranking.
type Cache struct {
	mu     sync.RWMutex
	boards map[uuid.UUID]board
}

func New() *Cache {
	return &Cache{
		boards: make(map[uuid.UUID]board),
	}
}

// Update rebuilds the ranking's leaderboard. Disabled players are left out.
func (c *Cache) Update(rankingID uuid.UUID, players []domain.Player) {
	entries := make([]domain.LeaderboardEntry, 0, len(players))
	for _, p := range players {
		if p.Disabled {
			continue
		}
		entries = append(entries, domain.LeaderboardEntry{
			Player: p,
			Score:  rating.Conservative(p.Rating),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].ID.String() < entries[j].ID.String()
	})

	b := board{
		entries: entries,
		byName:  make(map[string]int, len(entries)),
	}
	for i := range entries {
		// equal scores share a rank
		if i > 0 && entries[i].Score == entries[i-1].Score {
			entries[i].Rank = entries[i-1].Rank
		} else {
			entries[i].Rank = i + 1
		}
		b.byName[normalize.Name(entries[i].Name)] = i
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.boards[rankingID] = b
}

func (c *Cache) Invalidate(rankingID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.boards, rankingID)
}

// Leaderboard returns a copy of the cached entries. ok is false when the
// ranking has not been loaded yet.
func (c *Cache) Leaderboard(rankingID uuid.UUID) ([]domain.LeaderboardEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	b, ok := c.boards[rankingID]
	if !ok {
		return nil, false
	}
	return append([]domain.LeaderboardEntry(nil), b.entries...), true
}

func (c *Cache) GetPlayerByName(rankingID uuid.UUID, name string) (domain.LeaderboardEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	b, ok := c.boards[rankingID]
	if !ok {
		return domain.LeaderboardEntry{}, false
	}
	i, ok := b.byName[normalize.Name(name)]
	if !ok {
		return domain.LeaderboardEntry{}, false
	}
	return b.entries[i], true
}
