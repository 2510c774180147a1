// Package redisqueue keeps matchmaking queues in redis so several service
// instances can share them.
package redisqueue

import (
	"context"
	"fmt"

	"github.com/goserg/rankings/internal/config"
	"github.com/goserg/rankings/internal/storage"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Each queue is a list holding the order plus a set for membership checks.
// Scripts keep both in step atomically.
var (
	enqueueScript = redis.NewScript(`
if redis.call('SADD', KEYS[2], ARGV[1]) == 1 then
	redis.call('RPUSH', KEYS[1], ARGV[1])
	return 1
end
return 0
`)

	popScript = redis.NewScript(`
local n = tonumber(ARGV[1])
if redis.call('LLEN', KEYS[1]) < n then
	return {}
end
local ids = redis.call('LRANGE', KEYS[1], 0, n - 1)
redis.call('LTRIM', KEYS[1], n, -1)
for _, id in ipairs(ids) do
	redis.call('SREM', KEYS[2], id)
end
return ids
`)

	pushScript = redis.NewScript(`
for i = #ARGV, 1, -1 do
	redis.call('LREM', KEYS[1], 0, ARGV[i])
end
for i = #ARGV, 1, -1 do
	redis.call('LPUSH', KEYS[1], ARGV[i])
	redis.call('SADD', KEYS[2], ARGV[i])
end
return #ARGV
`)

	dequeueScript = redis.NewScript(`
local removed = 0
for i = 1, #ARGV do
	if redis.call('SREM', KEYS[2], ARGV[i]) == 1 then
		redis.call('LREM', KEYS[1], 0, ARGV[i])
		removed = removed + 1
	end
end
return removed
`)
)

type Queue struct {
	client redis.UniversalClient
	prefix string
	log    *logrus.Entry
}

var _ storage.QueueStorage = (*Queue)(nil)

func New(ctx context.Context, l *logrus.Logger, cfg config.Queue) (*Queue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewWithClient(l, client, cfg.KeyPrefix), nil
}

func NewWithClient(l *logrus.Logger, client redis.UniversalClient, prefix string) *Queue {
	log := l.WithFields(map[string]interface{}{
		"from": "redis-queue",
	})
	if prefix == "" {
		prefix = "rankings"
	}
	log.Info("queue connected")
	return &Queue{
		client: client,
		prefix: prefix,
		log:    log,
	}
}

func (q *Queue) Close() error {
	return q.client.Close()
}

func (q *Queue) keys(rankingID uuid.UUID) []string {
	list := q.prefix + ":queue:" + rankingID.String()
	return []string{list, list + ":members"}
}

func (q *Queue) EnqueueTeam(ctx context.Context, rankingID uuid.UUID, teamID uuid.UUID) (bool, error) {
	added, err := enqueueScript.Run(ctx, q.client, q.keys(rankingID), teamID.String()).Int64()
	if err != nil {
		return false, err
	}
	return added == 1, nil
}

func (q *Queue) PopQueueTeams(ctx context.Context, rankingID uuid.UUID, count int) ([]uuid.UUID, error) {
	if count <= 0 {
		return nil, nil
	}
	raw, err := popScript.Run(ctx, q.client, q.keys(rankingID), count).StringSlice()
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return parseIDs(raw)
}

func (q *Queue) PushQueueTeams(ctx context.Context, rankingID uuid.UUID, teamIDs []uuid.UUID) error {
	if len(teamIDs) == 0 {
		return nil
	}
	return pushScript.Run(ctx, q.client, q.keys(rankingID), idArgs(teamIDs)...).Err()
}

func (q *Queue) DequeueTeams(ctx context.Context, rankingID uuid.UUID, teamIDs []uuid.UUID) (int, error) {
	if len(teamIDs) == 0 {
		return 0, nil
	}
	removed, err := dequeueScript.Run(ctx, q.client, q.keys(rankingID), idArgs(teamIDs)...).Int64()
	if err != nil {
		return 0, err
	}
	return int(removed), nil
}

func (q *Queue) ListQueuedTeams(ctx context.Context, rankingID uuid.UUID) ([]uuid.UUID, error) {
	raw, err := q.client.LRange(ctx, q.keys(rankingID)[0], 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return parseIDs(raw)
}

func idArgs(ids []uuid.UUID) []interface{} {
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		args = append(args, id.String())
	}
	return args
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("queue entry %q: %w", s, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
