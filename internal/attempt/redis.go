package attempt

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisSequencer uses INCR so several service instances can share numbering.
type RedisSequencer struct {
	client  *redis.Client
	counter Counter
}

// releaseScript decrements the counter only while it still holds ARGV[1].
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DECR", KEYS[1])
end
return -1
`)

func NewRedisSequencer(client *redis.Client, counter Counter) *RedisSequencer {
	return &RedisSequencer{client: client, counter: counter}
}

func (s *RedisSequencer) key(studentID, examID string) string {
	return fmt.Sprintf("attempts:%s:%s", examID, studentID)
}

func (s *RedisSequencer) Next(ctx context.Context, studentID, examID string) (int, error) {
	key := s.key(studentID, examID)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("attempt counter exists: %w", err)
	}
	if exists == 0 {
		seed := 0
		if s.counter != nil {
			if seed, err = s.counter.CountSubmissions(ctx, studentID, examID); err != nil {
				return 0, err
			}
		}
		// losing the SETNX race is fine, the winner seeded the same count
		if err := s.client.SetNX(ctx, key, seed, 0).Err(); err != nil {
			return 0, fmt.Errorf("attempt counter seed: %w", err)
		}
	}

	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("attempt counter incr: %w", err)
	}
	return int(n), nil
}

func (s *RedisSequencer) Release(ctx context.Context, studentID, examID string, n int) {
	if err := releaseScript.Run(ctx, s.client, []string{s.key(studentID, examID)}, strconv.Itoa(n)).Err(); err != nil {
		log.Printf("attempt: release %s/%s #%d: %v", studentID, examID, n, err)
	}
}
