package exam

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedStore keeps full exam snapshots in Redis so repeated submissions do
// not reload the question set from the database. Writes go to the wrapped
// store and drop the cached snapshot.
type CachedStore struct {
	Store
	client *redis.Client
	ttl    time.Duration
}

func NewCachedStore(inner Store, client *redis.Client, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedStore{Store: inner, client: client, ttl: ttl}
}

func (c *CachedStore) key(id string) string {
	return "exam:" + id + ":snapshot"
}

func (c *CachedStore) GetExamAdmin(ctx context.Context, id string) (Exam, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err == nil {
		var e Exam
		if err := json.Unmarshal(data, &e); err == nil {
			return e, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("exam cache: get %s: %v", id, err)
	}

	e, err := c.Store.GetExamAdmin(ctx, id)
	if err != nil {
		return Exam{}, err
	}
	if buf, err := json.Marshal(e); err == nil {
		if err := c.client.Set(ctx, c.key(id), buf, c.ttl).Err(); err != nil {
			log.Printf("exam cache: set %s: %v", id, err)
		}
	}
	return e, nil
}

func (c *CachedStore) GetExam(ctx context.Context, id string) (Exam, error) {
	e, err := c.GetExamAdmin(ctx, id)
	if err != nil {
		return Exam{}, err
	}
	return e.StudentView(), nil
}

func (c *CachedStore) PutExam(ctx context.Context, e Exam) error {
	if err := c.Store.PutExam(ctx, e); err != nil {
		return err
	}
	return c.client.Del(ctx, c.key(e.ID)).Err()
}

func (c *CachedStore) SetStatus(ctx context.Context, id string, status Status) error {
	if err := c.Store.SetStatus(ctx, id, status); err != nil {
		return err
	}
	return c.client.Del(ctx, c.key(id)).Err()
}
