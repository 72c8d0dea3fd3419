package attempt

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestRedisSequencer(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	exam := "exam-" + uuid.NewString()
	seq := NewRedisSequencer(client, fixedCounter{"s1/" + exam: 2})
	defer client.Del(context.Background(), seq.key("s1", exam))

	assertSequence(t, runConcurrent(t, seq, "s1", exam, 20), 2)
	assertRelease(t, seq, "s1", exam)
}

func TestMongoSequencer(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatal(err)
	}
	defer client.Disconnect(context.Background())

	db := client.Database("exams_test_" + uuid.NewString()[:8])
	defer db.Drop(context.Background())

	seq := NewMongoSequencer(db, nil)
	assertSequence(t, runConcurrent(t, seq, "s1", "e1", 20), 0)
	assertRelease(t, seq, "s1", "e1")
}
