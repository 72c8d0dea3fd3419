package attempt

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSequencer keeps one counter document per pair and bumps it with an
// atomic $inc.
type MongoSequencer struct {
	collection *mongo.Collection
	counter    Counter
}

func NewMongoSequencer(db *mongo.Database, counter Counter) *MongoSequencer {
	return &MongoSequencer{collection: db.Collection("attempt_counters"), counter: counter}
}

type counterDoc struct {
	ID          string `bson:"_id"`
	StudentID   string `bson:"studentId"`
	ExamID      string `bson:"examId"`
	LastAttempt int    `bson:"lastAttempt"`
}

func (s *MongoSequencer) Next(ctx context.Context, studentID, examID string) (int, error) {
	id := counterID(studentID, examID)
	filter := bson.M{"_id": id}

	if err := s.seed(ctx, id, studentID, examID); err != nil {
		return 0, err
	}

	var doc counterDoc
	err := s.collection.FindOneAndUpdate(ctx, filter,
		bson.M{"$inc": bson.M{"lastAttempt": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("attempt counter inc: %w", err)
	}
	return doc.LastAttempt, nil
}

func (s *MongoSequencer) seed(ctx context.Context, id, studentID, examID string) error {
	n, err := s.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("attempt counter lookup: %w", err)
	}
	if n > 0 {
		return nil
	}
	start := 0
	if s.counter != nil {
		if start, err = s.counter.CountSubmissions(ctx, studentID, examID); err != nil {
			return err
		}
	}
	_, err = s.collection.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$setOnInsert": bson.M{"studentId": studentID, "examId": examID, "lastAttempt": start}},
		options.Update().SetUpsert(true),
	)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("attempt counter seed: %w", err)
	}
	return nil
}

// Release hands back attempt n after a failed write, provided no later attempt
// has been taken since.
func (s *MongoSequencer) Release(ctx context.Context, studentID, examID string, n int) {
	_, _ = s.collection.UpdateOne(ctx,
		bson.M{"_id": counterID(studentID, examID), "lastAttempt": n},
		bson.M{"$inc": bson.M{"lastAttempt": -1}})
}

func counterID(studentID, examID string) string { return examID + "|" + studentID }
