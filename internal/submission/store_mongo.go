package submission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mind-engage/mindengage-exams/internal/attempt"
	"github.com/mind-engage/mindengage-exams/internal/exam"
	"github.com/mind-engage/mindengage-exams/internal/grading"
)

// MongoStore keeps submissions in a "submissions" collection. Attempt numbers
// come from a MongoSequencer on the same database unless the service is given
// its own sequencer.
type MongoStore struct {
	collection *mongo.Collection
	seq        *attempt.MongoSequencer
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	s := &MongoStore{collection: db.Collection("submissions")}
	s.seq = attempt.NewMongoSequencer(db, s)
	return s
}

// EnsureIndexes creates the unique attempt index and the lookup indexes.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "examId", Value: 1}, {Key: "studentId", Value: 1}, {Key: "attemptNumber", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "studentId", Value: 1}, {Key: "submittedAt", Value: -1}}},
	})
	return err
}

type mongoAnswer struct {
	QuestionID     string            `bson:"questionId"`
	QuestionType   exam.QuestionType `bson:"questionType"`
	SubmittedValue string            `bson:"submittedValue,omitempty"` // raw JSON
	ScoreAwarded   float64           `bson:"scoreAwarded"`
	ExpectedValue  string            `bson:"expectedValue"` // raw JSON
	IsCorrect      bool              `bson:"isCorrect"`
	Outcome        grading.Outcome   `bson:"outcome"`
}

type mongoSubmission struct {
	ID                  string        `bson:"_id"`
	ExamID              string        `bson:"examId"`
	StudentID           string        `bson:"studentId"`
	Answers             []mongoAnswer `bson:"answers"`
	TotalScore          float64       `bson:"totalScore"`
	TotalScorePossible  float64       `bson:"totalScorePossible"`
	Percentage          int           `bson:"percentage"`
	TotalQuestions      int           `bson:"totalQuestions"`
	CorrectAnswersCount int           `bson:"correctAnswersCount"`
	AttemptNumber       int           `bson:"attemptNumber"`
	SubmittedAt         time.Time     `bson:"submittedAt"`
	StartTime           *time.Time    `bson:"startTime,omitempty"`
	TimeSpentSeconds    *float64      `bson:"timeSpentSeconds,omitempty"`
	Location            Location      `bson:"location"`
}

func toMongo(s Submission) mongoSubmission {
	answers := make([]mongoAnswer, len(s.Answers))
	for i, a := range s.Answers {
		answers[i] = mongoAnswer{
			QuestionID:     a.QuestionID,
			QuestionType:   a.QuestionType,
			SubmittedValue: string(a.SubmittedValue),
			ScoreAwarded:   a.ScoreAwarded,
			ExpectedValue:  string(a.ExpectedValue),
			IsCorrect:      a.IsCorrect,
			Outcome:        a.Outcome,
		}
	}
	return mongoSubmission{
		ID: s.ID, ExamID: s.ExamID, StudentID: s.StudentID, Answers: answers,
		TotalScore: s.TotalScore, TotalScorePossible: s.TotalScorePossible, Percentage: s.Percentage,
		TotalQuestions: s.TotalQuestions, CorrectAnswersCount: s.CorrectAnswersCount,
		AttemptNumber: s.AttemptNumber, SubmittedAt: s.SubmittedAt,
		StartTime: s.StartTime, TimeSpentSeconds: s.TimeSpentSeconds, Location: s.Location,
	}
}

func (m mongoSubmission) submission() Submission {
	answers := make([]grading.ScoredAnswer, len(m.Answers))
	for i, a := range m.Answers {
		sa := grading.ScoredAnswer{
			QuestionID:    a.QuestionID,
			QuestionType:  a.QuestionType,
			ScoreAwarded:  a.ScoreAwarded,
			ExpectedValue: json.RawMessage(a.ExpectedValue),
			IsCorrect:     a.IsCorrect,
			Outcome:       a.Outcome,
		}
		if a.SubmittedValue != "" {
			sa.SubmittedValue = json.RawMessage(a.SubmittedValue)
		}
		answers[i] = sa
	}
	s := Submission{
		ID: m.ID, ExamID: m.ExamID, StudentID: m.StudentID, Answers: answers,
		TotalScore: m.TotalScore, TotalScorePossible: m.TotalScorePossible, Percentage: m.Percentage,
		TotalQuestions: m.TotalQuestions, CorrectAnswersCount: m.CorrectAnswersCount,
		AttemptNumber: m.AttemptNumber, SubmittedAt: m.SubmittedAt.UTC(),
		TimeSpentSeconds: m.TimeSpentSeconds, Location: m.Location,
	}
	if m.StartTime != nil {
		t := m.StartTime.UTC()
		s.StartTime = &t
	}
	return s
}

func (s *MongoStore) CountSubmissions(ctx context.Context, studentID, examID string) (int, error) {
	n, err := s.collection.CountDocuments(ctx, bson.M{"studentId": studentID, "examId": examID})
	return int(n), err
}

func (s *MongoStore) Create(ctx context.Context, studentID, examID string, build BuildFunc) (Submission, error) {
	n, err := s.seq.Next(ctx, studentID, examID)
	if err != nil {
		return Submission{}, err
	}
	sub, err := build(n)
	if err == nil {
		err = s.Insert(ctx, sub)
	}
	if err != nil {
		s.seq.Release(ctx, studentID, examID, n)
		return Submission{}, err
	}
	return sub, nil
}

func (s *MongoStore) Insert(ctx context.Context, sub Submission) error {
	if _, err := s.collection.InsertOne(ctx, toMongo(sub)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateAttempt
		}
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (Submission, error) {
	var doc mongoSubmission
	if err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Submission{}, ErrNotFound
		}
		return Submission{}, err
	}
	return doc.submission(), nil
}

func (s *MongoStore) List(ctx context.Context, opts ListOpts) ([]Submission, error) {
	filter := bson.M{}
	if opts.StudentID != "" {
		filter["studentId"] = opts.StudentID
	}
	if opts.ExamID != "" {
		filter["examId"] = opts.ExamID
	}
	findOpts := options.Find().
		SetSort(bson.D{{Key: "submittedAt", Value: -1}, {Key: "attemptNumber", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(opts.Offset))
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	cursor, err := s.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []mongoSubmission
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]Submission, len(docs))
	for i, d := range docs {
		out[i] = d.submission()
	}
	return out, nil
}
