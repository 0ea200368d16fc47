package mongo

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pulsefit/coach-app/internal/domain"
	"pulsefit/coach-app/internal/repository"
)

const (
	weeklyProgressCollectionName  = "weekly_progress"
	trainingSessionCollectionName = "training_sessions"
)

// mongoProgressRepository implements repository.ProgressRepository
type mongoProgressRepository struct {
	weeks    *mongo.Collection
	sessions *mongo.Collection
}

// NewMongoProgressRepository creates a new progress repository backed by MongoDB.
func NewMongoProgressRepository(db *mongo.Database) repository.ProgressRepository {
	return &mongoProgressRepository{
		weeks:    db.Collection(weeklyProgressCollectionName),
		sessions: db.Collection(trainingSessionCollectionName),
	}
}

// CreateWeeks bulk-inserts weekly progress rows, one per descriptor.
func (r *mongoProgressRepository) CreateWeeks(ctx context.Context, weeks []domain.WeeklyProgress) ([]domain.WeeklyProgress, error) {
	if len(weeks) == 0 {
		return nil, errors.New("at least one week is required")
	}

	now := time.Now().UTC()
	docs := make([]interface{}, len(weeks))
	for i := range weeks {
		weeks[i].ID = primitive.NewObjectID()
		weeks[i].CreatedAt = now
		docs[i] = weeks[i]
	}

	if _, err := r.weeks.InsertMany(ctx, docs); err != nil {
		return nil, err
	}
	return weeks, nil
}

// GetWeeksByMethodology retrieves all weeks for a methodology, ordered by
// week number ascending.
func (r *mongoProgressRepository) GetWeeksByMethodology(ctx context.Context, methodologyID primitive.ObjectID) ([]domain.WeeklyProgress, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "weekNumber", Value: 1}})

	cursor, err := r.weeks.Find(ctx, bson.M{"methodologyId": methodologyID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var weeks []domain.WeeklyProgress
	if err = cursor.All(ctx, &weeks); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return weeks, nil
}

// CreateSession appends a training session. Sessions are never updated.
func (r *mongoProgressRepository) CreateSession(ctx context.Context, session *domain.TrainingSession) (primitive.ObjectID, error) {
	if session.UserID == primitive.NilObjectID || session.MethodologyID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("session requires userId and methodologyId")
	}

	session.ID = primitive.NewObjectID()
	session.CreatedAt = time.Now().UTC()

	result, err := r.sessions.InsertOne(ctx, session)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted session ID")
	}
	return insertedID, nil
}

// GetSessionsByUser retrieves a user's sessions, newest first.
func (r *mongoProgressRepository) GetSessionsByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.TrainingSession, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.sessions.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []domain.TrainingSession
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// EnsureProgressIndexes creates indexes for the progress collections.
func EnsureProgressIndexes(ctx context.Context, weeks, sessions *mongo.Collection) {
	weekIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "methodologyId", Value: 1}, {Key: "weekNumber", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	sessionIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "methodologyId", Value: 1}},
			Options: options.Index(),
		},
	}

	if _, err := weeks.Indexes().CreateMany(ctx, weekIndexes); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", weeks.Name(), err)
	}
	if _, err := sessions.Indexes().CreateMany(ctx, sessionIndexes); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", sessions.Name(), err)
	}
}
