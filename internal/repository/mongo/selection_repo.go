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

const selectionCollectionName = "methodology_selections"

// mongoSelectionRepository implements repository.SelectionRepository
type mongoSelectionRepository struct {
	collection *mongo.Collection
}

// NewMongoSelectionRepository creates a new selection repository backed by MongoDB.
func NewMongoSelectionRepository(db *mongo.Database) repository.SelectionRepository {
	return &mongoSelectionRepository{
		collection: db.Collection(selectionCollectionName),
	}
}

// CreateActive cancels any existing active selection for the user and
// inserts the new one, inside a single multi-document transaction. The
// store's transaction isolation is the sole mutual-exclusion mechanism:
// multiple service instances may run concurrently, so no in-process lock
// would help here.
func (r *mongoSelectionRepository) CreateActive(ctx context.Context, sel *domain.MethodologySelection) (primitive.ObjectID, error) {
	if sel.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("selection requires userId")
	}

	now := time.Now().UTC()
	sel.ID = primitive.NewObjectID()
	sel.Status = domain.SelectionActive
	sel.CreatedAt = now
	sel.CancelledAt = nil

	session, err := r.collection.Database().Client().StartSession()
	if err != nil {
		return primitive.NilObjectID, err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		cancelFilter := bson.M{"userId": sel.UserID, "status": domain.SelectionActive}
		cancelUpdate := bson.M{"$set": bson.M{
			"status":      domain.SelectionCancelled,
			"cancelledAt": now,
		}}
		if _, err := r.collection.UpdateMany(sc, cancelFilter, cancelUpdate); err != nil {
			return nil, err
		}
		if _, err := r.collection.InsertOne(sc, sel); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return primitive.NilObjectID, err
	}

	return sel.ID, nil
}

// GetByID retrieves a selection by its ID.
func (r *mongoSelectionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.MethodologySelection, error) {
	var sel domain.MethodologySelection
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&sel)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &sel, nil
}

// GetActiveByUser retrieves the user's single active selection, if any.
func (r *mongoSelectionRepository) GetActiveByUser(ctx context.Context, userID primitive.ObjectID) (*domain.MethodologySelection, error) {
	var sel domain.MethodologySelection
	filter := bson.M{"userId": userID, "status": domain.SelectionActive}
	err := r.collection.FindOne(ctx, filter).Decode(&sel)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &sel, nil
}

// UpdateFields applies a partial update to a selection.
func (r *mongoSelectionRepository) UpdateFields(ctx context.Context, id primitive.ObjectID, fields map[string]any) error {
	if len(fields) == 0 {
		return repository.ErrUpdateFailed
	}

	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListByUser retrieves a user's selections, newest first.
func (r *mongoSelectionRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, limit, offset int64) ([]domain.MethodologySelection, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(offset)
	if limit > 0 {
		findOptions.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var selections []domain.MethodologySelection
	if err = cursor.All(ctx, &selections); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return selections, nil
}

// EnsureSelectionIndexes creates indexes for the selections collection.
// The partial unique index on active selections backstops the transaction:
// even against a store with weaker isolation, a second active row for the
// same user is rejected at the index level.
func EnsureSelectionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": string(domain.SelectionActive)}),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index(),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
