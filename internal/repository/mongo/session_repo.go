package mongo

import (
	"context"
	"errors"
	"time"

	"alcyxob/jogging-api/internal/domain"
	"alcyxob/jogging-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const sessionCollectionName = "sessions"

// mongoSessionRepository implements repository.SessionRepository using MongoDB.
type mongoSessionRepository struct {
	collection *mongo.Collection
}

// NewMongoSessionRepository creates a new session repository.
// It expects a connected *mongo.Database instance.
func NewMongoSessionRepository(db *mongo.Database) repository.SessionRepository {
	return &mongoSessionRepository{
		collection: db.Collection(sessionCollectionName),
	}
}

// dayBucket truncates t to its UTC calendar day.
func dayBucket(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Create inserts a new session into the database.
func (r *mongoSessionRepository) Create(ctx context.Context, session *domain.Session) (primitive.ObjectID, error) {
	if session.UserID.IsZero() {
		return primitive.NilObjectID, errors.New("session user is required")
	}

	session.ID = primitive.NewObjectID()
	session.StartDay = dayBucket(session.Start)
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		// The (userId, startDay) unique index backs up the service-level
		// uniqueness check against concurrent writers.
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetByID retrieves a session by its ObjectID.
func (r *mongoSessionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Session, error) {
	var session domain.Session
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// Update replaces the stored session document.
func (r *mongoSessionRepository) Update(ctx context.Context, session *domain.Session) error {
	if session.ID.IsZero() {
		return repository.ErrUpdateFailed
	}

	session.StartDay = dayBucket(session.Start)
	session.UpdatedAt = time.Now().UTC()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": session.ID}, session)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a session by its ObjectID.
func (r *mongoSessionRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// List returns sessions in the default listing order (start desc, id asc),
// optionally restricted to one user.
func (r *mongoSessionRepository) List(ctx context.Context, userID *primitive.ObjectID) ([]domain.Session, error) {
	sort := bson.D{{Key: "start", Value: -1}, {Key: "_id", Value: 1}}
	return r.list(ctx, userID, sort)
}

// ListForReport returns sessions ordered by (week desc, user, start desc),
// the scan order the report aggregator discovers its groups in.
func (r *mongoSessionRepository) ListForReport(ctx context.Context, userID *primitive.ObjectID) ([]domain.Session, error) {
	sort := bson.D{{Key: "week", Value: -1}, {Key: "userId", Value: 1}, {Key: "start", Value: -1}}
	return r.list(ctx, userID, sort)
}

func (r *mongoSessionRepository) list(ctx context.Context, userID *primitive.ObjectID, sort bson.D) ([]domain.Session, error) {
	mongoFilter := bson.M{}
	if userID != nil {
		mongoFilter["userId"] = *userID
	}

	cursor, err := r.collection.Find(ctx, mongoFilter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sessions := []domain.Session{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// CountForUserDay counts the user's other sessions on the same UTC day.
func (r *mongoSessionRepository) CountForUserDay(ctx context.Context, userID primitive.ObjectID, day time.Time, excludeID primitive.ObjectID) (int64, error) {
	mongoFilter := bson.M{
		"userId":   userID,
		"startDay": dayBucket(day),
	}
	if !excludeID.IsZero() {
		mongoFilter["_id"] = bson.M{"$ne": excludeID}
	}
	return r.collection.CountDocuments(ctx, mongoFilter)
}

// DeleteByUserID removes all sessions owned by the given user.
func (r *mongoSessionRepository) DeleteByUserID(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// EnsureSessionIndexes creates the indexes for the sessions collection.
// The unique (userId, startDay) index closes the race window between the
// application-level uniqueness check and the insert. Call once at startup.
func EnsureSessionIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "startDay", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "week", Value: -1}, {Key: "userId", Value: 1}, {Key: "start", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "start", Value: -1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
