package repository

import (
	"context"
	"time"

	"alcyxob/jogging-api/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate record")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
// List returns users ordered by username ascending.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// SessionRepository defines the interface for interacting with session data.
//
// List uses the default ordering (start desc, id asc); ListForReport orders
// by (week desc, user, start desc), the scan order the report aggregator
// groups in. A nil userID selects sessions of all users.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Session, error)
	Update(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, userID *primitive.ObjectID) ([]domain.Session, error)
	ListForReport(ctx context.Context, userID *primitive.ObjectID) ([]domain.Session, error)

	// CountForUserDay counts sessions of the given user whose start falls on
	// the same UTC calendar day as day, excluding the session with excludeID.
	CountForUserDay(ctx context.Context, userID primitive.ObjectID, day time.Time, excludeID primitive.ObjectID) (int64, error)

	// DeleteByUserID removes all sessions owned by the given user and
	// returns how many were deleted. Used by the user-deletion cascade.
	DeleteByUserID(ctx context.Context, userID primitive.ObjectID) (int64, error)
}
