package service

import (
	"context"
	"sort"
	"time"

	"alcyxob/jogging-api/internal/domain"
	"alcyxob/jogging-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes for the service tests. They honor the same
// contracts as the mongo implementations (ordering, ErrNotFound,
// ErrDuplicate on username conflicts) without a running database.

type userRepoFake struct {
	users map[primitive.ObjectID]domain.User
}

func newUserRepoFake() *userRepoFake {
	return &userRepoFake{users: make(map[primitive.ObjectID]domain.User)}
}

func (r *userRepoFake) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	id := primitive.NewObjectID()
	stored := *user
	stored.ID = id
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.users[id] = stored
	return id, nil
}

func (r *userRepoFake) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *userRepoFake) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			found := user
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepoFake) List(_ context.Context) ([]domain.User, error) {
	users := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})
	return users, nil
}

func (r *userRepoFake) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range r.users {
		if id != user.ID && existing.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	stored := *user
	stored.UpdatedAt = time.Now()
	r.users[user.ID] = stored
	return nil
}

func (r *userRepoFake) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type sessionRepoFake struct {
	sessions map[primitive.ObjectID]domain.Session
}

func newSessionRepoFake() *sessionRepoFake {
	return &sessionRepoFake{sessions: make(map[primitive.ObjectID]domain.Session)}
}

func (r *sessionRepoFake) Create(_ context.Context, session *domain.Session) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	stored := *session
	stored.ID = id
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.sessions[id] = stored
	return id, nil
}

func (r *sessionRepoFake) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Session, error) {
	session, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &session, nil
}

func (r *sessionRepoFake) Update(_ context.Context, session *domain.Session) error {
	existing, ok := r.sessions[session.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored := *session
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = time.Now()
	r.sessions[session.ID] = stored
	return nil
}

func (r *sessionRepoFake) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.sessions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *sessionRepoFake) scoped(userID *primitive.ObjectID) []domain.Session {
	sessions := make([]domain.Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		if userID != nil && session.UserID != *userID {
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions
}

func (r *sessionRepoFake) List(_ context.Context, userID *primitive.ObjectID) ([]domain.Session, error) {
	sessions := r.scoped(userID)
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].Start.Equal(sessions[j].Start) {
			return sessions[i].Start.After(sessions[j].Start)
		}
		return sessions[i].ID.Hex() < sessions[j].ID.Hex()
	})
	return sessions, nil
}

func (r *sessionRepoFake) ListForReport(_ context.Context, userID *primitive.ObjectID) ([]domain.Session, error) {
	sessions := r.scoped(userID)
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].Week != sessions[j].Week {
			return sessions[i].Week > sessions[j].Week
		}
		if sessions[i].UserID != sessions[j].UserID {
			return sessions[i].UserID.Hex() < sessions[j].UserID.Hex()
		}
		return sessions[i].Start.After(sessions[j].Start)
	})
	return sessions, nil
}

func (r *sessionRepoFake) CountForUserDay(_ context.Context, userID primitive.ObjectID, day time.Time, excludeID primitive.ObjectID) (int64, error) {
	y, m, d := day.UTC().Date()
	var count int64
	for _, session := range r.sessions {
		if session.UserID != userID || session.ID == excludeID {
			continue
		}
		sy, sm, sd := session.Start.UTC().Date()
		if sy == y && sm == m && sd == d {
			count++
		}
	}
	return count, nil
}

func (r *sessionRepoFake) DeleteByUserID(_ context.Context, userID primitive.ObjectID) (int64, error) {
	var deleted int64
	for id, session := range r.sessions {
		if session.UserID == userID {
			delete(r.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

// weatherFake returns a fixed category and records every lookup.
type weatherFake struct {
	summary string
	calls   []string
}

func (w *weatherFake) Lookup(_ context.Context, location, isoTimestamp string) string {
	w.calls = append(w.calls, location+"@"+isoTimestamp)
	return w.summary
}

// archiveFake records uploads and hands out deterministic download URLs.
type archiveFake struct {
	objects map[string][]byte
}

func newArchiveFake() *archiveFake {
	return &archiveFake{objects: make(map[string][]byte)}
}

func (a *archiveFake) Put(_ context.Context, objectKey string, _ string, body []byte) error {
	a.objects[objectKey] = body
	return nil
}

func (a *archiveFake) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://archive.test/" + objectKey, nil
}

func (a *archiveFake) DeleteObject(_ context.Context, objectKey string) error {
	delete(a.objects, objectKey)
	return nil
}
