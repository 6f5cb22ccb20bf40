package service

import (
	"context"
	"errors"

	"alcyxob/jogging-api/internal/domain"
	"alcyxob/jogging-api/internal/filter"
	"alcyxob/jogging-api/internal/repository"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// UserInput carries the caller-supplied field values for a user write.
type UserInput struct {
	Username    string
	Password    string
	IsStaff     bool
	IsSuperuser bool
}

// UserService owns the account lifecycle. Access decisions are made by
// the HTTP layer through the domain policy functions; this service only
// validates and persists.
type UserService interface {
	Create(ctx context.Context, input UserInput) (*domain.User, error)
	Get(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	List(ctx context.Context, filterString string) ([]domain.User, error)
	Update(ctx context.Context, id primitive.ObjectID, input UserInput) (*domain.User, error)

	// Delete removes the account and cascades to all of its sessions.
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type userService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
}

func NewUserService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository) UserService {
	return &userService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
	}
}

func (s *userService) Create(ctx context.Context, input UserInput) (*domain.User, error) {
	if input.Username == "" {
		return nil, ErrInvalidUsername
	}
	if input.Password == "" {
		return nil, ErrInvalidPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	user := &domain.User{
		Username:     input.Username,
		PasswordHash: string(hashedPassword),
		IsStaff:      input.IsStaff,
		IsSuperuser:  input.IsSuperuser,
	}

	userID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		// The unique username index is the source of truth for conflicts.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	user.ID = userID

	return user, nil
}

func (s *userService) Get(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// List returns all users ordered by username. A non-empty filter string
// keeps only the users it evaluates to true for.
func (s *userService) List(ctx context.Context, filterString string) ([]domain.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	if filterString == "" {
		return users, nil
	}

	matched := []domain.User{}
	for i := range users {
		if filter.Evaluate(filterString, userTokens(&users[i])) {
			matched = append(matched, users[i])
		}
	}
	return matched, nil
}

// Update replaces username, password and the permission flags. Every
// update re-hashes the supplied password.
func (s *userService) Update(ctx context.Context, id primitive.ObjectID, input UserInput) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Username == "" {
		return nil, ErrInvalidUsername
	}
	if input.Password == "" {
		return nil, ErrInvalidPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	user.Username = input.Username
	user.PasswordHash = string(hashedPassword)
	user.IsStaff = input.IsStaff
	user.IsSuperuser = input.IsSuperuser

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	return user, nil
}

// Delete removes the account and all sessions it owns.
func (s *userService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}

	deleted, err := s.sessionRepo.DeleteByUserID(ctx, id)
	if err != nil {
		return err
	}
	if deleted > 0 {
		log.Debugf("cascade deleted %d sessions of user %s", deleted, id.Hex())
	}
	return nil
}

// userTokens builds the per-user substitution map for the filter
// evaluator.
func userTokens(user *domain.User) map[string]string {
	tokens := filter.NewTokens()
	tokens["username"] = "'" + user.Username + "'"
	tokens["role"] = "'" + string(user.Role()) + "'"
	return tokens
}
