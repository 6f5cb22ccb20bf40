package service

import (
	"context"
	"testing"
	"time"

	"alcyxob/jogging-api/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

func newTestUserService() (UserService, *userRepoFake, *sessionRepoFake) {
	userRepo := newUserRepoFake()
	sessionRepo := newSessionRepoFake()
	return NewUserService(userRepo, sessionRepo), userRepo, sessionRepo
}

func TestCreateUserHashesPassword(t *testing.T) {
	svc, _, _ := newTestUserService()

	user, err := svc.Create(context.Background(), UserInput{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)
	require.NotNil(t, user)

	assert.False(t, user.ID.IsZero())
	assert.NotEqual(t, "s3cret", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret")))
}

func TestCreateUserValidation(t *testing.T) {
	svc, _, _ := newTestUserService()

	_, err := svc.Create(context.Background(), UserInput{Password: "s3cret"})
	require.ErrorIs(t, err, ErrInvalidUsername)
	assert.True(t, IsValidation(err))

	_, err = svc.Create(context.Background(), UserInput{Username: "alice"})
	require.ErrorIs(t, err, ErrInvalidPassword)
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	svc, _, _ := newTestUserService()

	_, err := svc.Create(context.Background(), UserInput{Username: "alice", Password: "one"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), UserInput{Username: "alice", Password: "two"})
	require.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestUpdateUserReplacesAllFields(t *testing.T) {
	svc, _, _ := newTestUserService()

	created, err := svc.Create(context.Background(), UserInput{Username: "alice", Password: "one"})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, UserInput{
		Username: "alice2",
		Password: "two",
		IsStaff:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice2", updated.Username)
	assert.True(t, updated.IsStaff)
	assert.Equal(t, domain.RoleStaff, updated.Role())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("two")))
}

func TestUpdateUserNotFound(t *testing.T) {
	svc, _, _ := newTestUserService()

	_, err := svc.Update(context.Background(), primitive.NewObjectID(),
		UserInput{Username: "ghost", Password: "x"})
	assert.Error(t, err)
}

func TestDeleteUserCascadesToSessions(t *testing.T) {
	svc, _, sessionRepo := newTestUserService()
	sessionSvc := NewSessionService(sessionRepo, &weatherFake{})

	user, err := svc.Create(context.Background(), UserInput{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)

	for day := 7; day <= 8; day++ {
		_, err := sessionSvc.Create(context.Background(),
			sessionInput(user.ID, 1000, 30, time.Date(2021, 6, day, 8, 0, 0, 0, time.UTC)))
		require.NoError(t, err)
	}
	other, err := sessionSvc.Create(context.Background(),
		sessionInput(primitive.NewObjectID(), 1000, 30, time.Date(2021, 6, 7, 8, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), user.ID))

	_, err = svc.Get(context.Background(), user.ID)
	assert.Error(t, err)

	remaining, err := sessionRepo.List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, other.ID, remaining[0].ID)
}

func TestListUsersOrderedAndFiltered(t *testing.T) {
	svc, _, _ := newTestUserService()

	_, err := svc.Create(context.Background(), UserInput{Username: "carol", Password: "x", IsStaff: true})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), UserInput{Username: "alice", Password: "x"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), UserInput{Username: "bob", Password: "x", IsSuperuser: true})
	require.NoError(t, err)

	all, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "alice", all[0].Username)
	assert.Equal(t, "bob", all[1].Username)
	assert.Equal(t, "carol", all[2].Username)

	staff, err := svc.List(context.Background(), "role eq 'staff'")
	require.NoError(t, err)
	require.Len(t, staff, 1)
	assert.Equal(t, "carol", staff[0].Username)

	named, err := svc.List(context.Background(), "(username eq 'bob')")
	require.NoError(t, err)
	require.Len(t, named, 1)
	assert.Equal(t, "bob", named[0].Username)
}
