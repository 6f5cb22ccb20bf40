package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginIssuesTokenWithClaims(t *testing.T) {
	userRepo := newUserRepoFake()
	userSvc := NewUserService(userRepo, newSessionRepoFake())
	authSvc := NewAuthService(userRepo, "test-secret", time.Hour)

	created, err := userSvc.Create(context.Background(),
		UserInput{Username: "alice", Password: "s3cret", IsStaff: true})
	require.NoError(t, err)

	token, user, err := authSvc.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Empty(t, user.PasswordHash)

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	assert.Equal(t, created.ID.Hex(), claims.UserID)
	assert.True(t, claims.IsStaff)
	assert.False(t, claims.IsSuperuser)
	assert.Equal(t, "jogging-api", claims.Issuer)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	userRepo := newUserRepoFake()
	userSvc := NewUserService(userRepo, newSessionRepoFake())
	authSvc := NewAuthService(userRepo, "test-secret", time.Hour)

	_, err := userSvc.Create(context.Background(), UserInput{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)

	_, _, err = authSvc.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	_, _, err = authSvc.Login(context.Background(), "nobody", "s3cret")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	_, _, err = authSvc.Login(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}
