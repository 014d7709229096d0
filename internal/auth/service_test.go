package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/shared"
)

type memoryRepo struct {
	users map[string]*User
}

func (m *memoryRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	user, ok := m.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func newTestService(t *testing.T) (*Service, *memoryRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &memoryRepo{users: map[string]*User{
		"keeper@storeroom.test": {
			ID:           1,
			Email:        "keeper@storeroom.test",
			PasswordHash: string(hash),
			Role:         RoleStorekeeper,
			IsActive:     true,
		},
	}}
	return NewService(repo, client, time.Hour), repo
}

func TestAuthenticate(t *testing.T) {
	svc, repo := newTestService(t)

	user, err := svc.Authenticate(context.Background(), "keeper@storeroom.test", "letmein")
	require.NoError(t, err)
	require.Equal(t, int64(1), user.ID)

	_, err = svc.Authenticate(context.Background(), "keeper@storeroom.test", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody@storeroom.test", "letmein")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	repo.users["keeper@storeroom.test"].IsActive = false
	_, err = svc.Authenticate(context.Background(), "keeper@storeroom.test", "letmein")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestTokenLifecycle(t *testing.T) {
	svc, repo := newTestService(t)
	user := repo.users["keeper@storeroom.test"]

	token, err := svc.IssueToken(context.Background(), user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	actor, err := svc.Resolve(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, user.ID, actor.UserID)
	require.Equal(t, RoleStorekeeper, actor.Role)

	require.NoError(t, svc.Revoke(context.Background(), token))
	_, err = svc.Resolve(context.Background(), token)
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestResolveRejectsUnknownToken(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Resolve(context.Background(), "not-a-token")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Resolve(context.Background(), "")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}
