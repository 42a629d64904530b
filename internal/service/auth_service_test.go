package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lifesaving-resources/instructor-api/internal/models"
	"github.com/lifesaving-resources/instructor-api/pkg/config"
)

type userRepoStub struct {
	users     map[string]*models.User
	lastLogin time.Time
}

func (s *userRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := s.users[email]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *userRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	for _, user := range s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *userRepoStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	s.lastLogin = ts
	return nil
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "u-" + user.Email
	}
	if s.users == nil {
		s.users = map[string]*models.User{}
	}
	s.users[user.Email] = user
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *userRepoStub) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &userRepoStub{users: map[string]*models.User{
		"admin@example.com": {ID: "u1", Email: "admin@example.com", PasswordHash: string(hash), FullName: "Admin", Active: true},
	}}
	cfg := config.JWTConfig{Secret: "test-secret", Expiration: time.Hour}
	return NewAuthService(repo, cfg, nil, nil), repo
}

func TestLoginSuccess(t *testing.T) {
	svc, repo := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "admin@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "u1", resp.User.ID)
	assert.False(t, repo.lastLogin.IsZero())

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "admin@example.com", claims.Email)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "admin@example.com", Password: "wrong"})
	assert.Error(t, err)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	assert.Error(t, err)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, repo := newAuthFixture(t)
	repo.users["admin@example.com"].Active = false

	_, err := svc.Login(context.Background(), LoginRequest{Email: "admin@example.com", Password: "correct-horse"})
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestRegisterThenLogin(t *testing.T) {
	svc, _ := newAuthFixture(t)

	user, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "second@example.com",
		Password: "long-enough-pw",
		FullName: "Second Admin",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "second@example.com", Password: "long-enough-pw"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "admin@example.com",
		Password: "long-enough-pw",
		FullName: "Dup",
	})
	assert.Error(t, err)
}
