package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lifesaving-resources/instructor-api/internal/models"
	"github.com/lifesaving-resources/instructor-api/internal/service"
	"github.com/lifesaving-resources/instructor-api/pkg/config"
)

type jwtUserRepoStub struct {
	user *models.User
}

func (s *jwtUserRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.user != nil && s.user.Email == email {
		return s.user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *jwtUserRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *jwtUserRepoStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (s *jwtUserRepoStub) Create(ctx context.Context, user *models.User) error {
	s.user = user
	return nil
}

func jwtFixture(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password-123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &jwtUserRepoStub{user: &models.User{ID: "u1", Email: "admin@example.com", PasswordHash: string(hash), Active: true}}
	auth := service.NewAuthService(repo, config.JWTConfig{Secret: "secret", Expiration: time.Hour}, nil, nil)

	resp, err := auth.Login(context.Background(), service.LoginRequest{Email: "admin@example.com", Password: "password-123"})
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", JWT(auth), func(c *gin.Context) {
		claims := CurrentClaims(c)
		require.NotNil(t, claims)
		c.JSON(http.StatusOK, gin.H{"subject": claims.Subject})
	})
	return router, resp.Token
}

func TestJWTRejectsMissingHeader(t *testing.T) {
	router, _ := jwtFixture(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTRejectsMalformedHeader(t *testing.T) {
	router, token := jwtFixture(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAcceptsBearerToken(t *testing.T) {
	router, token := jwtFixture(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "u1")
}

func TestJWTRejectsTamperedToken(t *testing.T) {
	router, token := jwtFixture(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token+"x")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
