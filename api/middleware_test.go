package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/tverdin/carrental/internal/domain"
	"github.com/tverdin/carrental/internal/service/users"
)

// MockUserUseCase is a mock implementation of users.UserUseCase
type MockUserUseCase struct {
	mock.Mock
}

func (m *MockUserUseCase) Register(ctx context.Context, input users.RegisterInput) (*domain.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserUseCase) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*domain.User), args.String(1), args.Error(2)
}

func (m *MockUserUseCase) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserUseCase) Logout(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockUserUseCase) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserUseCase) Delete(ctx context.Context, actorID, userID int64) error {
	args := m.Called(ctx, actorID, userID)
	return args.Error(0)
}

func TestAuth_ResolvesUserFromBearerToken(t *testing.T) {
	mockService := &MockUserUseCase{}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(mockService))
	router.GET("/me", func(c *gin.Context) {
		user := currentUser(c)
		assert.NotNil(t, user)
		c.JSON(http.StatusOK, gin.H{"id": user.ID})
	})

	mockService.On("CurrentUser", mock.Anything, "token-1").Return(&domain.User{ID: 7}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer token-1")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestAuth_MissingToken(t *testing.T) {
	mockService := &MockUserUseCase{}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(mockService))
	router.GET("/me", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/me", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockService.AssertNotCalled(t, "CurrentUser")
}

func TestAuth_InvalidToken(t *testing.T) {
	mockService := &MockUserUseCase{}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(mockService))
	router.GET("/me", func(c *gin.Context) { c.Status(http.StatusOK) })

	mockService.On("CurrentUser", mock.Anything, "stale").Return(nil, domain.ErrInvalidCredentials)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer stale")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("admin passes", func(t *testing.T) {
		router := gin.New()
		router.Use(func(c *gin.Context) { c.Set(userContextKey, &domain.User{ID: 1, IsAdmin: true}) })
		router.Use(RequireAdmin())
		router.GET("/admin", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/admin", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("non-admin forbidden", func(t *testing.T) {
		router := gin.New()
		router.Use(func(c *gin.Context) { c.Set(userContextKey, &domain.User{ID: 7}) })
		router.Use(RequireAdmin())
		router.GET("/admin", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/admin", nil))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("no user forbidden", func(t *testing.T) {
		router := gin.New()
		router.Use(RequireAdmin())
		router.GET("/admin", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/admin", nil))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestCutBearer(t *testing.T) {
	token, ok := cutBearer("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	_, ok = cutBearer("abc")
	assert.False(t, ok)

	_, ok = cutBearer("Bearer ")
	assert.False(t, ok)

	_, ok = cutBearer("")
	assert.False(t, ok)
}
