package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appidentity "github.com/czachandrew/tru-server/internal/application/identity"
	"github.com/czachandrew/tru-server/internal/domain/identity"
	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/czachandrew/tru-server/internal/infrastructure/auth"
	"github.com/czachandrew/tru-server/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testJWTConfig returns a default JWT config for tests
func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret-key-32-characters-long",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "test-issuer",
		MaxRefreshCount:        10,
	}
}

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context, filter identity.UserFilter) ([]*identity.User, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*identity.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// stubBlacklist is a no-op TokenBlacklist for tests
type stubBlacklist struct{}

func (stubBlacklist) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	return nil
}

func (stubBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	return false, nil
}

func (stubBlacklist) AddUserTokensToBlacklist(ctx context.Context, userID string, ttl time.Duration) error {
	return nil
}

func (stubBlacklist) IsUserTokenInvalidated(ctx context.Context, userID string, tokenIssuedAt time.Time) (bool, error) {
	return false, nil
}

// stubPublisher is a no-op event publisher for tests
type stubPublisher struct{}

func (stubPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return nil
}

func newTestAuthHandler(repo identity.UserRepository) *AuthHandler {
	jwtService := auth.NewJWTService(testJWTConfig())
	authService := appidentity.NewAuthService(
		repo,
		jwtService,
		stubBlacklist{},
		stubPublisher{},
		appidentity.DefaultAuthServiceConfig(),
		zap.NewNop(),
	)
	userService := appidentity.NewUserService(repo, zap.NewNop())
	return NewAuthHandler(authService, userService)
}

func newActiveTestUser(t *testing.T, email, password string) *identity.User {
	t.Helper()
	user, err := identity.NewActiveUser(email, password)
	require.NoError(t, err)
	return user
}

func performJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthHandlerRegister(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("ExistsByEmail", mock.Anything, "new@example.com").Return(false, nil)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*identity.User")).Return(nil)

		h := newTestAuthHandler(repo)
		router := gin.New()
		router.POST("/auth/register", h.Register)

		w := performJSON(router, http.MethodPost, "/auth/register", gin.H{
			"email":      "new@example.com",
			"password":   "password1234",
			"first_name": "Ada",
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		var resp struct {
			Success bool                     `json:"success"`
			Data    appidentity.AuthResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.NotEmpty(t, resp.Data.AccessToken)
		assert.NotEmpty(t, resp.Data.RefreshToken)
		assert.Equal(t, "new@example.com", resp.Data.User.Email)
		repo.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("ExistsByEmail", mock.Anything, "taken@example.com").Return(true, nil)

		h := newTestAuthHandler(repo)
		router := gin.New()
		router.POST("/auth/register", h.Register)

		w := performJSON(router, http.MethodPost, "/auth/register", gin.H{
			"email":    "taken@example.com",
			"password": "password1234",
		})

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		repo := new(MockUserRepository)
		h := newTestAuthHandler(repo)
		router := gin.New()
		router.POST("/auth/register", h.Register)

		w := performJSON(router, http.MethodPost, "/auth/register", gin.H{
			"email":    "not-an-email",
			"password": "short",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthHandlerLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		user := newActiveTestUser(t, "ada@example.com", "password1234")

		repo := new(MockUserRepository)
		repo.On("FindByEmail", mock.Anything, "ada@example.com").Return(user, nil)
		repo.On("Update", mock.Anything, user).Return(nil)

		h := newTestAuthHandler(repo)
		router := gin.New()
		router.POST("/auth/login", h.Login)

		w := performJSON(router, http.MethodPost, "/auth/login", gin.H{
			"email":    "ada@example.com",
			"password": "password1234",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Success bool                     `json:"success"`
			Data    appidentity.AuthResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Data.AccessToken)
		assert.Equal(t, "Bearer", resp.Data.TokenType)
	})

	t.Run("wrong password", func(t *testing.T) {
		user := newActiveTestUser(t, "ada@example.com", "password1234")

		repo := new(MockUserRepository)
		repo.On("FindByEmail", mock.Anything, "ada@example.com").Return(user, nil)
		repo.On("Update", mock.Anything, user).Return(nil)

		h := newTestAuthHandler(repo)
		router := gin.New()
		router.POST("/auth/login", h.Login)

		w := performJSON(router, http.MethodPost, "/auth/login", gin.H{
			"email":    "ada@example.com",
			"password": "wrong-password",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, shared.ErrNotFound)

		h := newTestAuthHandler(repo)
		router := gin.New()
		router.POST("/auth/login", h.Login)

		w := performJSON(router, http.MethodPost, "/auth/login", gin.H{
			"email":    "ghost@example.com",
			"password": "password1234",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthHandlerRefreshToken(t *testing.T) {
	user := newActiveTestUser(t, "ada@example.com", "password1234")

	jwtService := auth.NewJWTService(testJWTConfig())
	pair, err := jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:  user.ID,
		Email:   user.Email,
		IsStaff: false,
	})
	require.NoError(t, err)

	repo := new(MockUserRepository)
	repo.On("FindByID", mock.Anything, user.ID).Return(user, nil)

	h := newTestAuthHandler(repo)
	router := gin.New()
	router.POST("/auth/refresh", h.RefreshToken)

	w := performJSON(router, http.MethodPost, "/auth/refresh", gin.H{
		"refresh_token": pair.RefreshToken,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success bool                      `json:"success"`
		Data    appidentity.TokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.AccessToken)
	assert.NotEmpty(t, resp.Data.RefreshToken)
}

func TestAuthHandlerRefreshTokenInvalid(t *testing.T) {
	repo := new(MockUserRepository)
	h := newTestAuthHandler(repo)
	router := gin.New()
	router.POST("/auth/refresh", h.RefreshToken)

	w := performJSON(router, http.MethodPost, "/auth/refresh", gin.H{
		"refresh_token": "not-a-token",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerLogout(t *testing.T) {
	user := newActiveTestUser(t, "ada@example.com", "password1234")

	jwtService := auth.NewJWTService(testJWTConfig())
	pair, err := jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID: user.ID,
		Email:  user.Email,
	})
	require.NoError(t, err)

	repo := new(MockUserRepository)
	h := newTestAuthHandler(repo)
	router := gin.New()
	router.POST("/auth/logout", h.Logout)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Logged out successfully")
}

func TestAuthHandlerLogoutWithoutToken(t *testing.T) {
	repo := new(MockUserRepository)
	h := newTestAuthHandler(repo)
	router := gin.New()
	router.POST("/auth/logout", h.Logout)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerGetCurrentUser(t *testing.T) {
	user := newActiveTestUser(t, "ada@example.com", "password1234")

	repo := new(MockUserRepository)
	repo.On("FindByID", mock.Anything, user.ID).Return(user, nil)

	h := newTestAuthHandler(repo)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		setJWTContext(c, user.ID)
		c.Next()
	})
	router.GET("/auth/me", h.GetCurrentUser)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success bool                     `json:"success"`
		Data    appidentity.UserResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ada@example.com", resp.Data.Email)
}

func TestAuthHandlerChangePassword(t *testing.T) {
	user := newActiveTestUser(t, "ada@example.com", "password1234")

	repo := new(MockUserRepository)
	repo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	repo.On("Update", mock.Anything, user).Return(nil)

	h := newTestAuthHandler(repo)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		setJWTContext(c, user.ID)
		c.Next()
	})
	router.PUT("/auth/password", h.ChangePassword)

	w := performJSON(router, http.MethodPut, "/auth/password", gin.H{
		"old_password": "password1234",
		"new_password": "newpassword5678",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Password changed successfully")
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{"bearer token", "Bearer abc123", "abc123"},
		{"lowercase scheme", "bearer abc123", "abc123"},
		{"missing header", "", ""},
		{"wrong scheme", "Basic abc123", ""},
		{"no token", "Bearer", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				c.Request.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.expected, bearerToken(c))
		})
	}
}
