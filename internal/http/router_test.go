package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/bookclub/internal/auth"
	"github.com/mrlokans/bookclub/internal/config"
	"github.com/mrlokans/bookclub/internal/database/crud"
	"github.com/mrlokans/bookclub/internal/database/dbtest"
	"github.com/mrlokans/bookclub/internal/entities"
	"github.com/mrlokans/bookclub/internal/logging"
	"github.com/mrlokans/bookclub/internal/storage"
	"github.com/mrlokans/bookclub/internal/telemetry"
)

const testPassword = "password123"

// recordingNotifier captures review notifications instead of queueing them.
type recordingNotifier struct {
	mu    sync.Mutex
	calls [][2]uint
	err   error
}

func (n *recordingNotifier) NotifyReview(_ context.Context, authorID, bookID uint) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, [2]uint{authorID, bookID})
	return n.err
}

type testAPI struct {
	t        *testing.T
	db       *gorm.DB
	router   *gin.Engine
	auth     *auth.Service
	notifier *recordingNotifier
	metrics  *telemetry.HTTPMetrics
}

type apiOption func(cfg *RouterConfig)

func withStorage(client storage.Client) apiOption {
	return func(cfg *RouterConfig) { cfg.Storage = client }
}

func withDemoMode() apiOption {
	return func(cfg *RouterConfig) { cfg.DemoMode = true }
}

func newTestAPI(t *testing.T, opts ...apiOption) *testAPI {
	t.Helper()
	db := dbtest.New(t)
	authCfg := config.Auth{
		JWTSecret:        "test-secret",
		JWTIssuer:        "bookclub-test",
		TokenExpiry:      time.Hour,
		BcryptCost:       4,
		MaxLoginAttempts: 5,
		RateLimitWindow:  time.Minute,
		LockoutDuration:  time.Minute,
	}
	authService := auth.NewService(db, authCfg)
	middleware := auth.NewMiddleware(authService, logging.Nop())
	authController := auth.NewAuthController(authService, middleware, authCfg, logging.Nop())
	t.Cleanup(authController.Stop)

	metrics, err := telemetry.NewHTTPMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	cfg := RouterConfig{
		DB:             db,
		AuthService:    authService,
		AuthMiddleware: middleware,
		AuthController: authController,
		ReviewNotifier: notifier,
		Metrics:        metrics,
		Logger:         logging.Nop(),
		Version:        "test",
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &testAPI{
		t:        t,
		db:       db,
		router:   NewRouter(cfg),
		auth:     authService,
		notifier: notifier,
		metrics:  metrics,
	}
}

// createUser inserts an enabled account and returns it with a bearer token.
func (a *testAPI) createUser(role entities.UserRole, email string) (*entities.User, string) {
	a.t.Helper()
	hash, err := auth.HashPassword(testPassword, 4)
	require.NoError(a.t, err)

	user := &entities.User{Email: email, Password: hash, UserRole: role, Name: "Test", FirstLastName: string(role)}
	require.NoError(a.t, crud.New[entities.User](a.db).Insert(context.Background(), user, nil))

	token, err := a.auth.IssueToken(context.Background(), user)
	require.NoError(a.t, err)
	return user, token
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// seedCatalogue inserts an author, a genre and a publisher.
func (a *testAPI) seedCatalogue() (*entities.Author, *entities.Genre, *entities.Publisher) {
	a.t.Helper()
	ctx := context.Background()
	author := &entities.Author{Name: "Ursula", FirstLastName: "Le Guin"}
	genre := &entities.Genre{Name: "Fantasy"}
	publisher := &entities.Publisher{Name: "Parnassus"}
	require.NoError(a.t, crud.New[entities.Author](a.db).Insert(ctx, author, nil))
	require.NoError(a.t, crud.New[entities.Genre](a.db).Insert(ctx, genre, nil))
	require.NoError(a.t, crud.New[entities.Publisher](a.db).Insert(ctx, publisher, nil))
	return author, genre, publisher
}

func (a *testAPI) createBook(title string, status entities.BookStatus) *entities.Book {
	a.t.Helper()
	book := &entities.Book{Title: title, Status: status}
	require.NoError(a.t, crud.New[entities.Book](a.db).Insert(context.Background(), book, nil))
	return book
}

func TestRouter_ListingPermissions(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.createUser(entities.RoleAdmin, "admin@example.com")
	_, userToken := api.createUser(entities.RoleUser, "user@example.com")
	_, authorToken := api.createUser(entities.RoleAuthor, "author@example.com")

	tests := []struct {
		path  string
		token string
		want  int
	}{
		{"/api/user", adminToken, http.StatusOK},
		{"/api/user", userToken, http.StatusForbidden},
		{"/api/user", authorToken, http.StatusForbidden},
		{"/api/user", "", http.StatusUnauthorized},
		{"/api/book", adminToken, http.StatusOK},
		{"/api/book", userToken, http.StatusOK},
		{"/api/book", authorToken, http.StatusForbidden},
		{"/api/book", "", http.StatusUnauthorized},
		{"/api/review", adminToken, http.StatusOK},
		{"/api/review", userToken, http.StatusForbidden},
		{"/api/genre", userToken, http.StatusForbidden},
		{"/api/author", adminToken, http.StatusOK},
		{"/api/review/book/1", "", http.StatusOK},
		{"/api/review/friends-reviews", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %d", tt.path, tt.want), func(t *testing.T) {
			w := api.do(http.MethodGet, tt.path, tt.token, nil)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestRouter_DisabledUserIsForbidden(t *testing.T) {
	api := newTestAPI(t)
	user, token := api.createUser(entities.RoleUser, "user@example.com")
	require.NoError(t, crud.New[entities.User](api.db).Disable(context.Background(), user, nil))

	w := api.do(http.MethodGet, "/api/book", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "inactive user")
}

func TestRouter_LogoutRevokesToken(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.createUser(entities.RoleUser, "user@example.com")

	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/book", token, nil).Code)
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/auth/logout", token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/book", token, nil).Code)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = api.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",path="/api/health",status="200"} 1`)
}

func TestRouter_DemoModeIsReadOnly(t *testing.T) {
	api := newTestAPI(t, withDemoMode())
	_, adminToken := api.createUser(entities.RoleAdmin, "admin@example.com")
	book := api.createBook("Dune", entities.BookStatusActive)

	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, fmt.Sprintf("/api/book/%d", book.ID), adminToken, nil).Code)

	w := api.do(http.MethodPost, "/api/genre", adminToken, map[string]any{"name": "Poetry"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"demo_mode":true`)

	w = api.do(http.MethodPost, "/api/auth/login", "", map[string]any{"username": "admin@example.com", "password": testPassword})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
