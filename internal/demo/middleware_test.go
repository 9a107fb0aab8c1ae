package demo

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newDemoRouter(enabled bool) *gin.Engine {
	router := gin.New()
	router.Use(NewMiddleware(enabled).Handler())
	router.Any("/*path", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	return router
}

func TestNewMiddleware(t *testing.T) {
	if !NewMiddleware(true).IsEnabled() {
		t.Error("Expected middleware to be enabled")
	}
	if NewMiddleware(false).IsEnabled() {
		t.Error("Expected middleware to be disabled")
	}
}

func TestMiddleware_Methods(t *testing.T) {
	router := newDemoRouter(true)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/book", http.StatusOK},
		{http.MethodHead, "/api/book", http.StatusOK},
		{http.MethodOptions, "/api/book", http.StatusOK},
		{http.MethodPost, "/api/book", http.StatusForbidden},
		{http.MethodPut, "/api/book/1", http.StatusForbidden},
		{http.MethodPatch, "/api/user/user/1", http.StatusForbidden},
		{http.MethodDelete, "/api/book-list/1", http.StatusForbidden},
		{http.MethodPost, "/api/auth/login", http.StatusOK},
		{http.MethodPost, "/api/auth/logout", http.StatusOK},
		{http.MethodPost, "/api/auth/signup", http.StatusForbidden},
		{http.MethodPost, "/api/auth/login/extra", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			if w.Code != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestMiddleware_BlockedResponse(t *testing.T) {
	w := httptest.NewRecorder()
	newDemoRouter(true).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/review", nil))

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["demo_mode"] != true {
		t.Error("Expected demo_mode flag in response")
	}
	if response["error"] != blockedMessage {
		t.Errorf("Unexpected error message: %v", response["error"])
	}
}

func TestMiddleware_DisabledAllowsAllRequests(t *testing.T) {
	router := newDemoRouter(false)
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, "/api/book", nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected status 200, got %d", method, w.Code)
		}
	}
}
