package http

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookclub/internal/auth"
	"github.com/mrlokans/bookclub/internal/database/crud"
	"github.com/mrlokans/bookclub/internal/entities"
)

func TestUsersController_ListPendingFirst(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.createUser(entities.RoleAdmin, "admin@example.com")
	api.createUser(entities.RoleUser, "active@example.com")

	// Emerging authors register disabled and wait for activation.
	pending := &entities.User{Email: "pending@example.com", Password: "x", UserRole: entities.RoleAuthor}
	pending.Disabled = true
	require.NoError(t, api.db.Create(pending).Error)

	w := api.do(http.MethodGet, "/api/user", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]entities.User](t, w)
	require.Len(t, list, 3)
	assert.Equal(t, "pending@example.com", list[0].Email)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestUsersController_Get(t *testing.T) {
	api := newTestAPI(t)
	admin, adminToken := api.createUser(entities.RoleAdmin, "admin@example.com")

	w := api.do(http.MethodGet, fmt.Sprintf("/api/user/%d", admin.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin@example.com", decode[entities.User](t, w).Email)

	w = api.do(http.MethodGet, "/api/user/999", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"user not found"}`, w.Body.String())

	w = api.do(http.MethodGet, "/api/user/abc", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUsersController_LastSevenDays(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.createUser(entities.RoleAdmin, "admin@example.com")
	api.createUser(entities.RoleUser, "new@example.com")
	old, _ := api.createUser(entities.RoleUser, "old@example.com")
	api.createUser(entities.RoleAuthor, "writer@example.com")
	require.NoError(t, api.db.Model(old).UpdateColumn("created_at", time.Now().AddDate(0, 0, -9)).Error)

	type report struct {
		TotalPastWeek int64           `json:"total_past_week"`
		ThisWeek      []entities.User `json:"this_week"`
	}

	w := api.do(http.MethodGet, "/api/user/users-last-seven-days", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	users := decode[report](t, w)
	assert.Equal(t, int64(1), users.TotalPastWeek)
	require.Len(t, users.ThisWeek, 1)
	assert.Equal(t, "new@example.com", users.ThisWeek[0].Email)

	w = api.do(http.MethodGet, "/api/user/emerging-last-seven-days", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	authors := decode[report](t, w)
	assert.Equal(t, int64(0), authors.TotalPastWeek)
	require.Len(t, authors.ThisWeek, 1)
	assert.Equal(t, "writer@example.com", authors.ThisWeek[0].Email)
}

func TestUsersController_UpdateAdmin(t *testing.T) {
	api := newTestAPI(t)
	admin, adminToken := api.createUser(entities.RoleAdmin, "admin@example.com")
	other, _ := api.createUser(entities.RoleAdmin, "other@example.com")
	api.createUser(entities.RoleUser, "taken@example.com")

	w := api.do(http.MethodPatch, fmt.Sprintf("/api/user/admin/%d", admin.ID), adminToken, map[string]any{
		"name":            "Grace",
		"first_last_name": "Hopper",
		"date_of_birth":   "1906-12-09",
		"username":        "grace",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[entities.User](t, w)
	assert.Equal(t, "Grace Hopper", updated.FullName)
	assert.Equal(t, "grace", updated.UsernameValue())
	require.NotNil(t, updated.ModifiedBy)
	assert.Equal(t, admin.ID, *updated.ModifiedBy)

	w = api.do(http.MethodPatch, fmt.Sprintf("/api/user/admin/%d", other.ID), adminToken, map[string]any{"name": "X"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodPatch, fmt.Sprintf("/api/user/admin/%d", admin.ID), adminToken, map[string]any{"email": "taken@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), auth.CodeEmailExists)

	w = api.do(http.MethodPatch, fmt.Sprintf("/api/user/admin/%d", admin.ID), adminToken, map[string]any{"date_of_birth": "someday"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestUsersController_ChangePassword(t *testing.T) {
	api := newTestAPI(t)
	admin, adminToken := api.createUser(entities.RoleAdmin, "admin@example.com")
	path := fmt.Sprintf("/api/user/admin/password/%d", admin.ID)

	tests := []struct {
		name     string
		body     map[string]any
		wantCode int
		wantBody string
	}{
		{
			name:     "wrong current password",
			body:     map[string]any{"current_password": "nope-nope", "password": "newpassword1", "password_confirmation": "newpassword1"},
			wantCode: http.StatusNotFound,
			wantBody: auth.CodeWrongPassword,
		},
		{
			name:     "confirmation mismatch",
			body:     map[string]any{"current_password": testPassword, "password": "newpassword1", "password_confirmation": "newpassword2"},
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "too short",
			body:     map[string]any{"current_password": testPassword, "password": "short", "password_confirmation": "short"},
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "missing fields",
			body:     map[string]any{"password": "newpassword1"},
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "success",
			body:     map[string]any{"current_password": testPassword, "password": "newpassword1", "password_confirmation": "newpassword1"},
			wantCode: http.StatusNoContent,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(http.MethodPatch, path, adminToken, tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantBody != "" {
				assert.Contains(t, w.Body.String(), tt.wantBody)
			}
		})
	}

	_, err := api.auth.Authenticate(context.Background(), "admin@example.com", "newpassword1")
	assert.NoError(t, err)
}

func TestUsersController_Profile(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.createUser(entities.RoleAdmin, "admin@example.com")
	user, userToken := api.createUser(entities.RoleUser, "user@example.com")
	other, _ := api.createUser(entities.RoleUser, "other@example.com")

	path := fmt.Sprintf("/api/user/%d/profile", user.ID)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, path, userToken, nil).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, path, adminToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, fmt.Sprintf("/api/user/%d/profile", other.ID), userToken, nil).Code)

	w := api.do(http.MethodPatch, fmt.Sprintf("/api/user/user/%d", user.ID), userToken, map[string]any{
		"profile_picture": "https://cdn.example.com/me.png",
		"phone_number":    "555-0100",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[entities.User](t, w)
	assert.Equal(t, "https://cdn.example.com/me.png", updated.ProfilePicture)
	assert.Equal(t, "555-0100", updated.PhoneNumber)

	w = api.do(http.MethodPatch, fmt.Sprintf("/api/user/user/%d", other.ID), userToken, map[string]any{"name": "X"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUsersController_ActivateDeactivate(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.createUser(entities.RoleAdmin, "admin@example.com")
	user, userToken := api.createUser(entities.RoleUser, "user@example.com")
	other, _ := api.createUser(entities.RoleUser, "other@example.com")

	w := api.do(http.MethodPut, fmt.Sprintf("/api/user/%d/deactivate", other.ID), userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodPut, fmt.Sprintf("/api/user/%d/deactivate", user.ID), userToken, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	stored, err := crud.New[entities.User](api.db).Find(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, stored.Disabled)
	require.NotNil(t, stored.DisabledBy)
	assert.Equal(t, user.ID, *stored.DisabledBy)

	// Deactivation revokes every token of the account.
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/book", userToken, nil).Code)

	_, err = api.auth.Authenticate(context.Background(), "user@example.com", testPassword)
	assert.ErrorIs(t, err, auth.ErrUserDisabled)

	w = api.do(http.MethodPut, fmt.Sprintf("/api/user/%d/activate", user.ID), adminToken, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	_, err = api.auth.Authenticate(context.Background(), "user@example.com", testPassword)
	assert.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPut, "/api/user/999/activate", adminToken, nil).Code)
}

func TestUsersController_DeleteCascades(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.createUser(entities.RoleAdmin, "admin@example.com")
	user, userToken := api.createUser(entities.RoleUser, "user@example.com")
	book := api.createBook("Dune", entities.BookStatusActive)

	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/review", userToken, map[string]any{
		"title": "Great", "content": "Spice", "rating": 5, "book_id": book.ID,
	}).Code)
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/book-list", userToken, map[string]any{"name": "Favourites"}).Code)

	w := api.do(http.MethodDelete, fmt.Sprintf("/api/user/%d", user.ID), adminToken, nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	var n int64
	require.NoError(t, api.db.Model(&entities.User{}).Where("id = ?", user.ID).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, api.db.Model(&entities.Review{}).Where("user_id = ?", user.ID).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, api.db.Model(&entities.BookList{}).Where("user_id = ?", user.ID).Count(&n).Error)
	assert.Zero(t, n)

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, fmt.Sprintf("/api/user/%d", user.ID), adminToken, nil).Code)
}
