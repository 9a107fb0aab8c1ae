package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookclub/internal/auth"
	"github.com/mrlokans/bookclub/internal/database/crud"
	"github.com/mrlokans/bookclub/internal/database/users"
	"github.com/mrlokans/bookclub/internal/entities"
)

// UsersController handles the /user endpoints.
type UsersController struct {
	users       *users.Repository
	authService *auth.Service
}

func NewUsersController(repo *users.Repository, authService *auth.Service) *UsersController {
	return &UsersController{users: repo, authService: authService}
}

// profileUpdate is shared by the admin self-update and the user profile
// update. Only the fields present in the body are changed.
type profileUpdate struct {
	Email            *string `json:"email" binding:"omitempty,email,max=60"`
	Username         *string `json:"username" binding:"omitempty,min=3,max=15"`
	Name             *string `json:"name" binding:"omitempty,max=60"`
	FirstLastName    *string `json:"first_last_name" binding:"omitempty,max=60"`
	SecondLastName   *string `json:"second_last_name" binding:"omitempty,max=60"`
	DateOfBirth      *string `json:"date_of_birth"`
	PhoneNumber      *string `json:"phone_number" binding:"omitempty,max=20"`
	PhoneCountryCode *string `json:"phone_country_code" binding:"omitempty,max=5"`
	ProfilePicture   *string `json:"profile_picture" binding:"omitempty,max=2048"`
}

func (p profileUpdate) changes() (map[string]interface{}, error) {
	changes := map[string]interface{}{}
	set := func(column string, v *string) {
		if v != nil {
			changes[column] = strings.TrimSpace(*v)
		}
	}
	set("name", p.Name)
	set("first_last_name", p.FirstLastName)
	set("second_last_name", p.SecondLastName)
	set("phone_number", p.PhoneNumber)
	set("phone_country_code", p.PhoneCountryCode)
	set("profile_picture", p.ProfilePicture)
	if p.Email != nil {
		changes["email"] = strings.ToLower(strings.TrimSpace(*p.Email))
	}
	if p.Username != nil {
		if u := strings.TrimSpace(*p.Username); u != "" {
			changes["username"] = u
		} else {
			changes["username"] = nil
		}
	}
	if p.DateOfBirth != nil {
		dob, err := entities.ParseDate(*p.DateOfBirth)
		if err != nil {
			return nil, err
		}
		changes["date_of_birth"] = dob
	}
	return changes, nil
}

type passwordChange struct {
	Password             string `json:"password" binding:"required"`
	CurrentPassword      string `json:"current_password" binding:"required"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required"`
}

// List returns every user, accounts awaiting activation first.
func (controller *UsersController) List(c *gin.Context) {
	list, err := controller.users.ListAll(c.Request.Context())
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (controller *UsersController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := controller.users.Find(c.Request.Context(), id)
	if err != nil {
		respondFindError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (controller *UsersController) UsersLastSevenDays(c *gin.Context) {
	controller.lastSevenDays(c, entities.RoleUser)
}

func (controller *UsersController) EmergingLastSevenDays(c *gin.Context) {
	controller.lastSevenDays(c, entities.RoleAuthor)
}

func (controller *UsersController) lastSevenDays(c *gin.Context, role entities.UserRole) {
	report, err := controller.users.LastSevenDays(c.Request.Context(), crud.Eq("user_role", role))
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// UpdateAdmin lets an administrator edit their own account.
func (controller *UsersController) UpdateAdmin(c *gin.Context) {
	controller.updateSelf(c)
}

// UpdateProfile lets any user edit their own profile and picture.
func (controller *UsersController) UpdateProfile(c *gin.Context) {
	controller.updateSelf(c)
}

func (controller *UsersController) updateSelf(c *gin.Context) {
	user, ok := controller.self(c)
	if !ok {
		return
	}

	var req profileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	changes, err := req.changes()
	if err != nil {
		respondValidationError(c, err)
		return
	}
	if !controller.identityAvailable(c, user.ID, changes) {
		return
	}

	if len(changes) > 0 {
		if err := controller.users.Update(c.Request.Context(), user, changes, auth.Actor(c)); err != nil {
			respondDatabaseError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, user)
}

// identityAvailable rejects an email or username change that collides with
// another account.
func (controller *UsersController) identityAvailable(c *gin.Context, selfID uint, changes map[string]interface{}) bool {
	check := func(column string, code string) bool {
		value, ok := changes[column]
		if !ok || value == nil {
			return true
		}
		taken, err := controller.taken(c.Request.Context(), selfID, column, value)
		if err != nil {
			respondDatabaseError(c, err)
			return false
		}
		if taken {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: column + " already in use", Code: code})
			return false
		}
		return true
	}
	return check("email", auth.CodeEmailExists) && check("username", auth.CodeUsernameExists)
}

func (controller *UsersController) taken(ctx context.Context, selfID uint, column string, value interface{}) (bool, error) {
	return controller.users.Exists(ctx, crud.Eq(column, value), crud.Where("id <> ?", selfID))
}

// ChangePassword replaces the caller's password after checking the current one.
func (controller *UsersController) ChangePassword(c *gin.Context) {
	user, ok := controller.self(c)
	if !ok {
		return
	}

	var req passwordChange
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	err := controller.authService.ChangePassword(c.Request.Context(), user, req.CurrentPassword, req.Password, req.PasswordConfirmation, auth.Actor(c))
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, auth.ErrInvalidPassword):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: auth.CodeWrongPassword, Code: auth.CodeWrongPassword})
	case errors.Is(err, auth.ErrPasswordMismatch),
		errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, auth.ErrPasswordTooLong):
		respondValidationError(c, err)
	default:
		respondDatabaseError(c, err)
	}
}

// self loads the user addressed by :id, which must be the caller.
func (controller *UsersController) self(c *gin.Context) (*entities.User, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}
	if id != auth.GetUserID(c) {
		respondUnauthorized(c, "cannot update this user")
		return nil, false
	}
	user, err := controller.users.Find(c.Request.Context(), id)
	if err != nil {
		respondFindError(c, err, "user")
		return nil, false
	}
	return user, true
}

// Profile returns the complete profile, including the linked author.
func (controller *UsersController) Profile(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if id != auth.GetUserID(c) && !auth.IsAdmin(c) {
		respondForbidden(c)
		return
	}
	user, err := controller.users.Find(c.Request.Context(), id, "Author")
	if err != nil {
		respondFindError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (controller *UsersController) Activate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := controller.users.Find(c.Request.Context(), id)
	if err != nil {
		respondFindError(c, err, "user")
		return
	}
	if err := controller.users.Enable(c.Request.Context(), user, auth.Actor(c)); err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Deactivate disables an account and revokes its tokens. Users may
// deactivate themselves.
func (controller *UsersController) Deactivate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if id != auth.GetUserID(c) && !auth.IsAdmin(c) {
		respondForbidden(c)
		return
	}
	user, err := controller.users.Find(c.Request.Context(), id)
	if err != nil {
		respondFindError(c, err, "user")
		return
	}
	if err := controller.users.Disable(c.Request.Context(), user, auth.Actor(c)); err != nil {
		respondDatabaseError(c, err)
		return
	}
	if _, err := controller.authService.RevokeUserTokens(c.Request.Context(), user.ID); err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete removes the account together with everything it owns.
func (controller *UsersController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := controller.users.Find(c.Request.Context(), id)
	if err != nil {
		respondFindError(c, err, "user")
		return
	}
	if err := controller.users.DeleteUser(c.Request.Context(), user); err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
