package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mrlokans/bookclub/internal/auth"
	"github.com/mrlokans/bookclub/internal/database/crud"
	"github.com/mrlokans/bookclub/internal/database/notifications"
	"github.com/mrlokans/bookclub/internal/database/users"
	"github.com/mrlokans/bookclub/internal/entities"
)

// FriendshipsController handles the /friendship endpoints.
type FriendshipsController struct {
	users         *users.Repository
	notifications *notifications.Repository
}

func NewFriendshipsController(userRepo *users.Repository, notificationRepo *notifications.Repository) *FriendshipsController {
	return &FriendshipsController{users: userRepo, notifications: notificationRepo}
}

// Friends lists the friends of :user_id.
func (controller *FriendshipsController) Friends(c *gin.Context) {
	userID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}
	if _, err := controller.users.Find(c.Request.Context(), userID); err != nil {
		respondFindError(c, err, "user")
		return
	}
	friends, err := controller.users.Friends(c.Request.Context(), userID)
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, friends)
}

// Befriend links the caller and :friend_id in both directions and notifies
// the new friend. Repeating it changes nothing.
func (controller *FriendshipsController) Befriend(c *gin.Context) {
	friendID, ok := parseIDParam(c, "friend_id")
	if !ok {
		return
	}
	userID := auth.GetUserID(c)
	if friendID == userID {
		respondValidationError(c, users.ErrSelfFriendship)
		return
	}

	ctx := c.Request.Context()
	friend, err := controller.users.Find(ctx, friendID)
	if err != nil {
		respondFindError(c, err, "user")
		return
	}
	already, err := controller.users.AreFriends(ctx, userID, friendID)
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	if already {
		c.JSON(http.StatusOK, friend)
		return
	}

	// The friendship and its notification are stored together.
	err = crud.Commit(ctx, controller.users.DB(), func(tx *gorm.DB) error {
		if err := controller.users.WithTx(tx).AddFriend(ctx, userID, friendID); err != nil {
			return err
		}
		_, err := controller.notifications.WithTx(tx).NotifyMany(ctx, entities.NotificationFriendship, []uint{friendID}, &userID, nil)
		return err
	})
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, friend)
}

// Unfriend removes both directions of the friendship.
func (controller *FriendshipsController) Unfriend(c *gin.Context) {
	friendID, ok := parseIDParam(c, "friend_id")
	if !ok {
		return
	}
	if err := controller.users.RemoveFriend(c.Request.Context(), auth.GetUserID(c), friendID); err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
