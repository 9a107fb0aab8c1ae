package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookclub/internal/auth"
	"github.com/mrlokans/bookclub/internal/database/notifications"
)

type NotificationsController struct {
	notifications *notifications.Repository
}

func NewNotificationsController(repo *notifications.Repository) *NotificationsController {
	return &NotificationsController{notifications: repo}
}

// List returns the caller's notifications. Nobody may read another user's.
func (controller *NotificationsController) List(c *gin.Context) {
	userID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}
	if userID != auth.GetUserID(c) {
		respondForbidden(c)
		return
	}
	list, err := controller.notifications.ForUser(c.Request.Context(), userID)
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
