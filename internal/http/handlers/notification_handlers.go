package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
)

// NotificationHandlers serves the caller's in-app inbox
type NotificationHandlers struct {
	notifications domain.NotificationService
}

// NewNotificationHandlers creates new notification handlers
func NewNotificationHandlers(notifications domain.NotificationService) *NotificationHandlers {
	return &NotificationHandlers{notifications: notifications}
}

// List returns notifications newest first. ?unread=true limits to unread ones.
func (h *NotificationHandlers) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	limit, offset, ok := page(c)
	if !ok {
		return
	}

	list, err := h.notifications.List(c.Request.Context(), user.ID, c.Query("unread") == "true", limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]gin.H, 0, len(list))
	for _, n := range list {
		out = append(out, notificationJSON(n))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (h *NotificationHandlers) UnreadCount(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	count, err := h.notifications.UnreadCount(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"unread": count}})
}

func (h *NotificationHandlers) MarkRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), user.ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandlers) MarkAllRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	updated, err := h.notifications.MarkAllRead(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"updated": updated}})
}

func (h *NotificationHandlers) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.notifications.Delete(c.Request.Context(), user.ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
