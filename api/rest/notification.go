package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	mw "github.com/linguamate/server/middleware"
	"github.com/linguamate/server/notify"
)

// NotificationHandler handles notification REST endpoints.
type NotificationHandler struct {
	emitter *notify.Emitter
}

// NewNotificationHandler creates a NotificationHandler.
func NewNotificationHandler(emitter *notify.Emitter) *NotificationHandler {
	return &NotificationHandler{emitter: emitter}
}

// List handles GET /api/notifications.
// Query params: unread (bool), limit.
func (h *NotificationHandler) List(c *gin.Context) {
	memberID := mw.GetMemberID(c)

	unreadOnly := c.Query("unread") == "true"
	limit, _ := strconv.Atoi(c.Query("limit"))

	items, err := h.emitter.List(c.Request.Context(), memberID, unreadOnly, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

// UnreadCount handles GET /api/notifications/unread_count.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	memberID := mw.GetMemberID(c)
	n, err := h.emitter.UnreadCount(c.Request.Context(), memberID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

// MarkRead handles POST /api/notifications/:id/read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	memberID := mw.GetMemberID(c)
	notificationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.emitter.MarkRead(c.Request.Context(), memberID, notificationID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "read"})
}
