package http

import "github.com/gin-gonic/gin"

// ListNotifications handles GET /api/notifications?unread=true&limit=&offset=
func (h *handlers) ListNotifications(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		h.fail(c, err)
		return
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		h.fail(c, err)
		return
	}
	unreadOnly := c.Query("unread") == "true"

	notifications, err := h.services.Notifications.ListForUser(c.Request.Context(), h.principal(c), unreadOnly, limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"notifications": notifications})
}

// UnreadCount handles GET /api/notifications/unread-count
func (h *handlers) UnreadCount(c *gin.Context) {
	count, err := h.services.Notifications.UnreadCount(c.Request.Context(), h.principal(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"count": count})
}

// MarkRead handles PUT /api/notifications/:id/read
func (h *handlers) MarkRead(c *gin.Context) {
	if err := h.services.Notifications.MarkRead(c.Request.Context(), h.principal(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"read": true})
}

// MarkAllRead handles PUT /api/notifications/read-all
func (h *handlers) MarkAllRead(c *gin.Context) {
	n, err := h.services.Notifications.MarkAllRead(c.Request.Context(), h.principal(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"updated": n})
}
