package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListTelegramChannels returns the segment to chat bindings of a tenant.
func (h *Handler) ListTelegramChannels(c *gin.Context) {
	acc, ok := h.queryAccount(c)
	if !ok {
		return
	}

	mappings, err := h.svc.Channels.List(c.Request.Context(), acc)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account_id": acc.ID, "channels": mappings})
}

// UpsertTelegramChannel binds one segment to a chat the shared bot can
// post to.
func (h *Handler) UpsertTelegramChannel(c *gin.Context) {
	var req struct {
		tenantParams
		Segment string `json:"segment"`
		ChatID  string `json:"chat_id"`
		Title   string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request")
		return
	}
	if len(req.ChatID) > MaxChatIDLength {
		h.badRequest(c, "chat_id is too long")
		return
	}

	acc, ok := h.account(c, req.tenantParams)
	if !ok {
		return
	}

	m, err := h.svc.Channels.Upsert(c.Request.Context(), acc, req.Segment, SanitizeString(req.ChatID), TruncateString(SanitizeString(req.Title), MaxTitleLength))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved", "channel": m})
}
