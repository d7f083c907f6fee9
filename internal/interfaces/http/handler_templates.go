package http

import (
	"net/http"

	"project_outreach/internal/usecases"

	"github.com/gin-gonic/gin"
)

// ListTemplates returns the tenant's saved templates, the shared
// defaults and the quick templates of its vertical.
func (h *Handler) ListTemplates(c *gin.Context) {
	acc, ok := h.queryAccount(c)
	if !ok {
		return
	}

	list, err := h.svc.Templates.List(c.Request.Context(), acc)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) CreateTemplate(c *gin.Context) {
	var req struct {
		tenantParams
		Name    string `json:"name"`
		Segment string `json:"segment"`
		Body    string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request")
		return
	}

	acc, ok := h.account(c, req.tenantParams)
	if !ok {
		return
	}

	t, err := h.svc.Templates.Create(c.Request.Context(), acc, usecases.NewTemplateInput{
		Name:    SanitizeString(req.Name),
		Segment: req.Segment,
		Body:    SanitizeString(req.Body),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "template": t})
}
