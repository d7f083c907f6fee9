package http

import (
	"io"
	"net/http"

	"project_outreach/internal/usecases"

	"github.com/gin-gonic/gin"
)

const (
	defaultContactPage = 50
	maxContactPage     = 200
)

func (h *Handler) ListContacts(c *gin.Context) {
	acc, ok := h.queryAccount(c)
	if !ok {
		return
	}

	limit, ok := intQuery(c, "limit", defaultContactPage)
	if !ok {
		h.badRequest(c, "limit must be a number")
		return
	}
	offset, ok := intQuery(c, "offset", 0)
	if !ok || offset < 0 {
		h.badRequest(c, "offset must be a non-negative number")
		return
	}
	limit = min(max(limit, 1), maxContactPage)

	views, err := h.svc.Contacts.List(c.Request.Context(), acc, limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account_id": acc.ID, "contacts": views})
}

func (h *Handler) CreateContact(c *gin.Context) {
	var req struct {
		tenantParams
		usecases.NewContactInput
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request")
		return
	}

	acc, ok := h.account(c, req.tenantParams)
	if !ok {
		return
	}

	in := req.NewContactInput
	in.DisplayName = SanitizeString(in.DisplayName)
	view, err := h.svc.Contacts.Create(c.Request.Context(), acc, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// ImportContacts takes a multipart upload: a CSV "file" plus the tenant
// form fields.
func (h *Handler) ImportContacts(c *gin.Context) {
	acc, ok := h.account(c, tenantParams{
		Vertical:  c.PostForm("vertical"),
		AccountID: c.PostForm("account_id"),
	})
	if !ok {
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		h.badRequest(c, "Bad request: missing file")
		return
	}
	defer file.Close()

	report, err := h.svc.Contacts.Import(c.Request.Context(), acc, file)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

func (h *Handler) GetSegmentSummary(c *gin.Context) {
	acc, ok := h.queryAccount(c)
	if !ok {
		return
	}

	summary, err := h.svc.Contacts.Summary(c.Request.Context(), acc)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) GetSegmentConfig(c *gin.Context) {
	acc, ok := h.queryAccount(c)
	if !ok {
		return
	}

	cfg, err := h.svc.Segments.Config(c.Request.Context(), acc.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account_id": acc.ID, "config": cfg})
}

// PutSegmentConfig stores threshold overrides. The body is a partial
// config document; the tenant comes from the query string.
func (h *Handler) PutSegmentConfig(c *gin.Context) {
	acc, ok := h.queryAccount(c)
	if !ok {
		return
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil || len(raw) == 0 {
		h.badRequest(c, "Invalid request")
		return
	}

	cfg, err := h.svc.Segments.SetOverrides(c.Request.Context(), acc.ID, raw)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved", "account_id": acc.ID, "config": cfg})
}
