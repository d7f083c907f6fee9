package http

import (
	"net/http"
	"strings"

	"project_outreach/internal/entities"
	"project_outreach/internal/usecases"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type broadcastRequest struct {
	tenantParams
	Channel       string `json:"channel"`
	Segment       string `json:"segment"`
	Filter        string `json:"filter"`
	Message       string `json:"message"`
	TemplateID    string `json:"template_id"`
	MaxRecipients int    `json:"max_recipients"`
}

func (h *Handler) SendBroadcast(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request")
		return
	}

	audience, err := usecases.ParseSelector(req.Segment, req.Filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	channel := entities.Channel(strings.ToUpper(strings.TrimSpace(req.Channel)))
	if !channel.Valid() {
		h.badRequest(c, "channel must be SMS or TELEGRAM")
		return
	}

	acc, ok := h.account(c, req.tenantParams)
	if !ok {
		return
	}

	body := SanitizeString(req.Message)
	if strings.TrimSpace(body) == "" && req.TemplateID != "" {
		if h.svc.Templates == nil {
			h.badRequest(c, "message is required")
			return
		}
		if body, err = h.svc.Templates.Body(c.Request.Context(), acc, SanitizeString(req.TemplateID)); err != nil {
			h.fail(c, err)
			return
		}
	}

	res, err := h.svc.Broadcasts.Dispatch(c.Request.Context(), usecases.DispatchRequest{
		Account:       acc,
		Channel:       channel,
		Audience:      audience,
		Body:          body,
		MaxRecipients: req.MaxRecipients,
	})
	if err != nil {
		if res != nil {
			// Sends happened but the record did not land; report both.
			status, body := errorBody(err)
			body["attempted"] = res.Attempted
			body["succeeded"] = res.Succeeded
			body["failed"] = res.Failed
			h.log.Error("broadcast record lost", zap.String("account_id", acc.ID), zap.Error(err))
			c.JSON(status, body)
			return
		}
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"record_id":     res.RecordID,
		"attempted":     res.Attempted,
		"succeeded":     res.Succeeded,
		"failed":        res.Failed,
		"error_summary": res.ErrorSummary,
		"failures":      res.Failures,
	})
}

func (h *Handler) GetBroadcastLogs(c *gin.Context) {
	acc, ok := h.queryAccount(c)
	if !ok {
		return
	}

	take, ok := intQuery(c, "take", usecases.DefaultLogPageSize)
	if !ok {
		h.badRequest(c, "take must be a number")
		return
	}

	page, err := h.svc.History.Page(c.Request.Context(), acc, c.Query("cursor"), take)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) ActivateSMS(c *gin.Context) {
	var p tenantParams
	if err := c.ShouldBindJSON(&p); err != nil {
		h.badRequest(c, "Invalid request")
		return
	}
	acc, ok := h.account(c, p)
	if !ok {
		return
	}

	number, err := h.svc.Broadcasts.ActivateSMS(c.Request.Context(), acc)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "account_id": acc.ID, "sender_number": number})
}
