package http

import (
	"net/http"

	"project_outreach/internal/entities"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChangePlan is the billing hook: it sets the plan and its quota and
// restarts the period.
func (h *Handler) ChangePlan(c *gin.Context) {
	accountID := c.Param("id")
	if _, err := uuid.Parse(accountID); err != nil {
		h.badRequest(c, "Invalid account ID")
		return
	}

	var payload struct {
		Plan string `json:"plan"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.badRequest(c, "Invalid request")
		return
	}
	plan, err := entities.ParsePlan(payload.Plan)
	if err != nil {
		h.badRequest(c, "plan must be one of FREE, STARTER, GROWTH, VENUE")
		return
	}

	acc, err := h.svc.Billing.ChangePlan(c.Request.Context(), accountID, plan)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.log.Info("admin plan change",
		zap.String("admin_id", c.GetString(ctxUserID)),
		zap.String("account_id", acc.ID),
		zap.String("plan", string(plan)),
	)
	c.JSON(http.StatusOK, gin.H{
		"status":        "updated",
		"account_id":    acc.ID,
		"plan":          acc.Plan,
		"monthly_quota": acc.MonthlyQuota,
		"period_start":  acc.PeriodStart,
	})
}
