package http

import (
	"context"
	"io"
	"net/http"

	"project_outreach/internal/entities"
	"project_outreach/internal/segments"
	"project_outreach/internal/usecases"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type AccountService interface {
	Lookup(ctx context.Context, userID string, v entities.Vertical, requestedID string) (*entities.Account, error)
	Ensure(ctx context.Context, userID string, v entities.Vertical) (*entities.Account, bool, error)
}

type BroadcastService interface {
	Dispatch(ctx context.Context, req usecases.DispatchRequest) (*usecases.DispatchResult, error)
	ActivateSMS(ctx context.Context, acc *entities.Account) (string, error)
}

type UsageService interface {
	Usage(ctx context.Context, accountID string) (*usecases.UsageReport, error)
}

type HistoryService interface {
	Page(ctx context.Context, acc *entities.Account, cursor string, take int) (*usecases.LogPage, error)
}

type ContactService interface {
	List(ctx context.Context, acc *entities.Account, limit, offset int) ([]usecases.ContactView, error)
	Summary(ctx context.Context, acc *entities.Account) (*usecases.SegmentSummary, error)
	Create(ctx context.Context, acc *entities.Account, in usecases.NewContactInput) (*usecases.ContactView, error)
	Import(ctx context.Context, acc *entities.Account, data io.Reader) (*usecases.ImportReport, error)
}

type ChannelService interface {
	List(ctx context.Context, acc *entities.Account) ([]entities.ChannelMapping, error)
	Upsert(ctx context.Context, acc *entities.Account, segment, chatID, title string) (*entities.ChannelMapping, error)
}

type SegmentConfigService interface {
	Config(ctx context.Context, accountID string) (segments.Config, error)
	SetOverrides(ctx context.Context, accountID string, raw []byte) (segments.Config, error)
}

type TemplateService interface {
	List(ctx context.Context, acc *entities.Account) (*usecases.TemplateList, error)
	Create(ctx context.Context, acc *entities.Account, in usecases.NewTemplateInput) (*entities.Template, error)
	Body(ctx context.Context, acc *entities.Account, id string) (string, error)
}

type BillingService interface {
	ChangePlan(ctx context.Context, accountID string, plan entities.Plan) (*entities.Account, error)
}

// Services are the usecases the API is built on. Contacts, Channels,
// Segments, Templates and Billing are optional; their routes are skipped
// when nil.
type Services struct {
	Accounts   AccountService
	Broadcasts BroadcastService
	Usage      UsageService
	History    HistoryService
	Contacts   ContactService
	Channels   ChannelService
	Segments   SegmentConfigService
	Templates  TemplateService
	Billing    BillingService
}

type Handler struct {
	svc Services
	log *zap.Logger
}

func NewHandler(svc Services, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func SetupRoutes(r *gin.Engine, svc Services, middleware *Middleware, maxBodyBytes int64, log *zap.Logger) {
	h := NewHandler(svc, log)

	r.Use(middleware.RequestLogger())
	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimiter(maxBodyBytes))
	r.Use(middleware.CORSMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(middleware.AuthRequired())
	api.Use(middleware.RateLimitPerUser())
	{
		api.POST("/accounts", h.EnsureAccount)

		api.POST("/broadcasts", h.SendBroadcast)
		api.GET("/broadcasts/logs", h.GetBroadcastLogs)
		api.GET("/usage", h.GetUsage)
		api.POST("/sms/activate", h.ActivateSMS)

		if svc.Contacts != nil {
			api.GET("/contacts", h.ListContacts)
			api.POST("/contacts", h.CreateContact)
			api.POST("/contacts/import", h.ImportContacts)
			api.GET("/segments/summary", h.GetSegmentSummary)
		}
		if svc.Segments != nil {
			api.GET("/segments/config", h.GetSegmentConfig)
			api.PUT("/segments/config", h.PutSegmentConfig)
		}
		if svc.Channels != nil {
			api.GET("/telegram/channels", h.ListTelegramChannels)
			api.POST("/telegram/channels", h.UpsertTelegramChannel)
		}
		if svc.Templates != nil {
			api.GET("/templates", h.ListTemplates)
			api.POST("/templates", h.CreateTemplate)
		}
	}

	if svc.Billing != nil {
		admin := r.Group("/api/admin")
		admin.Use(middleware.AuthRequired())
		admin.Use(middleware.AdminRequired())
		{
			admin.PUT("/accounts/:id/plan", h.ChangePlan)
		}
	}
}

// tenantParams locate the caller's account for one vertical. AccountID is
// optional and ignored unless the caller owns it.
type tenantParams struct {
	Vertical  string `form:"vertical" json:"vertical"`
	AccountID string `form:"account_id" json:"account_id"`
}

// account resolves the caller's tenant without creating one. On failure
// the response has already been written.
func (h *Handler) account(c *gin.Context, p tenantParams) (*entities.Account, bool) {
	v, err := parseVertical(p.Vertical)
	if err != nil {
		h.badRequest(c, err.Error())
		return nil, false
	}
	acc, err := h.svc.Accounts.Lookup(c.Request.Context(), c.GetString(ctxUserID), v, SanitizeString(p.AccountID))
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return acc, true
}

// queryAccount reads tenantParams from the query string.
func (h *Handler) queryAccount(c *gin.Context) (*entities.Account, bool) {
	var p tenantParams
	if err := c.ShouldBindQuery(&p); err != nil {
		h.badRequest(c, "Invalid query parameters")
		return nil, false
	}
	return h.account(c, p)
}

func (h *Handler) EnsureAccount(c *gin.Context) {
	var req struct {
		Vertical string `json:"vertical"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request")
		return
	}
	v, err := parseVertical(req.Vertical)
	if err != nil {
		h.badRequest(c, err.Error())
		return
	}

	acc, created, err := h.svc.Accounts.Ensure(c.Request.Context(), c.GetString(ctxUserID), v)
	if err != nil {
		h.fail(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"account": acc, "created": created})
}

func (h *Handler) GetUsage(c *gin.Context) {
	acc, ok := h.queryAccount(c)
	if !ok {
		return
	}
	report, err := h.svc.Usage.Usage(c.Request.Context(), acc.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
