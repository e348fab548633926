package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/mail-dispatch/internal/dispatch"
	"github.com/ignite/mail-dispatch/internal/domain"
	"github.com/ignite/mail-dispatch/internal/pkg/httputil"
	"github.com/ignite/mail-dispatch/internal/pkg/logger"
	"github.com/ignite/mail-dispatch/internal/repository/postgres"
	"github.com/ignite/mail-dispatch/internal/ses"
	"github.com/ignite/mail-dispatch/internal/templates"
)

// CampaignDispatcher runs one campaign fan-out to completion.
type CampaignDispatcher interface {
	Dispatch(ctx context.Context, job dispatch.Job) (*dispatch.Result, error)
}

// CampaignGetter looks up a campaign scoped to an organization.
type CampaignGetter interface {
	Get(ctx context.Context, orgID, id string) (*domain.Campaign, error)
}

// QuotaService reports the provider's current sending allowance.
type QuotaService interface {
	GetQuota(ctx context.Context) (*ses.Quota, error)
}

// Handlers holds the HTTP handlers and their collaborators.
type Handlers struct {
	dispatcher CampaignDispatcher
	campaigns  CampaignGetter
	templates  *templates.TemplateService
	quota      QuotaService
	startedAt  time.Time
}

// NewHandlers wires the API handlers. quota may be nil when the SDK
// client is not configured; the quota endpoint then reports unavailable.
func NewHandlers(d CampaignDispatcher, campaigns CampaignGetter, ts *templates.TemplateService, quota QuotaService) *Handlers {
	return &Handlers{
		dispatcher: d,
		campaigns:  campaigns,
		templates:  ts,
		quota:      quota,
		startedAt:  time.Now(),
	}
}

// HealthCheck reports process liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
	})
}

type sendRequest struct {
	Subject       string   `json:"subject"`
	HTMLContent   string   `json:"html_content"`
	TextContent   string   `json:"text_content"`
	FromEmail     string   `json:"from_email"`
	FromName      string   `json:"from_name"`
	SubscriberIDs []string `json:"subscriber_ids"`
}

type sendResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Results *dispatch.Result `json:"results"`
}

// SendCampaign triggers a synchronous dispatch of one campaign. The
// response carries the full per-recipient accounting; partial failures
// are a 200 with failure details, not an error status.
func (h *Handlers) SendCampaign(w http.ResponseWriter, r *http.Request) {
	orgID := OrgID(r.Context())
	campaignID := chi.URLParam(r, "id")

	var req sendRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	if _, err := h.campaigns.Get(r.Context(), orgID, campaignID); err != nil {
		if errors.Is(err, postgres.ErrCampaignNotFound) {
			httputil.NotFound(w, "campaign not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}

	// Syntax problems in the content are worth knowing about but never
	// block a send.
	if h.templates != nil {
		for _, warning := range h.templates.Validate(req.Subject, req.HTMLContent, req.TextContent) {
			logger.Warn("campaign content warning", "campaign_id", campaignID, "warning", warning)
		}
	}

	job := dispatch.Job{
		CampaignID:    campaignID,
		OrgID:         orgID,
		Subject:       req.Subject,
		HTMLContent:   req.HTMLContent,
		TextContent:   req.TextContent,
		FromEmail:     req.FromEmail,
		FromName:      req.FromName,
		SubscriberIDs: req.SubscriberIDs,
	}

	res, err := h.dispatcher.Dispatch(r.Context(), job)
	switch {
	case errors.Is(err, dispatch.ErrMissingField):
		httputil.BadRequest(w, err.Error())
		return
	case errors.Is(err, dispatch.ErrNoRecipients):
		httputil.BadRequest(w, "no recipients to send to")
		return
	case errors.Is(err, dispatch.ErrDispatchInProgress):
		httputil.Conflict(w, "campaign dispatch already in progress")
		return
	case err != nil:
		httputil.InternalError(w, err)
		return
	}

	httputil.OK(w, sendResponse{
		Success: true,
		Message: fmt.Sprintf("campaign dispatched to %d recipients (%d sent, %d failed)", res.Total, res.Sent, res.Failed),
		Results: res,
	})
}

type previewRequest struct {
	Subject     string `json:"subject"`
	HTMLContent string `json:"html_content"`
	TextContent string `json:"text_content"`
	Recipient   struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"recipient"`
}

// PreviewTemplate renders campaign content against a sample recipient.
func (h *Handlers) PreviewTemplate(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Subject == "" && req.HTMLContent == "" {
		httputil.BadRequest(w, "subject or html_content is required")
		return
	}

	sample := domain.Recipient{Email: req.Recipient.Email, Name: req.Recipient.Name}
	if sample.Email == "" {
		sample.Email = "preview@example.com"
	}

	httputil.OK(w, h.templates.Preview(req.Subject, req.HTMLContent, req.TextContent, sample))
}

// GetQuota reports the SES account's sending allowance.
func (h *Handlers) GetQuota(w http.ResponseWriter, r *http.Request) {
	if h.quota == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "quota monitor not configured")
		return
	}
	q, err := h.quota.GetQuota(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, q)
}
