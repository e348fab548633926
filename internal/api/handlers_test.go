package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/mail-dispatch/internal/dispatch"
	"github.com/ignite/mail-dispatch/internal/domain"
	"github.com/ignite/mail-dispatch/internal/repository/postgres"
	"github.com/ignite/mail-dispatch/internal/ses"
	"github.com/ignite/mail-dispatch/internal/templates"
)

type stubDispatcher struct {
	result  *dispatch.Result
	err     error
	lastJob dispatch.Job
	calls   int
}

func (s *stubDispatcher) Dispatch(_ context.Context, job dispatch.Job) (*dispatch.Result, error) {
	s.calls++
	s.lastJob = job
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubCampaigns struct {
	known map[string]bool
}

func (s *stubCampaigns) Get(_ context.Context, orgID, id string) (*domain.Campaign, error) {
	if !s.known[id] {
		return nil, postgres.ErrCampaignNotFound
	}
	return &domain.Campaign{ID: id, OrganizationID: orgID}, nil
}

type stubQuota struct {
	quota *ses.Quota
	err   error
}

func (s *stubQuota) GetQuota(context.Context) (*ses.Quota, error) { return s.quota, s.err }

func newTestServer(d *stubDispatcher, q QuotaService) *httptest.Server {
	h := NewHandlers(d, &stubCampaigns{known: map[string]bool{"c1": true}}, templates.NewTemplateService(), q)
	return httptest.NewServer(SetupRoutes(h))
}

func postJSON(t *testing.T, url string, body interface{}, headers map[string]string) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(b))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

var orgHeader = map[string]string{"X-Organization-ID": "org1"}

func validSendBody() map[string]interface{} {
	return map[string]interface{}{
		"subject":      "Hi {{name}}",
		"html_content": "<p>Hello</p>",
		"from_email":   "news@acme.io",
		"from_name":    "Acme",
	}
}

func TestSendCampaign(t *testing.T) {
	d := &stubDispatcher{result: &dispatch.Result{Total: 2, Sent: 1, Failed: 1,
		Errors: []dispatch.SendError{{Email: "b@example.com", Message: "rejected"}}}}
	srv := newTestServer(d, nil)
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/campaigns/c1/send", validSendBody(), orgHeader)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out sendResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Success)
	assert.Equal(t, 2, out.Results.Total)
	assert.Equal(t, 1, out.Results.Sent)
	assert.Equal(t, 1, out.Results.Failed)
	require.Len(t, out.Results.Errors, 1)
	assert.Equal(t, "b@example.com", out.Results.Errors[0].Email)

	assert.Equal(t, "c1", d.lastJob.CampaignID)
	assert.Equal(t, "org1", d.lastJob.OrgID)
	assert.Equal(t, "Hi {{name}}", d.lastJob.Subject)
}

func TestSendCampaignRequiresOrgContext(t *testing.T) {
	d := &stubDispatcher{result: &dispatch.Result{}}
	srv := newTestServer(d, nil)
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/campaigns/c1/send", validSendBody(), nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, d.calls)
}

func TestSendCampaignUnknownCampaign(t *testing.T) {
	d := &stubDispatcher{result: &dispatch.Result{}}
	srv := newTestServer(d, nil)
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/campaigns/missing/send", validSendBody(), orgHeader)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, 0, d.calls)
}

func TestSendCampaignErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", dispatch.ErrMissingField, http.StatusBadRequest},
		{"no recipients", dispatch.ErrNoRecipients, http.StatusBadRequest},
		{"already dispatching", dispatch.ErrDispatchInProgress, http.StatusConflict},
		{"store failure", errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&stubDispatcher{err: tt.err}, nil)
			defer srv.Close()

			resp := postJSON(t, srv.URL+"/api/campaigns/c1/send", validSendBody(), orgHeader)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestSendCampaignBadJSON(t *testing.T) {
	srv := newTestServer(&stubDispatcher{}, nil)
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/campaigns/c1/send", bytes.NewReader([]byte("{not json")))
	req.Header.Set("X-Organization-ID", "org1")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPreviewTemplate(t *testing.T) {
	srv := newTestServer(&stubDispatcher{}, nil)
	defer srv.Close()

	body := map[string]interface{}{
		"subject":      "Hi {{ name | default: \"Friend\" }}",
		"html_content": "<p>{{ email }}</p>",
		"recipient":    map[string]string{"email": "sara@example.com", "name": "Sara"},
	}
	resp := postJSON(t, srv.URL+"/api/templates/preview", body, orgHeader)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out templates.PreviewResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "Hi Sara", out.Subject)
	assert.Equal(t, "<p>sara@example.com</p>", out.HTML)
}

func TestPreviewTemplateRequiresContent(t *testing.T) {
	srv := newTestServer(&stubDispatcher{}, nil)
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/templates/preview", map[string]interface{}{}, orgHeader)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetQuota(t *testing.T) {
	q := &stubQuota{quota: &ses.Quota{Max24HourSend: 50000, SentLast24Hours: 100, MaxSendRate: 14, SendingEnabled: true}}
	srv := newTestServer(&stubDispatcher{}, q)
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/mail/quota", nil)
	req.Header.Set("X-Organization-ID", "org1")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out ses.Quota
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, float64(50000), out.Max24HourSend)
	assert.True(t, out.SendingEnabled)
}

func TestGetQuotaUnconfigured(t *testing.T) {
	srv := newTestServer(&stubDispatcher{}, nil)
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/mail/quota", nil)
	req.Header.Set("X-Organization-ID", "org1")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(&stubDispatcher{}, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
