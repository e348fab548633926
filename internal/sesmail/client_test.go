package sesmail

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ignite/mail-dispatch/internal/domain"
	"github.com/ignite/mail-dispatch/internal/sigv4"
)

func testCreds(t *testing.T) sigv4.Credentials {
	t.Helper()
	creds, err := sigv4.NewCredentials("AKIDTEST", "testsecretkey", "us-east-1", "ses")
	if err != nil {
		t.Fatalf("NewCredentials: %v", err)
	}
	return creds
}

func testMessage() domain.EmailMessage {
	return domain.EmailMessage{
		CampaignID:   "c1",
		SubscriberID: "s1",
		Email:        "sara@example.com",
		FromName:     "Acme News",
		FromEmail:    "news@acme.io",
		Subject:      "Hi Sara",
		HTMLContent:  "<p>Hello</p>",
		TextContent:  "Hello",
	}
}

func fixedClock() func() time.Time {
	ts := time.Date(2023, 8, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

func TestSendSuccess(t *testing.T) {
	var gotForm map[string]string
	var gotAuth, gotDate, gotContentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotDate = r.Header.Get("X-Amz-Date")
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		gotForm = map[string]string{}
		for k := range r.PostForm {
			gotForm[k] = r.PostForm.Get(k)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(successXML))
	}))
	defer srv.Close()

	c := NewClient(testCreds(t), WithEndpoint(srv.URL+"/"), WithClock(fixedClock()))
	res, err := c.Send(context.Background(), testMessage())
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !res.Success {
		t.Fatalf("Success = false, error %q", res.Error)
	}
	if res.MessageID != "0100018abc-1111-2222-3333-444455556666-000000" {
		t.Errorf("MessageID = %q", res.MessageID)
	}
	if res.SentAt.IsZero() {
		t.Error("SentAt is zero")
	}

	if gotContentType != "application/x-www-form-urlencoded" {
		t.Errorf("Content-Type = %q", gotContentType)
	}
	if gotDate != "20230801T120000Z" {
		t.Errorf("X-Amz-Date = %q", gotDate)
	}
	if !strings.HasPrefix(gotAuth, "AWS4-HMAC-SHA256 Credential=AKIDTEST/20230801/us-east-1/ses/aws4_request") {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if !strings.Contains(gotAuth, "SignedHeaders=") || !strings.Contains(gotAuth, "Signature=") {
		t.Errorf("Authorization missing parts: %q", gotAuth)
	}

	want := map[string]string{
		"Action":                           "SendEmail",
		"Version":                          "2010-12-01",
		"Source":                           "Acme News <news@acme.io>",
		"Destination.ToAddresses.member.1": "sara@example.com",
		"Message.Subject.Data":             "Hi Sara",
		"Message.Subject.Charset":          "UTF-8",
		"Message.Body.Html.Data":           "<p>Hello</p>",
		"Message.Body.Html.Charset":        "UTF-8",
		"Message.Body.Text.Data":           "Hello",
		"Message.Body.Text.Charset":        "UTF-8",
	}
	for k, v := range want {
		if gotForm[k] != v {
			t.Errorf("form[%q] = %q, want %q", k, gotForm[k], v)
		}
	}
}

func TestSendSourceWithoutDisplayName(t *testing.T) {
	var source string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		source = r.PostForm.Get("Source")
		w.Write([]byte(successXML))
	}))
	defer srv.Close()

	msg := testMessage()
	msg.FromName = ""
	c := NewClient(testCreds(t), WithEndpoint(srv.URL+"/"))
	if _, err := c.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if source != "news@acme.io" {
		t.Errorf("Source = %q", source)
	}
}

func TestSendOmitsEmptyTextBody(t *testing.T) {
	var hasText bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		_, hasText = r.PostForm["Message.Body.Text.Data"]
		w.Write([]byte(successXML))
	}))
	defer srv.Close()

	msg := testMessage()
	msg.TextContent = ""
	c := NewClient(testCreds(t), WithEndpoint(srv.URL+"/"))
	if _, err := c.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if hasText {
		t.Error("text body sent for empty TextContent")
	}
}

func TestSendProviderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(errorXML))
	}))
	defer srv.Close()

	c := NewClient(testCreds(t), WithEndpoint(srv.URL+"/"))
	res, err := c.Send(context.Background(), testMessage())
	if err != nil {
		t.Fatalf("rejection must not be an error, got %v", err)
	}
	if res.Success {
		t.Fatal("Success = true on 400")
	}
	if res.Error != "MessageRejected: Email address is not verified." {
		t.Errorf("Error = %q", res.Error)
	}
	if res.MessageID != "" {
		t.Errorf("MessageID = %q on failure", res.MessageID)
	}
}

func TestSendTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := NewClient(testCreds(t), WithEndpoint(srv.URL+"/"))
	res, err := c.Send(context.Background(), testMessage())
	if err == nil {
		t.Fatal("expected transport error")
	}
	if res != nil {
		t.Errorf("result = %+v, want nil on transport error", res)
	}
	// Error strings must not leak the raw recipient address.
	if strings.Contains(err.Error(), "sara@example.com") {
		t.Errorf("error leaks recipient email: %v", err)
	}
}

func TestSendContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server notices the client disconnect
		// and cancels the request context; otherwise Close deadlocks.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := NewClient(testCreds(t), WithEndpoint(srv.URL+"/"))
	if _, err := c.Send(ctx, testMessage()); err == nil {
		t.Fatal("expected context deadline error")
	}
}

func TestDefaultEndpoint(t *testing.T) {
	c := NewClient(testCreds(t))
	if c.endpoint != "https://email.us-east-1.amazonaws.com/" {
		t.Errorf("endpoint = %q", c.endpoint)
	}
}
