// Package templates provides Liquid-based campaign content preview and
// validation.
//
// The dispatch path does its own token substitution; this service
// exists for authors: it renders subject and body against a sample
// recipient before a campaign is sent, and reports syntax problems as
// warnings rather than blocking anything.
package templates

import (
	"fmt"
	"html"
	"net/url"
	"strings"
	"sync"

	"github.com/osteele/liquid"

	"github.com/ignite/mail-dispatch/internal/domain"
	"github.com/ignite/mail-dispatch/internal/pkg/logger"
)

// TemplateService handles Liquid template rendering with caching.
type TemplateService struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// PreviewResult carries the rendered parts plus any syntax warnings.
type PreviewResult struct {
	Subject  string   `json:"subject"`
	HTML     string   `json:"html"`
	Text     string   `json:"text,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// NewTemplateService creates a template service with the email filters
// registered.
func NewTemplateService() *TemplateService {
	ts := &TemplateService{engine: liquid.NewEngine()}
	ts.registerFilters()
	return ts
}

func (ts *TemplateService) registerFilters() {
	// {{ first_name | default: "Friend" }}
	ts.engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		strVal := fmt.Sprintf("%v", value)
		if strVal == "" || strVal == "<nil>" {
			return defaultVal
		}
		return value
	})

	// {{ name | capitalize }}
	ts.engine.RegisterFilter("capitalize", func(s string) string {
		if len(s) == 0 {
			return s
		}
		return strings.ToUpper(string(s[0])) + strings.ToLower(s[1:])
	})

	// {{ email | urlencode }}
	ts.engine.RegisterFilter("urlencode", func(s string) string {
		return url.QueryEscape(s)
	})

	// {{ user_input | escape }}
	ts.engine.RegisterFilter("escape", func(s string) string {
		return html.EscapeString(s)
	})

	// {{ email | email_domain }}
	ts.engine.RegisterFilter("email_domain", func(email string) string {
		parts := strings.Split(email, "@")
		if len(parts) == 2 {
			return parts[1]
		}
		return ""
	})

	// {{ email | mask_email }}
	ts.engine.RegisterFilter("mask_email", func(email string) string {
		return logger.RedactEmail(email)
	})
}

// Parse compiles a template string and returns any syntax errors.
func (ts *TemplateService) Parse(templateStr string) error {
	_, err := ts.engine.ParseString(templateStr)
	return err
}

// Render processes a template with the given context. A cacheKey reuses
// the compiled template across renders; pass "" to skip caching. On any
// parse or render error the original template text is returned along
// with the error.
func (ts *TemplateService) Render(cacheKey, templateStr string, ctx map[string]interface{}) (string, error) {
	if cacheKey != "" {
		if cached, ok := ts.cache.Load(cacheKey); ok {
			return cached.(*liquid.Template).RenderString(ctx)
		}
	}

	tpl, err := ts.engine.ParseString(templateStr)
	if err != nil {
		return templateStr, err
	}
	if cacheKey != "" {
		ts.cache.Store(cacheKey, tpl)
	}

	out, err := tpl.RenderString(ctx)
	if err != nil {
		return templateStr, err
	}
	return out, nil
}

// Preview renders subject, HTML, and text against a sample recipient.
// Syntax problems become warnings and the offending part falls back to
// its raw text; a preview never fails outright.
func (ts *TemplateService) Preview(subject, htmlContent, textContent string, r domain.Recipient) *PreviewResult {
	ctx := RecipientContext(r)
	res := &PreviewResult{}

	render := func(part, s string) string {
		out, err := ts.Render("", s, ctx)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %v", part, err))
			return s
		}
		return out
	}

	res.Subject = render("subject", subject)
	res.HTML = render("html", htmlContent)
	if textContent != "" {
		res.Text = render("text", textContent)
	}
	return res
}

// Validate reports syntax problems in campaign content. Used ahead of
// dispatch as a lenient check: findings are logged, never blocking.
func (ts *TemplateService) Validate(subject, htmlContent, textContent string) []string {
	var warnings []string
	for part, s := range map[string]string{"subject": subject, "html": htmlContent, "text": textContent} {
		if s == "" {
			continue
		}
		if err := ts.Parse(s); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", part, err))
		}
	}
	return warnings
}

// RecipientContext builds the Liquid variable set for one recipient.
func RecipientContext(r domain.Recipient) map[string]interface{} {
	return map[string]interface{}{
		"name":       r.Name,
		"first_name": r.Name,
		"email":      r.Email,
	}
}
