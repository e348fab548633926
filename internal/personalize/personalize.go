// Package personalize substitutes per-recipient tokens into campaign
// content before sending.
//
// Token syntax is double braces, case-insensitive: {{name}}, {{email}},
// and the localized alias {{nombre}} for name. Unknown tokens pass through
// unchanged — a template author may intend a literal {{...}} sequence that
// has nothing to do with personalization. Rendering is pure and idempotent:
// tokens are consumed, never re-emitted.
package personalize

import (
	"regexp"
	"strings"

	"github.com/ignite/mail-dispatch/internal/domain"
)

// FallbackGreeting replaces a missing recipient name so templates never
// render artifacts like "Hola ," or "Hola null".
const FallbackGreeting = "amigo"

// tokenPattern matches only the recognized token set; everything else in
// double braces is left alone. Surrounding whitespace inside the braces is
// tolerated ("{{ name }}" renders the same as "{{name}}").
var tokenPattern = regexp.MustCompile(`(?i)\{\{\s*(name|nombre|email)\s*\}\}`)

// Render substitutes the recipient's values into template. An empty or
// whitespace-only name falls back to FallbackGreeting.
func Render(template string, r domain.Recipient) string {
	if template == "" || !strings.Contains(template, "{{") {
		return template
	}

	name := strings.TrimSpace(r.Name)
	if name == "" {
		name = FallbackGreeting
	}

	return tokenPattern.ReplaceAllStringFunc(template, func(tok string) string {
		inner := strings.ToLower(strings.Trim(tok, "{} \t"))
		switch inner {
		case "name", "nombre":
			return name
		case "email":
			return r.Email
		}
		return tok
	})
}

// Message renders subject, HTML, and text content for one recipient of a
// campaign, producing the fully-resolved message the transport sends.
func Message(campaignID, subject, htmlContent, textContent, fromEmail, fromName string, r domain.Recipient) domain.EmailMessage {
	return domain.EmailMessage{
		CampaignID:   campaignID,
		SubscriberID: r.ID,
		Email:        r.Email,
		FromName:     fromName,
		FromEmail:    fromEmail,
		Subject:      Render(subject, r),
		HTMLContent:  Render(htmlContent, r),
		TextContent:  Render(textContent, r),
	}
}
