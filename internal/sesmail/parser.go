package sesmail

import "strings"

// ResponseParser extracts the interesting parts of an SES response body.
// SES answers with small XML documents; rather than bind the transport
// to a strict schema we pull out the first occurrence of the tag we
// care about and tolerate everything else.
type ResponseParser interface {
	// ParseMessageID returns the provider message id from a success
	// body, or "" if none is present.
	ParseMessageID(body []byte) string

	// ParseError returns a human-readable error string from a failure
	// body. Falls back to a trimmed snippet of the raw body when no
	// recognizable error tag is present.
	ParseError(body []byte) string
}

// XMLParser reads SES's SendEmailResponse / ErrorResponse documents.
type XMLParser struct{}

func (XMLParser) ParseMessageID(body []byte) string {
	return firstTag(string(body), "MessageId")
}

func (XMLParser) ParseError(body []byte) string {
	s := string(body)
	msg := firstTag(s, "Message")
	code := firstTag(s, "Code")
	switch {
	case code != "" && msg != "":
		return code + ": " + msg
	case msg != "":
		return msg
	case code != "":
		return code
	}
	s = strings.TrimSpace(s)
	if len(s) > 200 {
		s = s[:200]
	}
	if s == "" {
		return "unrecognized provider response"
	}
	return s
}

// firstTag returns the text content of the first <tag>...</tag> pair.
// Exact-name match only: searching for "Message" will not match
// "<MessageId>".
func firstTag(s, tag string) string {
	open := "<" + tag + ">"
	close := "</" + tag + ">"
	i := strings.Index(s, open)
	if i < 0 {
		return ""
	}
	rest := s[i+len(open):]
	j := strings.Index(rest, close)
	if j < 0 {
		return ""
	}
	return strings.TrimSpace(rest[:j])
}
