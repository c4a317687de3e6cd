package testutil

import (
	"net/url"
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

// sensitiveKey matches query, form and JSON keys carrying customer data or
// session material on the storefront and its payment providers.
var sensitiveKey = regexp.MustCompile(`(?i)^(` + strings.Join([]string{
	`.*password.*`,
	`.*token.*`,
	`.*secret.*`,
	`.*session.*`,
	`phpsessid`,
	`form_key`,
	`client_secret`,
	`api_?key`,
	`email`,
	`username`,
	`telephone`,
	`phone`,
	`firstname`,
	`lastname`,
	`street(\[\d+\])?`,
	`postcode`,
	`card(_?number)?`,
	`cvc`,
	`iban`,
}, "|") + `)$`)

// sensitiveHeaders are always redacted.
var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"x-magento-vary":      true,
	"x-csrf-token":        true,
	"x-api-key":           true,
	"stripe-account":      true,
	"proxy-authorization": true,
}

// inlineSecrets are values redacted wherever they appear in a body, such
// as publishable keys rendered into the checkout page.
var inlineSecrets = []*regexp.Regexp{
	regexp.MustCompile(`\b(pk|sk|rk)_(live|test)_[A-Za-z0-9]{10,}\b`),
	regexp.MustCompile(`\bcs_(live|test)_[A-Za-z0-9]{10,}\b`),
	regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
}

// jsonField captures "key": value pairs, string or scalar.
var jsonField = regexp.MustCompile(`"([^"]+)"\s*:\s*("(?:[^"\\]|\\.)*"|[^",}\]\s]+)`)

// SanitizeHAR returns a copy of har with customer data and secrets
// replaced by [REDACTED]. The input is not modified.
func SanitizeHAR(har *HARLog) *HARLog {
	out := &HARLog{Entries: make([]HAREntry, len(har.Entries))}
	for i, e := range har.Entries {
		out.Entries[i] = HAREntry{
			Request: HARRequest{
				Method:  e.Request.Method,
				URL:     SanitizeURL(e.Request.URL),
				Headers: sanitizeHeaders(e.Request.Headers),
				Body:    SanitizeBody(e.Request.Body),
			},
			Response: HARResponse{
				Status:  e.Response.Status,
				Headers: sanitizeHeaders(e.Response.Headers),
				Content: HARContent{
					MimeType: e.Response.Content.MimeType,
					Text:     SanitizeBody(e.Response.Content.Text),
					Encoding: e.Response.Content.Encoding,
					Size:     e.Response.Content.Size,
				},
			},
		}
	}
	return out
}

// SanitizeURL redacts sensitive query parameters.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}

	q := u.Query()
	for key := range q {
		if sensitiveKey.MatchString(key) {
			q.Set(key, redacted)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func sanitizeHeaders(headers []HARHeader) []HARHeader {
	if headers == nil {
		return nil
	}
	out := make([]HARHeader, len(headers))
	for i, h := range headers {
		out[i] = h
		if sensitiveHeaders[strings.ToLower(h.Name)] || sensitiveKey.MatchString(h.Name) {
			out[i].Value = redacted
		}
	}
	return out
}

// SanitizeBody redacts form-encoded and JSON fields by key, then inline
// secrets anywhere in the text. Base64 bodies are returned unchanged by
// the inline pass since they never match.
func SanitizeBody(body string) string {
	if body == "" {
		return body
	}

	trimmed := strings.TrimSpace(body)
	switch {
	case strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "["):
		body = sanitizeJSON(body)
	case strings.Contains(body, "=") && !strings.Contains(body, "<"):
		body = sanitizeForm(body)
	}

	for _, re := range inlineSecrets {
		body = re.ReplaceAllString(body, redacted)
	}
	return body
}

func sanitizeForm(body string) string {
	values, err := url.ParseQuery(body)
	if err != nil {
		return body
	}
	for key := range values {
		if sensitiveKey.MatchString(key) {
			values.Set(key, redacted)
		}
	}
	return values.Encode()
}

func sanitizeJSON(body string) string {
	return jsonField.ReplaceAllStringFunc(body, func(m string) string {
		parts := jsonField.FindStringSubmatch(m)
		if !sensitiveKey.MatchString(parts[1]) {
			return m
		}
		return `"` + parts[1] + `": "` + redacted + `"`
	})
}

// SanitizeHTML redacts inline secrets and the values of sensitive inputs
// in a captured page.
func SanitizeHTML(html string) string {
	html = inputValue.ReplaceAllStringFunc(html, func(m string) string {
		parts := inputValue.FindStringSubmatch(m)
		if !sensitiveKey.MatchString(parts[2]) {
			return m
		}
		return parts[1] + `value="` + redacted + `"`
	})
	for _, re := range inlineSecrets {
		html = re.ReplaceAllString(html, redacted)
	}
	return html
}

// inputValue matches an input tag up to its value attribute, capturing the
// name attribute when it precedes the value.
var inputValue = regexp.MustCompile(`(<input[^>]*\bname="([^"]+)"[^>]*?)value="[^"]*"`)
