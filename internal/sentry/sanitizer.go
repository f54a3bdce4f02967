package sentry

import (
	"regexp"
	"strings"

	"github.com/getsentry/sentry-go"
)

// Event text may quote command lines and paths from the history store.
var sensitivePatterns = struct {
	HomeDir *regexp.Regexp
	Email   *regexp.Regexp
	Secret  *regexp.Regexp
	Quoted  *regexp.Regexp
}{
	HomeDir: regexp.MustCompile(`(/home/|/Users/|[A-Za-z]:\\Users\\)[^/\\\s]+`),
	Email:   regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
	Secret:  regexp.MustCompile(`(?i)(token|secret|password|passwd|key|bearer)([:=]\s*|\s+)\S+`),
	Quoted:  regexp.MustCompile(`"[^"]*"`),
}

// sensitiveFields are extra/breadcrumb keys dropped outright
var sensitiveFields = []string{
	"command", "cmd", "query", "cwd", "dir", "path", "host", "session", "more_info",
}

func (c *Client) sanitizeValue(value string) string {
	if value == "" {
		return value
	}

	value = sensitivePatterns.Quoted.ReplaceAllString(value, `"[REDACTED]"`)
	value = sensitivePatterns.HomeDir.ReplaceAllString(value, "${1}[USER]")
	value = sensitivePatterns.Email.ReplaceAllString(value, "[EMAIL_REDACTED]")
	value = sensitivePatterns.Secret.ReplaceAllString(value, "${1}${2}[REDACTED]")
	return value
}

func isSensitiveField(key string) bool {
	key = strings.ToLower(key)
	for _, field := range sensitiveFields {
		if strings.Contains(key, field) {
			return true
		}
	}
	return false
}

func (c *Client) sanitizeMap(data map[string]interface{}) map[string]interface{} {
	if data == nil {
		return nil
	}

	sanitized := make(map[string]interface{}, len(data))
	for key, value := range data {
		if isSensitiveField(key) {
			sanitized[key] = "[REDACTED]"
		} else if strValue, ok := value.(string); ok {
			sanitized[key] = c.sanitizeValue(strValue)
		} else {
			sanitized[key] = value
		}
	}
	return sanitized
}

func (c *Client) sanitizeEvent(event *sentry.Event) *sentry.Event {
	if event == nil {
		return event
	}

	event.Message = c.sanitizeValue(event.Message)
	for i := range event.Exception {
		event.Exception[i].Value = c.sanitizeValue(event.Exception[i].Value)
	}
	for key, value := range event.Tags {
		event.Tags[key] = c.sanitizeValue(value)
	}
	event.Extra = c.sanitizeMap(event.Extra)

	// Hostnames and user names identify the machine.
	event.ServerName = ""
	event.User = sentry.User{}

	return event
}

func (c *Client) sanitizeBreadcrumb(breadcrumb *sentry.Breadcrumb) *sentry.Breadcrumb {
	if breadcrumb == nil {
		return breadcrumb
	}

	breadcrumb.Message = c.sanitizeValue(breadcrumb.Message)
	breadcrumb.Data = c.sanitizeMap(breadcrumb.Data)
	return breadcrumb
}
