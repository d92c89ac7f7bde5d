package core

import "strings"

const RedactedValue = "[REDACTED]"

// RedactingSanitizer scrubs credential-shaped keys from outbound payloads and
// audit metadata. Identifier keys used for tracing are always kept.
type RedactingSanitizer struct{}

func (RedactingSanitizer) SanitizeObject(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	return redactMap(in)
}

func redactMap(source map[string]any) map[string]any {
	target := make(map[string]any, len(source))
	for key, value := range source {
		if shouldRedactKey(key) {
			target[key] = RedactedValue
			continue
		}
		target[key] = redactValue(value)
	}
	return target
}

func redactValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return redactMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i := range typed {
			out[i] = redactValue(typed[i])
		}
		return out
	default:
		return value
	}
}

func shouldRedactKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" || isIdentifierKey(key) {
		return false
	}
	sensitiveTokens := []string{
		"password",
		"secret",
		"token",
		"authorization",
		"api_key",
		"apikey",
		"access_key",
		"refresh",
		"credential",
		"signature",
	}
	for _, token := range sensitiveTokens {
		if strings.Contains(key, token) {
			return true
		}
	}
	return false
}

func isIdentifierKey(key string) bool {
	switch key {
	case "integration_id",
		"connection_id",
		"user_id",
		"endpoint_id",
		"webhook_id",
		"external_account_id",
		"idempotency_key",
		"trace_id",
		"request_id":
		return true
	default:
		return false
	}
}

var _ Sanitizer = RedactingSanitizer{}
