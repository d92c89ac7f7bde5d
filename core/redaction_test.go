package core

import "testing"

func TestRedactingSanitizer_ScrubsCredentialKeys(t *testing.T) {
	sanitizer := RedactingSanitizer{}

	out := sanitizer.SanitizeObject(map[string]any{
		"connection_id": "conn_1",
		"access_token":  "secret-value",
		"nested": map[string]any{
			"client_secret": "abc",
			"calendar_id":   "primary",
		},
		"attendees": []any{
			map[string]any{"email": "user@example.com", "api_key": "k"},
		},
	})

	if out["connection_id"] != "conn_1" {
		t.Fatalf("expected identifier keys to survive, got %v", out["connection_id"])
	}
	if out["access_token"] != RedactedValue {
		t.Fatalf("expected access_token redacted, got %v", out["access_token"])
	}
	nested := out["nested"].(map[string]any)
	if nested["client_secret"] != RedactedValue {
		t.Fatalf("expected nested secret redacted, got %v", nested["client_secret"])
	}
	if nested["calendar_id"] != "primary" {
		t.Fatalf("expected non-sensitive nested value kept, got %v", nested["calendar_id"])
	}
	attendee := out["attendees"].([]any)[0].(map[string]any)
	if attendee["api_key"] != RedactedValue {
		t.Fatalf("expected list element key redacted, got %v", attendee["api_key"])
	}
	if attendee["email"] != "user@example.com" {
		t.Fatalf("expected list element value kept, got %v", attendee["email"])
	}
}

func TestRedactingSanitizer_EmptyInput(t *testing.T) {
	out := RedactingSanitizer{}.SanitizeObject(nil)
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty map, got %v", out)
	}
}
