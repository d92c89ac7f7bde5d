package core

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestIntegrationErrorMapper_AssignsStableCodes(t *testing.T) {
	mapped := IntegrationErrorMapper(fmt.Errorf("%w: forged", ErrInvalidOrExpiredState))
	if mapped.TextCode != IntegrationErrorOAuthStateInvalid {
		t.Fatalf("expected oauth state text code, got %q", mapped.TextCode)
	}
	if mapped.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", mapped.Code)
	}

	mapped = IntegrationErrorMapper(fmt.Errorf("%w: other account", ErrUserMismatch))
	if mapped.Category != goerrors.CategoryAuthz {
		t.Fatalf("expected authz category, got %q", mapped.Category)
	}
	if mapped.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", mapped.Code)
	}

	mapped = IntegrationErrorMapper(fmt.Errorf("%w: calendar.write", ErrMissingScopes))
	if mapped.TextCode != IntegrationErrorMissingScopes {
		t.Fatalf("expected missing scopes code, got %q", mapped.TextCode)
	}

	mapped = IntegrationErrorMapper(fmt.Errorf("%w: list_events", ErrRateLimitExceeded))
	if mapped.Category != goerrors.CategoryRateLimit || mapped.Code != http.StatusTooManyRequests {
		t.Fatalf("expected rate limit envelope, got %q %d", mapped.Category, mapped.Code)
	}
}

func TestIntegrationErrorMapper_SentinelChainSurvives(t *testing.T) {
	mapped := IntegrationErrorMapper(fmt.Errorf("%w: conn_1", ErrNoRefreshToken))
	if !stderrors.Is(mapped, ErrNoRefreshToken) {
		t.Fatalf("expected wrapped sentinel to remain matchable")
	}
}

func TestIntegrationErrorMapper_PassthroughKeepsDefaults(t *testing.T) {
	original := goerrors.New("custom failure", goerrors.CategoryConflict)
	mapped := IntegrationErrorMapper(original)
	if mapped.Code != http.StatusConflict {
		t.Fatalf("expected conflict status filled in, got %d", mapped.Code)
	}
	if mapped.TextCode != IntegrationErrorDuplicateDefinition {
		t.Fatalf("expected default conflict text code, got %q", mapped.TextCode)
	}
}

func TestIntegrationErrorMapper_MessagePatterns(t *testing.T) {
	mapped := IntegrationErrorMapper(stderrors.New("request was throttled upstream"))
	if mapped.TextCode != IntegrationErrorRateLimited {
		t.Fatalf("expected rate limit pattern match, got %q", mapped.TextCode)
	}

	mapped = IntegrationErrorMapper(stderrors.New("core: user id is required"))
	if mapped.TextCode != IntegrationErrorBadInput {
		t.Fatalf("expected bad input pattern match, got %q", mapped.TextCode)
	}
}
