package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	IntegrationErrorInvalidDefinition   = "INTEGRATIONS_INVALID_DEFINITION"
	IntegrationErrorDuplicateDefinition = "INTEGRATIONS_DUPLICATE_DEFINITION"
	IntegrationErrorIntegrationNotFound = "INTEGRATIONS_NOT_FOUND"
	IntegrationErrorIntegrationDisabled = "INTEGRATIONS_DISABLED"
	IntegrationErrorAdapterNotFound     = "INTEGRATIONS_ADAPTER_NOT_FOUND"
	IntegrationErrorConnectionNotFound  = "INTEGRATIONS_CONNECTION_NOT_FOUND"
	IntegrationErrorOAuthStateInvalid   = "INTEGRATIONS_OAUTH_STATE_INVALID"
	IntegrationErrorUserMismatch        = "INTEGRATIONS_USER_MISMATCH"
	IntegrationErrorAuthExchangeFailed  = "INTEGRATIONS_AUTH_EXCHANGE_FAILED"
	IntegrationErrorNoRefreshToken      = "INTEGRATIONS_NO_REFRESH_TOKEN"
	IntegrationErrorRefreshFailed       = "INTEGRATIONS_REFRESH_FAILED"
	IntegrationErrorMissingScopes       = "INTEGRATIONS_MISSING_SCOPES"
	IntegrationErrorRateLimited         = "INTEGRATIONS_RATE_LIMITED"
	IntegrationErrorNotConnected        = "INTEGRATIONS_NOT_CONNECTED"
	IntegrationErrorEndpointNotFound    = "INTEGRATIONS_ENDPOINT_NOT_FOUND"
	IntegrationErrorWebhookNotFound     = "INTEGRATIONS_WEBHOOK_NOT_FOUND"
	IntegrationErrorEventNotConfigured  = "INTEGRATIONS_EVENT_NOT_CONFIGURED"
	IntegrationErrorInvalidTransition   = "INTEGRATIONS_INVALID_TRANSITION"
	IntegrationErrorBadInput            = "INTEGRATIONS_BAD_INPUT"
	IntegrationErrorInternal            = "INTEGRATIONS_INTERNAL_ERROR"
)

var sentinelTaxonomy = []struct {
	sentinel error
	category goerrors.Category
	textCode string
}{
	{ErrInvalidIntegration, goerrors.CategoryValidation, IntegrationErrorInvalidDefinition},
	{ErrDuplicateIntegration, goerrors.CategoryConflict, IntegrationErrorDuplicateDefinition},
	{ErrIntegrationNotFound, goerrors.CategoryNotFound, IntegrationErrorIntegrationNotFound},
	{ErrIntegrationDisabled, goerrors.CategoryOperation, IntegrationErrorIntegrationDisabled},
	{ErrAdapterNotFound, goerrors.CategoryNotFound, IntegrationErrorAdapterNotFound},
	{ErrConnectionNotFound, goerrors.CategoryNotFound, IntegrationErrorConnectionNotFound},
	{ErrInvalidOrExpiredState, goerrors.CategoryAuth, IntegrationErrorOAuthStateInvalid},
	{ErrUserMismatch, goerrors.CategoryAuthz, IntegrationErrorUserMismatch},
	{ErrAuthExchangeFailed, goerrors.CategoryAuth, IntegrationErrorAuthExchangeFailed},
	{ErrNoRefreshToken, goerrors.CategoryOperation, IntegrationErrorNoRefreshToken},
	{ErrRefreshFailed, goerrors.CategoryAuth, IntegrationErrorRefreshFailed},
	{ErrMissingScopes, goerrors.CategoryAuthz, IntegrationErrorMissingScopes},
	{ErrRateLimitExceeded, goerrors.CategoryRateLimit, IntegrationErrorRateLimited},
	{ErrNotConnected, goerrors.CategoryOperation, IntegrationErrorNotConnected},
	{ErrEndpointNotFound, goerrors.CategoryNotFound, IntegrationErrorEndpointNotFound},
	{ErrWebhookNotFound, goerrors.CategoryNotFound, IntegrationErrorWebhookNotFound},
	{ErrEventNotConfigured, goerrors.CategoryOperation, IntegrationErrorEventNotConfigured},
	{ErrInvalidConnectionStatusTransition, goerrors.CategoryConflict, IntegrationErrorInvalidTransition},
}

// IntegrationErrorMapper wraps a raw error in the taxonomy envelope. Already
// enveloped errors pass through with defaults filled in.
func IntegrationErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureIntegrationErrorEnvelope(richErr)
	}

	for _, entry := range sentinelTaxonomy {
		if errors.Is(err, entry.sentinel) {
			return ensureIntegrationErrorEnvelope(
				goerrors.Wrap(err, entry.category, err.Error()).
					WithTextCode(entry.textCode),
			)
		}
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "throttl"), strings.Contains(msg, "rate limit"):
		return newIntegrationError(err.Error(), goerrors.CategoryRateLimit, IntegrationErrorRateLimited)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "mismatch"):
		return newIntegrationError(err.Error(), goerrors.CategoryBadInput, IntegrationErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureIntegrationErrorEnvelope(mapped)
}

func newIntegrationError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureIntegrationErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureIntegrationErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = integrationHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultIntegrationTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultIntegrationTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return IntegrationErrorBadInput
	case goerrors.CategoryNotFound:
		return IntegrationErrorIntegrationNotFound
	case goerrors.CategoryAuth:
		return IntegrationErrorAuthExchangeFailed
	case goerrors.CategoryAuthz:
		return IntegrationErrorMissingScopes
	case goerrors.CategoryConflict:
		return IntegrationErrorDuplicateDefinition
	case goerrors.CategoryRateLimit:
		return IntegrationErrorRateLimited
	case goerrors.CategoryOperation:
		return IntegrationErrorNotConnected
	default:
		return IntegrationErrorInternal
	}
}

func integrationHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
