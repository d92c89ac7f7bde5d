package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	defaultRefreshMaxAttempts    = 3
	defaultRefreshInitialBackoff = 500 * time.Millisecond
	defaultRefreshMaxBackoff     = 10 * time.Second
)

// RefreshBackoffScheduler spaces out retry attempts for transient refresh
// failures.
type RefreshBackoffScheduler interface {
	NextDelay(attempt int) time.Duration
}

type ExponentialBackoffScheduler struct {
	Initial time.Duration
	Max     time.Duration
}

func (s ExponentialBackoffScheduler) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	initial := s.Initial
	if initial <= 0 {
		initial = defaultRefreshInitialBackoff
	}
	max := s.Max
	if max <= 0 {
		max = defaultRefreshMaxBackoff
	}

	delay := initial
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}

// RefreshRunResult reports how a retried refresh ended. ReauthRequired is
// set when the connection was flagged for user re-authorization.
type RefreshRunResult struct {
	Attempts       int
	ReauthRequired bool
}

type RefreshRunOptions struct {
	MaxAttempts int
	Backoff     RefreshBackoffScheduler
}

// RunRefreshWithRetry drives Refresh with bounded retries. Transient
// failures back off and retry; an unrecoverable provider rejection or an
// exhausted attempt budget flags the connection for re-authorization.
// Lifecycle errors (unknown connection, terminal status) stop immediately.
func (s *Service) RunRefreshWithRetry(ctx context.Context, connectionID string, opts RefreshRunOptions) (RefreshRunResult, error) {
	if s == nil {
		return RefreshRunResult{}, fmt.Errorf("core: service is nil")
	}
	connectionID = strings.TrimSpace(connectionID)
	if connectionID == "" {
		return RefreshRunResult{}, s.mapError(fmt.Errorf("core: connection id is required"))
	}

	maxAttempts := opts.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = defaultRefreshMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		_, err := s.Refresh(ctx, connectionID)
		if err == nil {
			return RefreshRunResult{Attempts: attempt}, nil
		}
		lastErr = err

		if isRefreshNonRetryable(err) {
			return RefreshRunResult{Attempts: attempt}, err
		}
		if isReauthRequiredError(err) || attempt == maxAttempts {
			s.flagReauthRequired(ctx, connectionID, err)
			return RefreshRunResult{Attempts: attempt, ReauthRequired: true}, err
		}

		delay := defaultRefreshInitialBackoff
		if opts.Backoff != nil {
			delay = opts.Backoff.NextDelay(attempt)
		}
		if waitErr := waitWithContext(ctx, delay); waitErr != nil {
			return RefreshRunResult{Attempts: attempt}, s.mapError(waitErr)
		}
	}

	return RefreshRunResult{Attempts: maxAttempts}, lastErr
}

// flagReauthRequired records that the connection needs the user to go
// through the authorization flow again. The status stays as Refresh left it
// (Expired); the flag rides on the connection record.
func (s *Service) flagReauthRequired(ctx context.Context, connectionID string, cause error) {
	if s == nil || s.connectionStore == nil {
		return
	}
	connection, err := s.connectionStore.Get(ctx, connectionID)
	if err != nil {
		return
	}
	reason := strings.TrimSpace(fmt.Sprint(cause))
	if reason == "" {
		reason = "token refresh failed"
	}
	connection.LastError = reason
	if connection.Metadata == nil {
		connection.Metadata = map[string]any{}
	}
	connection.Metadata["reauth_required"] = true
	connection.UpdatedAt = time.Now().UTC()
	if _, err := s.connectionStore.Update(ctx, connection); err != nil {
		return
	}
	s.logAudit(ctx, AuditEvent{
		Type:        "connection.reauth_required",
		Level:       AuditLevelWarn,
		Description: fmt.Sprintf("connection %q requires re-authorization: %s", connectionID, reason),
		UserID:      connection.UserID,
		Metadata: map[string]any{
			"integration_id": connection.IntegrationID,
			"connection_id":  connectionID,
		},
	})
}

// isRefreshNonRetryable reports lifecycle errors no retry can fix.
func isRefreshNonRetryable(err error) bool {
	return errors.Is(err, ErrConnectionNotFound) ||
		errors.Is(err, ErrIntegrationNotFound) ||
		errors.Is(err, ErrAdapterNotFound) ||
		errors.Is(err, ErrInvalidConnectionStatusTransition)
}

// isReauthRequiredError reports provider rejections that only a new user
// authorization can resolve.
func isReauthRequiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNoRefreshToken) {
		return true
	}
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(msg, "invalid_grant") ||
		strings.Contains(msg, "invalid refresh token") ||
		strings.Contains(msg, "reauthorization required")
}

func waitWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
