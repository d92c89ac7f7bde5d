package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-integrations/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// AuditStore persists audit events as an append-only trail.
type AuditStore struct {
	db   *bun.DB
	repo repository.Repository[*auditEventRecord]
}

func (s *AuditStore) Log(ctx context.Context, event core.AuditEvent) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: audit store is not configured")
	}
	eventType := strings.TrimSpace(event.Type)
	if eventType == "" {
		return fmt.Errorf("sqlstore: audit event type is required")
	}

	level := string(event.Level)
	if strings.TrimSpace(level) == "" {
		level = string(core.AuditLevelInfo)
	}
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	_, err := s.repo.Create(ctx, &auditEventRecord{
		Type:        eventType,
		Level:       level,
		Description: event.Description,
		UserID:      event.UserID,
		Metadata:    copyAnyMap(event.Metadata),
		OccurredAt:  occurredAt.UTC(),
		CreatedAt:   time.Now().UTC(),
	})
	return err
}

// ListByType returns events of one type, newest first. Intended for
// inspection and tests rather than hot paths.
func (s *AuditStore) ListByType(ctx context.Context, eventType string) ([]core.AuditEvent, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: audit store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("type", "=", strings.TrimSpace(eventType)),
		repository.OrderBy("occurred_at DESC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.AuditEvent, 0, len(records))
	for _, record := range records {
		out = append(out, core.AuditEvent{
			Type:        record.Type,
			Level:       core.AuditLevel(record.Level),
			Description: record.Description,
			UserID:      record.UserID,
			Metadata:    copyAnyMap(record.Metadata),
			OccurredAt:  record.OccurredAt,
		})
	}
	return out, nil
}

var _ core.AuditLogger = (*AuditStore)(nil)
