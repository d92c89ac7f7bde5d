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

type WebhookStore struct {
	db   *bun.DB
	repo repository.Repository[*webhookRecord]
}

// Save creates the webhook when it has no persisted row yet and updates it
// otherwise.
func (s *WebhookStore) Save(ctx context.Context, webhook core.Webhook) (core.Webhook, error) {
	if s == nil || s.repo == nil {
		return core.Webhook{}, fmt.Errorf("sqlstore: webhook store is not configured")
	}
	if strings.TrimSpace(webhook.ConnectionID) == "" {
		return core.Webhook{}, fmt.Errorf("sqlstore: webhook connection id is required")
	}

	now := time.Now().UTC()
	record := webhookToRecord(webhook)
	record.UpdatedAt = now

	id := strings.TrimSpace(webhook.ID)
	if id != "" {
		if _, err := s.repo.GetByID(ctx, id); err == nil {
			updated, updateErr := s.repo.Update(ctx, record, repository.UpdateByID(id))
			if updateErr != nil {
				return core.Webhook{}, updateErr
			}
			return updated.toDomain(), nil
		} else if !isRecordNotFound(err) {
			return core.Webhook{}, err
		}
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return core.Webhook{}, err
	}
	return created.toDomain(), nil
}

func (s *WebhookStore) Get(ctx context.Context, id string) (core.Webhook, error) {
	if s == nil || s.repo == nil {
		return core.Webhook{}, fmt.Errorf("sqlstore: webhook store is not configured")
	}
	record, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if isRecordNotFound(err) {
			return core.Webhook{}, fmt.Errorf("%w: %s", core.ErrWebhookNotFound, strings.TrimSpace(id))
		}
		return core.Webhook{}, err
	}
	return record.toDomain(), nil
}

func (s *WebhookStore) ListByConnection(ctx context.Context, connectionID string) ([]core.Webhook, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: webhook store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("connection_id", "=", strings.TrimSpace(connectionID)),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.Webhook, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func (s *WebhookStore) Delete(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: webhook store is not configured")
	}
	id = strings.TrimSpace(id)
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	_, err := s.db.NewDelete().
		Model((*webhookRecord)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
