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

// SyncProgressStore keeps one row per connection holding the latest run.
type SyncProgressStore struct {
	db   *bun.DB
	repo repository.Repository[*syncProgressRecord]
}

func (s *SyncProgressStore) Save(ctx context.Context, progress core.SyncProgress) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: sync progress store is not configured")
	}
	connectionID := strings.TrimSpace(progress.ConnectionID)
	if connectionID == "" {
		return fmt.Errorf("sqlstore: sync progress connection id is required")
	}
	progress.ConnectionID = connectionID

	now := time.Now().UTC()
	existing, found, err := s.find(ctx, connectionID)
	if err != nil {
		return err
	}

	record := syncProgressToRecord(progress)
	record.UpdatedAt = now
	if found {
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
		_, err = s.repo.Update(ctx, record, repository.UpdateByID(existing.ID))
		return err
	}
	record.CreatedAt = now
	_, err = s.repo.Create(ctx, record)
	return err
}

func (s *SyncProgressStore) Get(ctx context.Context, connectionID string) (core.SyncProgress, bool, error) {
	if s == nil || s.repo == nil {
		return core.SyncProgress{}, false, fmt.Errorf("sqlstore: sync progress store is not configured")
	}
	record, found, err := s.find(ctx, strings.TrimSpace(connectionID))
	if err != nil {
		return core.SyncProgress{}, false, err
	}
	if !found {
		return core.SyncProgress{}, false, nil
	}
	return record.toDomain(), true, nil
}

func (s *SyncProgressStore) find(ctx context.Context, connectionID string) (*syncProgressRecord, bool, error) {
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("connection_id", "=", connectionID),
	)
	if err != nil {
		return nil, false, err
	}
	if len(records) == 0 {
		return nil, false, nil
	}
	return records[0], true, nil
}
