package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-integrations/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type ConnectionStore struct {
	db   *bun.DB
	repo repository.Repository[*connectionRecord]
}

func (s *ConnectionStore) Create(ctx context.Context, in core.CreateConnectionInput) (core.Connection, error) {
	if s == nil || s.repo == nil {
		return core.Connection{}, fmt.Errorf("sqlstore: connection store is not configured")
	}
	if strings.TrimSpace(in.IntegrationID) == "" {
		return core.Connection{}, fmt.Errorf("sqlstore: integration id is required")
	}
	if strings.TrimSpace(in.UserID) == "" {
		return core.Connection{}, fmt.Errorf("sqlstore: user id is required")
	}

	status := in.Status
	if strings.TrimSpace(string(status)) == "" {
		status = core.ConnectionStatusPending
	}
	in.Status = status

	created, err := s.repo.Create(ctx, newConnectionRecord(in, time.Now().UTC()))
	if err != nil {
		return core.Connection{}, err
	}
	return created.toDomain(), nil
}

func (s *ConnectionStore) Get(ctx context.Context, id string) (core.Connection, error) {
	if s == nil || s.repo == nil {
		return core.Connection{}, fmt.Errorf("sqlstore: connection store is not configured")
	}
	record, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if isRecordNotFound(err) {
			return core.Connection{}, fmt.Errorf("%w: %s", core.ErrConnectionNotFound, strings.TrimSpace(id))
		}
		return core.Connection{}, err
	}
	return record.toDomain(), nil
}

func (s *ConnectionStore) Update(ctx context.Context, connection core.Connection) (core.Connection, error) {
	if s == nil || s.repo == nil {
		return core.Connection{}, fmt.Errorf("sqlstore: connection store is not configured")
	}
	id := strings.TrimSpace(connection.ID)
	if id == "" {
		return core.Connection{}, fmt.Errorf("sqlstore: connection id is required")
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if isRecordNotFound(err) {
			return core.Connection{}, fmt.Errorf("%w: %s", core.ErrConnectionNotFound, id)
		}
		return core.Connection{}, err
	}

	record := connectionToRecord(connection)
	record.UpdatedAt = time.Now().UTC()
	updated, err := s.repo.Update(ctx, record, repository.UpdateByID(id))
	if err != nil {
		return core.Connection{}, err
	}
	return updated.toDomain(), nil
}

func (s *ConnectionStore) ListByUser(ctx context.Context, userID string) ([]core.Connection, error) {
	return s.list(ctx, "user_id", userID)
}

func (s *ConnectionStore) ListByIntegration(ctx context.Context, integrationID string) ([]core.Connection, error) {
	return s.list(ctx, "integration_id", integrationID)
}

func (s *ConnectionStore) list(ctx context.Context, column string, value string) ([]core.Connection, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: connection store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy(column, "=", strings.TrimSpace(value)),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.deleted_at IS NULL")
		}),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.Connection, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func isRecordNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.Category == goerrors.CategoryNotFound
	}
	return false
}
