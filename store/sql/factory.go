package sqlstore

import (
	"fmt"

	"github.com/goliatone/go-integrations/core"
	persistence "github.com/goliatone/go-persistence-bun"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type RepositoryFactory struct {
	db *bun.DB

	connectionStore   *ConnectionStore
	webhookStore      *WebhookStore
	syncProgressStore *SyncProgressStore
	auditStore        *AuditStore
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.StoreProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.connectionStore != nil && f.webhookStore != nil && f.syncProgressStore != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) ConnectionStore() core.ConnectionStore {
	if f == nil {
		return nil
	}
	return f.connectionStore
}

func (f *RepositoryFactory) WebhookStore() core.WebhookStore {
	if f == nil {
		return nil
	}
	return f.webhookStore
}

func (f *RepositoryFactory) SyncProgressStore() core.SyncProgressStore {
	if f == nil {
		return nil
	}
	return f.syncProgressStore
}

func (f *RepositoryFactory) AuditStore() *AuditStore {
	if f == nil {
		return nil
	}
	return f.auditStore
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) initStores() error {
	connectionRepo := repository.NewRepository[*connectionRecord](f.db, connectionHandlers())
	if validator, ok := connectionRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid connection repository wiring: %w", err)
		}
	}
	webhookRepo := repository.NewRepository[*webhookRecord](f.db, webhookHandlers())
	if validator, ok := webhookRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid webhook repository wiring: %w", err)
		}
	}
	syncProgressRepo := repository.NewRepository[*syncProgressRecord](f.db, syncProgressHandlers())
	if validator, ok := syncProgressRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid sync progress repository wiring: %w", err)
		}
	}
	auditRepo := repository.NewRepository[*auditEventRecord](f.db, auditEventHandlers())
	if validator, ok := auditRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid audit repository wiring: %w", err)
		}
	}

	f.connectionStore = &ConnectionStore{db: f.db, repo: connectionRepo}
	f.webhookStore = &WebhookStore{db: f.db, repo: webhookRepo}
	f.syncProgressStore = &SyncProgressStore{db: f.db, repo: syncProgressRepo}
	f.auditStore = &AuditStore{db: f.db, repo: auditRepo}
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
