package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type connectionRecord struct {
	bun.BaseModel `bun:"table:integration_connections,alias:ic"`

	ID                   string         `bun:"id,pk"`
	IntegrationID        string         `bun:"integration_id,notnull"`
	UserID               string         `bun:"user_id,notnull"`
	Status               string         `bun:"status,notnull"`
	GrantedScopes        []string       `bun:"granted_scopes,type:jsonb,notnull"`
	ExternalAccountID    string         `bun:"external_account_id"`
	ExternalAccountEmail string         `bun:"external_account_email"`
	ExpiresAt            *time.Time     `bun:"expires_at,nullzero"`
	LastError            string         `bun:"last_error"`
	LastSyncAt           *time.Time     `bun:"last_sync_at,nullzero"`
	LastRefreshedAt      *time.Time     `bun:"last_refreshed_at,nullzero"`
	DisconnectedAt       *time.Time     `bun:"disconnected_at,nullzero"`
	Metadata             map[string]any `bun:"metadata,type:jsonb,notnull"`
	CreatedAt            time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt            time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DeletedAt            *time.Time     `bun:"deleted_at,soft_delete"`
}

type webhookRecord struct {
	bun.BaseModel `bun:"table:integration_webhooks,alias:iw"`

	ID              string     `bun:"id,pk"`
	ConnectionID    string     `bun:"connection_id,notnull"`
	IntegrationID   string     `bun:"integration_id,notnull"`
	URL             string     `bun:"url"`
	Events          []string   `bun:"events,type:jsonb,notnull"`
	Secret          string     `bun:"secret"`
	Active          bool       `bun:"active,notnull"`
	FailureCount    int        `bun:"failure_count,notnull"`
	LastTriggeredAt *time.Time `bun:"last_triggered_at,nullzero"`
	CreatedAt       time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt       time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type syncProgressRecord struct {
	bun.BaseModel `bun:"table:integration_sync_progress,alias:isp"`

	ID           string     `bun:"id,pk"`
	ConnectionID string     `bun:"connection_id,notnull,unique"`
	Status       string     `bun:"status,notnull"`
	Total        int        `bun:"total,notnull"`
	Processed    int        `bun:"processed,notnull"`
	Succeeded    int        `bun:"succeeded,notnull"`
	Failed       int        `bun:"failed,notnull"`
	Skipped      int        `bun:"skipped,notnull"`
	StartedAt    time.Time  `bun:"started_at,notnull"`
	CompletedAt  *time.Time `bun:"completed_at,nullzero"`
	LastError    string     `bun:"last_error"`
	CreatedAt    time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type auditEventRecord struct {
	bun.BaseModel `bun:"table:integration_audit_events,alias:iae"`

	ID          string         `bun:"id,pk"`
	Type        string         `bun:"type,notnull"`
	Level       string         `bun:"level,notnull"`
	Description string         `bun:"description"`
	UserID      string         `bun:"user_id"`
	Metadata    map[string]any `bun:"metadata,type:jsonb,notnull"`
	OccurredAt  time.Time      `bun:"occurred_at,notnull"`
	CreatedAt   time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
