package sqlstore

import "github.com/goliatone/go-integrations/core"

var (
	_ core.ConnectionStore        = (*ConnectionStore)(nil)
	_ core.WebhookStore           = (*WebhookStore)(nil)
	_ core.SyncProgressStore      = (*SyncProgressStore)(nil)
	_ core.AuditLogger            = (*AuditStore)(nil)
	_ core.StoreProvider          = (*RepositoryFactory)(nil)
	_ core.RepositoryStoreFactory = (*RepositoryFactory)(nil)
)
