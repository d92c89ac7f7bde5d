package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-integrations/core"
)

var (
	_ gocmd.Querier[GetConnectionMessage, core.Connection]       = (*GetConnectionQuery)(nil)
	_ gocmd.Querier[ListConnectionsMessage, []core.Connection]   = (*ListConnectionsQuery)(nil)
	_ gocmd.Querier[SyncStatusMessage, core.SyncProgress]        = (*SyncStatusQuery)(nil)
	_ gocmd.Querier[GetIntegrationMessage, core.Integration]     = (*GetIntegrationQuery)(nil)
	_ gocmd.Querier[ListIntegrationsMessage, []core.Integration] = (*ListIntegrationsQuery)(nil)
)
