package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[ConnectMessage]           = (*ConnectCommand)(nil)
	_ gocmd.Commander[CompleteCallbackMessage]  = (*CompleteCallbackCommand)(nil)
	_ gocmd.Commander[RefreshMessage]           = (*RefreshCommand)(nil)
	_ gocmd.Commander[DisconnectMessage]        = (*DisconnectCommand)(nil)
	_ gocmd.Commander[SyncMessage]              = (*SyncCommand)(nil)
	_ gocmd.Commander[RegisterWebhookMessage]   = (*RegisterWebhookCommand)(nil)
	_ gocmd.Commander[UnregisterWebhookMessage] = (*UnregisterWebhookCommand)(nil)
	_ gocmd.Commander[DispatchWebhookMessage]   = (*DispatchWebhookCommand)(nil)
)
