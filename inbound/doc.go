// Package inbound receives provider webhook deliveries.
//
// Deliveries are signature-verified against the stored webhook secret,
// deduplicated through claim/complete/fail idempotency semantics, and
// routed to the webhook registry. Transient handler failures release the
// claim so the provider's retry is accepted.
package inbound
