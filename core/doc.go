// Package core contains canonical integration domain contracts, entities, and
// the connection lifecycle orchestration. Lower-level adapters must depend on
// this package; core must not depend on provider-specific or transport-specific
// adapters.
package core
