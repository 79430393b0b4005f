package bazaar

import "github.com/xraph/bazaar/types"

// Re-export common types for convenience so users don't have to import types package.

// Principal is re-exported from types package.
type Principal = types.Principal

// Credits is re-exported from types package.
type Credits = types.Credits

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export constructors
var (
	NewCredits     = types.NewCredits
	ParsePrincipal = types.ParsePrincipal
	NewEntity      = types.NewEntity
)

// Nobody is the zero principal.
const Nobody = types.Nobody
