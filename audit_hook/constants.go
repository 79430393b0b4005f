package audithook

// Action constants for audit events.
const (
	// Creator actions
	ActionCreatorRegistered = "creator.registered"
	ActionCreatorVerified   = "creator.verified"

	// Content actions
	ActionContentPublished = "content.published"

	// Purchase actions
	ActionContentPurchased   = "content.purchased"
	ActionSettlementReversed = "settlement.reversed"

	// Platform actions
	ActionFeesWithdrawn        = "fees.withdrawn"
	ActionOwnershipTransferred = "ownership.transferred"
)

// Resource constants for audit events.
const (
	ResourceCreator  = "creator"
	ResourceContent  = "content"
	ResourcePurchase = "purchase"
	ResourcePlatform = "platform"
)

// Category constants for audit events.
const (
	CategoryIdentity   = "identity"
	CategoryCatalog    = "catalog"
	CategorySettlement = "settlement"
	CategoryAdmin      = "admin"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
