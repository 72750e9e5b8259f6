package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldYear        = "year"
	FieldMonth       = "month"
	FieldGoalID      = "goal_id"
	FieldAssetID     = "asset_id"
	FieldAmountCents = "amount_cents"
	FieldCategory    = "category"
	FieldKind        = "kind"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLedger    = "ledger"
	ComponentStorage   = "storage"
	ComponentEvents    = "events"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpDeposit  = "deposit"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
