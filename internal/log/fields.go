package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldID        = "id"
	FieldKind      = "kind"
	FieldAmount    = "amount"
	FieldDate      = "date"
	FieldYear      = "year"
	FieldMonth     = "month"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentCLI     = "cli"
)

// Operations defines standard operation names
const (
	OpInsert  = "insert"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpQuery   = "query"
	OpBalance = "balance"
	OpSummary = "summary"
)
