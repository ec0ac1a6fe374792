package obslog

// Standard field names for structured logging. Use these instead of raw
// string literals so field names stay consistent across packages.
const (
	FieldComponent  = "component"
	FieldPlugin     = "plugin"
	FieldOperation  = "operation"
	FieldNodeID     = "node_id"
	FieldNodeType   = "node_type"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatus     = "status"
	FieldDurationMS = "duration_ms"
	FieldError      = "error"
	FieldCount      = "count"
	FieldBatchSize  = "batch_size"
	FieldConnID     = "conn_id"
)
