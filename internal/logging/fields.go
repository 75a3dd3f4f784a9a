package logging

// Structured logging keys shared across packages.
const (
	FieldComponent    = "component"
	FieldScanID       = "scan_id"
	FieldOwner        = "owner"
	FieldFace         = "face"
	FieldItemID       = "item_id"
	FieldEventType    = "event_type"
	FieldErrorHint    = "error_hint"
	FieldImpact       = "impact"
	FieldDecisionType = "decision_type"
)
