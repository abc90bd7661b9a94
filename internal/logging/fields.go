package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for reconciliation run identifiers.
	FieldRunID = "run_id"
	// FieldAlbum is the standardized structured logging key for album titles.
	FieldAlbum = "album"
	// FieldStage is the standardized structured logging key for reconciliation stage names.
	FieldStage = "stage"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
	// FieldEventType classifies a record for filtering (e.g. "manifest_missing").
	FieldEventType = "event_type"
	// FieldErrorHint carries the operator's next step for a warning or error.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldDecisionType names the decision recorded by DecisionAttrs.
	FieldDecisionType = "decision_type"

	fieldDecisionResult = "decision_result"
	fieldDecisionReason = "decision_reason"
)
