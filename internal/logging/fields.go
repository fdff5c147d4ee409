package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldVehicleID is the standardized structured logging key for vehicle identifiers.
	FieldVehicleID = "vehicle_id"
	// FieldCallNumber is the standardized structured logging key for impound call numbers.
	FieldCallNumber = "call_number"
	// FieldStage is the standardized structured logging key for lifecycle stage names.
	FieldStage = "stage"
	// FieldAction is the standardized structured logging key for workflow action kinds.
	FieldAction = "action"
	// FieldTask is the standardized structured logging key for scheduler task names.
	FieldTask = "task"
	// FieldCycleID is the standardized structured logging key for executor cycle correlation IDs.
	FieldCycleID = "cycle_id"
	// FieldEventType is the standardized structured logging key for machine-readable event names.
	FieldEventType = "event_type"
	// FieldErrorHint is the standardized structured logging key for operator remediation hints.
	FieldErrorHint = "error_hint"
)
