package ir

// Version constants recorded on every reconcile run.
const (
	// SchemaVersion is the entity schema catalogue version.
	SchemaVersion = "1"

	// EngineVersion is the graphmirror engine version.
	EngineVersion = "0.3.0"
)
