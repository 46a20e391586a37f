package ir

// Version constants for the crossing record format and engine.
const (
	// RecordVersion is the crossing record schema version.
	RecordVersion = "1"

	// EngineVersion is the scrolldepth engine version.
	EngineVersion = "0.1.0"
)
