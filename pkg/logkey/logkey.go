package logkey

// Shared keys for structured log attributes so log lines stay greppable.
const (
	TraceID = "TRACE ID"
	ERROR   = "ERROR"
)
