package core

// Notifier is the sink for human-readable success/failure messages shown to
// the operator (the toast area of the original UI). It is consumed as a sink
// only; no domain logic depends on its behavior.
type Notifier interface {
	Success(msg string)
	Info(msg string)
	Error(msg string)
}
