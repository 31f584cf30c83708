package core

// Logger is the application logging contract. Implementations live in
// services/logger.
//
// args may carry any extra context values; implementations render them as
// they see fit (the rollbar implementation extracts a user.Profile to tag
// the reporting person).
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}
