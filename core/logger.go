package core

// Logger is any service that can log messages at the usual levels.
// Trailing args may carry structured context; implementations may give
// special treatment to known types (eg. an authenticated user).
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
