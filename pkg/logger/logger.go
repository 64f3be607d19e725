// Package logger is the process-wide logging facade. Backends implement
// LoggerInstance; every log call fans out to all registered backends.
// Calls before Init are dropped.
package logger

// LoggerInstance defines the interface for logging backends.
type LoggerInstance interface {
	Log(message string, keyvals ...any)
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
	Fatal(message string, keyvals ...any)
}

var backends []LoggerInstance

// Init registers the logging backends. It must be called once at process
// start, before any logging.
func Init(instances ...LoggerInstance) {
	backends = instances
}

// Log writes a message at the default log level.
func Log(message string, keyvals ...any) {
	for _, backend := range backends {
		backend.Log(message, keyvals...)
	}
}

// Debug writes a message at DEBUG level.
func Debug(message string, keyvals ...any) {
	for _, backend := range backends {
		backend.Debug(message, keyvals...)
	}
}

// Info writes a message at INFO level.
func Info(message string, keyvals ...any) {
	for _, backend := range backends {
		backend.Info(message, keyvals...)
	}
}

// Warn writes a message at WARN level.
func Warn(message string, keyvals ...any) {
	for _, backend := range backends {
		backend.Warn(message, keyvals...)
	}
}

// Error writes a message at ERROR level.
func Error(message string, keyvals ...any) {
	for _, backend := range backends {
		backend.Error(message, keyvals...)
	}
}

// Fatal writes a message at FATAL level and terminates the program.
func Fatal(message string, keyvals ...any) {
	for _, backend := range backends {
		backend.Fatal(message, keyvals...)
	}
}
