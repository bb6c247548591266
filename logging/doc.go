// Package logging provides a minimal logging interface and adapters for finassist.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// used by the dispatcher, runner, tools and HTTP layer. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - ZerologAdapter wrapping github.com/rs/zerolog
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger, closeFn, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	defer closeFn()
//
// Arguments after the message are slog-style alternating key/value pairs.
package logging
