package core

import "github.com/loft/finassist/logging"

// logScope binds a logger to the identifiers of a run or tool call so every
// line it writes carries them. Embedded by RunContext and ToolContext.
type logScope struct {
	logger logging.Logger
}

func newLogScope(l logging.Logger, attrs ...any) *logScope {
	if l == nil {
		l = logging.NoOpLogger{}
	}
	if len(attrs) > 0 {
		l = logging.With(l, attrs...)
	}
	return &logScope{logger: l}
}

// Logger returns the scoped logger.
func (s *logScope) Logger() logging.Logger { return s.logger }

func (s *logScope) LogDebug(msg string, args ...any) { s.logger.Debug(msg, args...) }

func (s *logScope) LogInfo(msg string, args ...any) { s.logger.Info(msg, args...) }

func (s *logScope) LogWarn(msg string, args ...any) { s.logger.Warn(msg, args...) }

func (s *logScope) LogError(msg string, args ...any) { s.logger.Error(msg, args...) }
