package logx

import (
	"github.com/jolyndenning/parquet2sql/internal/ui"
	"go.uber.org/zap"
)

// StyledLogger is a wrapper around zap.Logger that also prints a styled
// line for humans on ui.Out
type StyledLogger struct {
	logger *zap.Logger
}

// NewStyledLogger creates a StyledLogger over the current global Logger
func NewStyledLogger() *StyledLogger {
	return &StyledLogger{
		logger: Logger,
	}
}

// Info logs a message with INFO level and applies styled output
func (s *StyledLogger) Info(msg string, fields ...zap.Field) {
	s.logger.Info(msg, fields...)
	ui.PrintInfo(msg)
}

// Success logs a message with INFO level and applies success styling
func (s *StyledLogger) Success(msg string, fields ...zap.Field) {
	s.logger.Info(msg, fields...)
	ui.PrintSuccess(msg)
}

// Error logs a message with ERROR level and applies error styling
func (s *StyledLogger) Error(msg string, fields ...zap.Field) {
	s.logger.Error(msg, fields...)
	ui.PrintError(msg)
}

// Warn logs a message with WARN level and applies warning styling
func (s *StyledLogger) Warn(msg string, fields ...zap.Field) {
	s.logger.Warn(msg, fields...)
	ui.PrintWarning(msg)
}

// Debug logs a message with DEBUG level without visual styling
func (s *StyledLogger) Debug(msg string, fields ...zap.Field) {
	s.logger.Debug(msg, fields...)
}

// Highlight logs a message with INFO level and applies highlight styling
func (s *StyledLogger) Highlight(msg string, fields ...zap.Field) {
	s.logger.Info(msg, fields...)
	ui.PrintHighlight(msg)
}

// With returns a new StyledLogger with the given fields added to it
func (s *StyledLogger) With(fields ...zap.Field) *StyledLogger {
	return &StyledLogger{
		logger: s.logger.With(fields...),
	}
}

// Zap returns the underlying zap.Logger
func (s *StyledLogger) Zap() *zap.Logger {
	return s.logger
}

var StyledLog = NewStyledLogger()

// InitStyledLogger rebinds StyledLog to the current global Logger
func InitStyledLogger() {
	StyledLog = NewStyledLogger()
}
