package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeEmptyInput ErrorType = "empty_input"
	ErrorTypeEncoding   ErrorType = "encoding"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Cause   error          `json:"cause,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func newAppError(typ ErrorType, code, message string, cause error) *AppError {
	return &AppError{
		Type:    typ,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Error constructors for different types
func NewValidationError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeValidation, code, message, cause)
}

func NewIOError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeIO, code, message, cause)
}

// NewEmptyInputError reports a document that is empty or has no extractable words.
func NewEmptyInputError(message string) *AppError {
	return newAppError(ErrorTypeEmptyInput, ErrCodeEmptyInput, message, nil)
}

// NewEncodingError reports that the embedding step could not produce a vector.
func NewEncodingError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeEncoding, code, message, cause)
}

func NewNetworkError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeNetwork, code, message, cause)
}

func NewConfigError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeConfig, code, message, cause)
}

func NewInternalError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeInternal, code, message, cause)
}

// WithContext adds context to an error
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// IsType reports whether err wraps an AppError of the given type.
func IsType(err error, typ ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == typ
}

// Logger wraps slog with application-specific methods. Records go to stderr
// so that reports written to stdout stay machine readable.
type Logger struct {
	logger *slog.Logger
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// NewLogger creates a JSON logger writing to stderr.
func NewLogger(level slog.Level) *Logger {
	return NewLoggerTo(os.Stderr, level)
}

// NewLoggerTo creates a JSON logger writing to w.
func NewLoggerTo(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return &Logger{logger: slog.New(handler)}
}

// New creates a logger from a configured level name.
func New(level string) (*Logger, error) {
	slogLevel, ok := logLevels[level]
	if !ok {
		return nil, fmt.Errorf("invalid log level: %s", level)
	}
	return NewLogger(slogLevel), nil
}

// LogError logs err at error level. AppErrors are flattened into their type,
// code, message, cause and context attributes.
// All Logger methods are no-ops on a nil receiver.
func (l *Logger) LogError(err error, message string, args ...any) {
	if l == nil {
		return
	}
	appErr, ok := As(err)
	if !ok {
		l.logger.Error(message, append([]any{"error", err.Error()}, args...)...)
		return
	}

	attrs := []any{
		"error_type", appErr.Type,
		"error_code", appErr.Code,
		"error_message", appErr.Message,
	}
	if appErr.Cause != nil {
		attrs = append(attrs, "error_cause", appErr.Cause.Error())
	}
	for key, value := range appErr.Context {
		attrs = append(attrs, key, value)
	}
	l.logger.Error(message, append(attrs, args...)...)
}

func (l *Logger) Info(message string, args ...any) {
	if l != nil {
		l.logger.Info(message, args...)
	}
}

func (l *Logger) Debug(message string, args ...any) {
	if l != nil {
		l.logger.Debug(message, args...)
	}
}

func (l *Logger) Warn(message string, args ...any) {
	if l != nil {
		l.logger.Warn(message, args...)
	}
}

// With returns a logger that adds the given attributes to every record.
func (l *Logger) With(args ...any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{logger: l.logger.With(args...)}
}

// Common error codes
const (
	ErrCodeFileNotFound     = "FILE_NOT_FOUND"
	ErrCodeFileNotReadable  = "FILE_NOT_READABLE"
	ErrCodeInvalidFormat    = "INVALID_FORMAT"
	ErrCodeEmptyInput       = "EMPTY_INPUT"
	ErrCodeEncodingFailed   = "ENCODING_FAILED"
	ErrCodeEncodingTimeout  = "ENCODING_TIMEOUT"
	ErrCodeCircuitOpen      = "CIRCUIT_OPEN"
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeMissingAPIKey    = "MISSING_API_KEY"
	ErrCodeNetworkTimeout   = "NETWORK_TIMEOUT"
	ErrCodeInvalidConfig    = "INVALID_CONFIG"
	ErrCodeUnknownLanguage  = "UNKNOWN_LANGUAGE"
	ErrCodeStopwordsInvalid = "STOPWORDS_INVALID"
)
