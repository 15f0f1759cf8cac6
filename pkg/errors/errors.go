package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeAuth represents authorization failures (bad secret, missing role)
	ErrorTypeAuth ErrorType = "auth"
	// ErrorTypeTransport represents network-level failures (non-2xx, timeout)
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeBotBlock represents captcha / bot-blocking responses
	ErrorTypeBotBlock ErrorType = "bot_block"
	// ErrorTypeParsing represents HTML parsing failures
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeConflict represents duplicate-candidate conflicts
	ErrorTypeConflict ErrorType = "conflict"
	// ErrorTypeStorage represents storage-layer failures
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// PipelineError represents an ingestion-pipeline error
type PipelineError struct {
	Type     ErrorType
	Platform string
	Message  string
	Err      error
	Time     time.Time
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Platform, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Platform, e.Message)
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Fatal reports whether the error aborts the whole run rather than
// degrading it. Only storage and configuration problems are fatal;
// transport and parsing problems leave a best-effort result.
func (e *PipelineError) Fatal() bool {
	switch e.Type {
	case ErrorTypeStorage, ErrorTypeConfiguration:
		return true
	default:
		return false
	}
}

// New creates a new PipelineError
func New(errType ErrorType, platform, message string, err error) *PipelineError {
	return &PipelineError{
		Type:     errType,
		Platform: platform,
		Message:  message,
		Err:      err,
		Time:     time.Now(),
	}
}

// NewAuth creates an authorization error
func NewAuth(message string) *PipelineError {
	return New(ErrorTypeAuth, "", message, nil)
}

// NewTransport creates a transport error
func NewTransport(platform, message string, err error) *PipelineError {
	return New(ErrorTypeTransport, platform, message, err)
}

// NewBotBlock creates a bot-block error
func NewBotBlock(platform, message string) *PipelineError {
	return New(ErrorTypeBotBlock, platform, message, nil)
}

// NewParsing creates a parsing error
func NewParsing(platform, message string, err error) *PipelineError {
	return New(ErrorTypeParsing, platform, message, err)
}

// NewConflict creates a duplicate-candidate error
func NewConflict(platform, message string) *PipelineError {
	return New(ErrorTypeConflict, platform, message, nil)
}

// NewStorage creates a storage error
func NewStorage(message string, err error) *PipelineError {
	return New(ErrorTypeStorage, "", message, err)
}

// NewConfiguration creates a configuration error
func NewConfiguration(message string, err error) *PipelineError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// TypeOf returns the pipeline error type of err, or "" if err is not a
// PipelineError.
func TypeOf(err error) ErrorType {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Type
	}
	return ""
}
