package errors

import (
	"fmt"
	"time"
)

// ErrorCode identifies a class of evaluation failure
type ErrorCode string

const (
	// Data errors
	ErrCodeDataValidation ErrorCode = "DATA_VALIDATION_ERROR"

	// Strategy specification errors
	ErrCodeUnknownFeature ErrorCode = "UNKNOWN_FEATURE"
	ErrCodeConfiguration  ErrorCode = "CONFIGURATION_ERROR"

	// Pipeline errors
	ErrCodeInsufficientSignal ErrorCode = "INSUFFICIENT_SIGNAL"
	ErrCodeTraining           ErrorCode = "TRAINING_ERROR"

	// Catch-all
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Stage identifies the pipeline stage an error surfaced in
type Stage string

const (
	StageValidate Stage = "validate"
	StageFeatures Stage = "features"
	StageLabel    Stage = "label"
	StageSplit    Stage = "split"
	StageTrain    Stage = "train"
	StageSimulate Stage = "simulate"
	StageReport   Stage = "report"
)

// EvalError is the structured error returned by every pipeline stage.
// It carries enough context (stage, asset, parameters) for the caller to
// decide whether to retry with different parameters or abandon the
// hypothesis. A failed evaluation is always distinguishable from a
// weak-but-valid one: weak results are reports, never errors.
type EvalError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Stage     Stage                  `json:"stage,omitempty"`
	Asset     string                 `json:"asset,omitempty"`
	Strategy  string                 `json:"strategy,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Cause     error                  `json:"-"`
}

// Error implements the error interface
func (e *EvalError) Error() string {
	msg := fmt.Sprintf("[%s]", e.Code)
	if e.Stage != "" {
		msg += fmt.Sprintf(" stage=%s", e.Stage)
	}
	if e.Asset != "" {
		msg += fmt.Sprintf(" asset=%s", e.Asset)
	}
	msg += " " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the wrapped cause
func (e *EvalError) Unwrap() error {
	return e.Cause
}

// New creates a new evaluation error
func New(code ErrorCode, message string) *EvalError {
	return &EvalError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Newf creates a new evaluation error with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *EvalError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an underlying error. If err is already an *EvalError it is
// returned unchanged so the original stage and code survive.
func Wrap(err error, code ErrorCode, message string) *EvalError {
	if err == nil {
		return nil
	}
	if evalErr, ok := err.(*EvalError); ok {
		return evalErr
	}
	e := New(code, message)
	e.Cause = err
	return e
}

// WithStage tags the error with the pipeline stage it surfaced in
func (e *EvalError) WithStage(stage Stage) *EvalError {
	e.Stage = stage
	return e
}

// WithAsset tags the error with the asset being evaluated
func (e *EvalError) WithAsset(asset string) *EvalError {
	e.Asset = asset
	return e
}

// WithStrategy tags the error with the strategy name
func (e *EvalError) WithStrategy(name string) *EvalError {
	e.Strategy = name
	return e
}

// WithContext adds a key/value to the error context
func (e *EvalError) WithContext(key string, value interface{}) *EvalError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// IsEvalError checks whether err is an evaluation error
func IsEvalError(err error) bool {
	_, ok := err.(*EvalError)
	return ok
}

// GetEvalError extracts the evaluation error, or nil
func GetEvalError(err error) *EvalError {
	if evalErr, ok := err.(*EvalError); ok {
		return evalErr
	}
	return nil
}

// CodeOf returns the error code, or ErrCodeInternal for plain errors
func CodeOf(err error) ErrorCode {
	if evalErr := GetEvalError(err); evalErr != nil {
		return evalErr.Code
	}
	return ErrCodeInternal
}
