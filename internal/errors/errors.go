// Package errors provides consistent error types for Pilltick.
// It defines five categories matching the failure surfaces of the alarm
// pipeline: ConfigError (permission/support problems the user can fix),
// TransientError (isolated delivery failures), StoreError (backing-store
// failures), HardwareError (camera/audio access), and VerificationError
// (evidence rejected).
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for common conditions.
var (
	ErrPermissionDenied    = errors.New("notification permission denied")
	ErrPermissionUnset     = errors.New("notification permission not requested")
	ErrPushUnsupported     = errors.New("push delivery not supported")
	ErrWorkerNotReady      = errors.New("background worker not ready")
	ErrNoPublicKey         = errors.New("push server public key unavailable")
	ErrNoUserID            = errors.New("user id not configured")
	ErrSubscriptionMissing = errors.New("no platform push subscription")
	ErrMedicineNotFound    = errors.New("medicine not found")
	ErrSubscriptionGone    = errors.New("push subscription invalidated by platform")
	ErrCameraUnavailable   = errors.New("camera unavailable")
	ErrVerifyTimeout       = errors.New("evidence verification timed out")
	ErrSnoozeLimitReached  = errors.New("snooze limit reached")
	ErrNoActiveAlarm       = errors.New("no alarm is firing")
	ErrNetworkUnavailable  = errors.New("network unavailable")
	ErrTimeout             = errors.New("operation timed out")
)

// ConfigError represents a configuration problem the user can fix:
// denied permissions, missing push support, an unregistered worker.
// Per the product design these are non-fatal; the scheduler keeps
// running in degraded mode.
type ConfigError struct {
	Message    string // What happened
	Suggestion string // How to fix it
	Cause      error  // The underlying condition (often a sentinel)
}

func (e *ConfigError) Error() string {
	return e.Message
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a new ConfigError.
func NewConfigError(message, suggestion string, cause error) *ConfigError {
	return &ConfigError{
		Message:    message,
		Suggestion: suggestion,
		Cause:      cause,
	}
}

// TransientError represents an isolated delivery failure. It never aborts
// the evaluation pass that produced it; callers log and continue.
type TransientError struct {
	Message string
	Group   string // Trigger group the failure belongs to (optional)
	Cause   error
}

func (e *TransientError) Error() string {
	if e.Group != "" {
		return fmt.Sprintf("%s (group %s)", e.Message, e.Group)
	}
	return e.Message
}

func (e *TransientError) Unwrap() error {
	return e.Cause
}

// NewTransientError creates a new TransientError.
func NewTransientError(message, group string, cause error) *TransientError {
	return &TransientError{Message: message, Group: group, Cause: cause}
}

// StoreError represents a backing-store failure. Surfaced to callers as a
// boolean failure plus message; no automatic retry, no partial state.
type StoreError struct {
	Message string
	Op      string // The store operation that failed
	Cause   error
}

func (e *StoreError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s during %s", e.Message, e.Op)
	}
	return e.Message
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// NewStoreError creates a new StoreError.
func NewStoreError(op, message string, cause error) *StoreError {
	return &StoreError{Message: message, Op: op, Cause: cause}
}

// HardwareError represents a camera or audio device failure. The flow that
// hit it returns to its prior state without crashing.
type HardwareError struct {
	Message string
	Device  string // "camera", "audio"
	Cause   error
}

func (e *HardwareError) Error() string {
	if e.Device != "" {
		return fmt.Sprintf("%s: %s", e.Device, e.Message)
	}
	return e.Message
}

func (e *HardwareError) Unwrap() error {
	return e.Cause
}

// NewHardwareError creates a new HardwareError.
func NewHardwareError(device, message string, cause error) *HardwareError {
	return &HardwareError{Message: message, Device: device, Cause: cause}
}

// VerificationError represents rejected dose evidence. The acknowledgment
// flow returns to AwaitingEvidence so the user can retry; a dose is never
// silently marked taken.
type VerificationError struct {
	Message string
	Cause   error
}

func (e *VerificationError) Error() string {
	return e.Message
}

func (e *VerificationError) Unwrap() error {
	return e.Cause
}

// NewVerificationError creates a new VerificationError.
func NewVerificationError(message string, cause error) *VerificationError {
	return &VerificationError{Message: message, Cause: cause}
}

// IsConfigError checks if an error is a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsTransientError checks if an error is a TransientError.
func IsTransientError(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsStoreError checks if an error is a StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// IsHardwareError checks if an error is a HardwareError.
func IsHardwareError(err error) bool {
	var he *HardwareError
	return errors.As(err, &he)
}

// IsVerificationError checks if an error is a VerificationError.
func IsVerificationError(err error) bool {
	var ve *VerificationError
	return errors.As(err, &ve)
}

// Suggestion extracts the fix-it hint from an error, if it carries one.
func Suggestion(err error) string {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce.Suggestion
	}
	return ""
}

// Re-exports so callers don't need to import both packages.

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}
