package errors

import (
	"errors"
	"syscall"
)

// Category represents the type of error for display and handling purposes.
type Category int

const (
	// CategoryUnknown is the default for unclassified errors.
	CategoryUnknown Category = iota
	// CategoryConfig indicates a configuration problem (permission, support).
	CategoryConfig
	// CategoryTransient indicates an isolated delivery failure.
	CategoryTransient
	// CategoryStore indicates a backing-store failure.
	CategoryStore
	// CategoryHardware indicates a camera/audio device failure.
	CategoryHardware
	// CategoryVerification indicates rejected dose evidence.
	CategoryVerification
)

// String returns the string representation of the category.
func (c Category) String() string {
	switch c {
	case CategoryConfig:
		return "config"
	case CategoryTransient:
		return "transient"
	case CategoryStore:
		return "store"
	case CategoryHardware:
		return "hardware"
	case CategoryVerification:
		return "verification"
	default:
		return "unknown"
	}
}

// Classify determines the category of an error.
func Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	// Typed errors first
	if IsConfigError(err) {
		return CategoryConfig
	}
	if IsStoreError(err) {
		return CategoryStore
	}
	if IsHardwareError(err) {
		return CategoryHardware
	}
	if IsVerificationError(err) {
		return CategoryVerification
	}
	if IsTransientError(err) {
		return CategoryTransient
	}

	// Sentinels
	if errors.Is(err, ErrPermissionDenied) ||
		errors.Is(err, ErrPermissionUnset) ||
		errors.Is(err, ErrPushUnsupported) ||
		errors.Is(err, ErrWorkerNotReady) ||
		errors.Is(err, ErrNoUserID) ||
		errors.Is(err, ErrNoPublicKey) {
		return CategoryConfig
	}
	if errors.Is(err, ErrCameraUnavailable) {
		return CategoryHardware
	}
	if errors.Is(err, ErrVerifyTimeout) {
		return CategoryVerification
	}
	if errors.Is(err, ErrNetworkUnavailable) || errors.Is(err, ErrTimeout) {
		return CategoryTransient
	}

	// Syscall errors that are typically transient
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EAGAIN, syscall.EINTR, syscall.ETIMEDOUT, syscall.ECONNREFUSED, syscall.ECONNRESET:
			return CategoryTransient
		}
	}

	return CategoryUnknown
}
