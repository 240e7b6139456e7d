package errors

import (
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("push misconfigured", "enable notifications in system settings", ErrPermissionDenied)

	assert.Equal(t, "push misconfigured", err.Error())
	assert.True(t, IsConfigError(err))
	assert.True(t, Is(err, ErrPermissionDenied))
	assert.Equal(t, "enable notifications in system settings", Suggestion(err))
}

func TestTransientErrorCarriesGroup(t *testing.T) {
	err := NewTransientError("delivery failed", "08:00-daily", fmt.Errorf("boom"))
	assert.Contains(t, err.Error(), "08:00-daily")
	assert.True(t, IsTransientError(err))
}

func TestStoreErrorOpContext(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewStoreError("saveSubscription", "store unreachable", cause)
	assert.Equal(t, "store unreachable during saveSubscription", err.Error())
	assert.True(t, IsStoreError(err))
	assert.Equal(t, cause, err.Unwrap())
}

func TestWrappedTypedErrors(t *testing.T) {
	inner := NewHardwareError("camera", "stream acquisition failed", ErrCameraUnavailable)
	wrapped := fmt.Errorf("evidence capture: %w", inner)

	assert.True(t, IsHardwareError(wrapped))
	assert.True(t, Is(wrapped, ErrCameraUnavailable))

	var he *HardwareError
	assert.True(t, As(wrapped, &he))
	assert.Equal(t, "camera", he.Device)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"nil", nil, CategoryUnknown},
		{"config typed", NewConfigError("m", "s", nil), CategoryConfig},
		{"transient typed", NewTransientError("m", "g", nil), CategoryTransient},
		{"store typed", NewStoreError("op", "m", nil), CategoryStore},
		{"hardware typed", NewHardwareError("camera", "m", nil), CategoryHardware},
		{"verification typed", NewVerificationError("m", nil), CategoryVerification},
		{"permission sentinel", fmt.Errorf("deliver: %w", ErrPermissionDenied), CategoryConfig},
		{"camera sentinel", ErrCameraUnavailable, CategoryHardware},
		{"verify timeout sentinel", ErrVerifyTimeout, CategoryVerification},
		{"network sentinel", ErrNetworkUnavailable, CategoryTransient},
		{"econnrefused", syscall.ECONNREFUSED, CategoryTransient},
		{"plain", fmt.Errorf("something"), CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "config", CategoryConfig.String())
	assert.Equal(t, "transient", CategoryTransient.String())
	assert.Equal(t, "store", CategoryStore.String())
	assert.Equal(t, "hardware", CategoryHardware.String())
	assert.Equal(t, "verification", CategoryVerification.String())
	assert.Equal(t, "unknown", CategoryUnknown.String())
}
