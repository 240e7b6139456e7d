// Package ack runs the alarm acknowledgment flow: an alarm keeps sounding
// until the user proves the dose with camera evidence, snoozes it, or the
// snooze budget runs out.
package ack

import (
	"context"
	"sync"

	"github.com/hojoonlee/pilltick/internal/errors"
	"github.com/hojoonlee/pilltick/internal/logging"
)

// Camera grants scoped access to the capture device. Acquire and Release
// are strictly paired; a session that acquired the camera owns it until it
// releases, and releasing twice is a no-op.
type Camera interface {
	Acquire(ctx context.Context) (CameraHandle, error)
}

// CameraHandle is a live camera acquisition.
type CameraHandle interface {
	// Capture grabs one evidence frame as JPEG bytes.
	Capture(ctx context.Context) ([]byte, error)
	// Release returns the device. Idempotent.
	Release()
}

// CountingCamera is an in-memory Camera that tracks acquisitions so the
// acquire/release pairing can be observed. It doubles as the camera for
// deployments without a real capture device: Capture yields the seeded
// frame.
type CountingCamera struct {
	// Frame is what Capture returns.
	Frame []byte
	// AcquireErr makes Acquire fail.
	AcquireErr error
	// CaptureErr makes Capture fail.
	CaptureErr error

	mu       sync.Mutex
	acquired int
	released int
}

// Acquire grants a handle, or fails with the seeded error.
func (c *CountingCamera) Acquire(ctx context.Context) (CameraHandle, error) {
	if c.AcquireErr != nil {
		return nil, errors.NewHardwareError("camera", "failed to acquire camera", c.AcquireErr)
	}

	c.mu.Lock()
	c.acquired++
	c.mu.Unlock()

	logging.DebugLog("camera acquired")
	return &countingHandle{camera: c}, nil
}

// Acquired returns how many times the camera was acquired.
func (c *CountingCamera) Acquired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acquired
}

// Released returns how many times a handle was released.
func (c *CountingCamera) Released() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.released
}

// Balanced reports whether every acquisition has been released.
func (c *CountingCamera) Balanced() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acquired == c.released
}

type countingHandle struct {
	camera   *CountingCamera
	released bool
	mu       sync.Mutex
}

func (h *countingHandle) Capture(ctx context.Context) ([]byte, error) {
	if h.camera.CaptureErr != nil {
		return nil, errors.NewHardwareError("camera", "failed to capture frame", h.camera.CaptureErr)
	}
	return h.camera.Frame, nil
}

func (h *countingHandle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return
	}
	h.released = true

	h.camera.mu.Lock()
	h.camera.released++
	h.camera.mu.Unlock()

	logging.DebugLog("camera released")
}
