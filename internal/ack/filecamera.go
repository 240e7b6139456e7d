package ack

import (
	"context"
	"os"
	"sync"

	"github.com/hojoonlee/pilltick/internal/errors"
	"github.com/hojoonlee/pilltick/internal/logging"
)

// FileCamera is a Camera that captures from an image file. The daemon has no
// capture device of its own; the evidence photo arrives as a file path on the
// take request, and SetPath points the camera at it before the session
// acquires.
type FileCamera struct {
	mu   sync.Mutex
	path string
}

// SetPath points the camera at the next evidence image.
func (c *FileCamera) SetPath(path string) {
	c.mu.Lock()
	c.path = path
	c.mu.Unlock()
}

// Acquire grants a handle on the current evidence image. It fails when no
// image was provided or the file cannot be read.
func (c *FileCamera) Acquire(ctx context.Context) (CameraHandle, error) {
	c.mu.Lock()
	path := c.path
	c.mu.Unlock()

	if path == "" {
		return nil, errors.NewHardwareError("camera", "no evidence image provided", errors.ErrCameraUnavailable)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errors.NewHardwareError("camera", "cannot read evidence image", err)
	}

	logging.DebugLog("evidence image acquired", "path", path)
	return &fileHandle{path: path}, nil
}

type fileHandle struct {
	path string

	mu       sync.Mutex
	released bool
}

// Capture reads the evidence image.
func (h *fileHandle) Capture(ctx context.Context) ([]byte, error) {
	h.mu.Lock()
	released := h.released
	h.mu.Unlock()
	if released {
		return nil, errors.NewHardwareError("camera", "capture after release", nil)
	}

	frame, err := os.ReadFile(h.path)
	if err != nil {
		return nil, errors.NewHardwareError("camera", "failed to read evidence image", err)
	}
	if len(frame) == 0 {
		return nil, errors.NewHardwareError("camera", "evidence image is empty", nil)
	}
	return frame, nil
}

// Release is idempotent; the file stays where the user put it.
func (h *fileHandle) Release() {
	h.mu.Lock()
	h.released = true
	h.mu.Unlock()
}
