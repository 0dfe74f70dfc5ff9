package lumen

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode reports malformed image bytes or an unusable pixel buffer.
	// The caches and the resource table are left unchanged.
	ErrDecode = errors.New("lumen: resource decode failure")
	// ErrInvalidSize reports a zero or negative resource dimension.
	ErrInvalidSize = errors.New("lumen: invalid resource size")
	// ErrDeviceUnavailable reports that the surface cannot be acquired this
	// tick, typically because it was resized. Call Renderer.Configure and
	// retry on the next tick.
	ErrDeviceUnavailable = errors.New("lumen: device unavailable, surface needs reconfiguration")
	// ErrDeviceLost reports that the surface's device context is gone.
	// Recreate the Renderer.
	ErrDeviceLost = errors.New("lumen: device lost")
	// ErrStaleHandle reports a handle whose resource was released or replaced.
	ErrStaleHandle = errors.New("lumen: stale resource handle")
	// ErrProtocol is matched by every *ProtocolError.
	ErrProtocol = errors.New("lumen: frame protocol violation")
)

// ProtocolError describes a misuse of the frame protocol, such as drawing
// into an ended frame or opening two frames at once. These are programmer
// errors: draw calls panic with a *ProtocolError instead of returning it.
type ProtocolError struct {
	Op     string
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("lumen: %s: %s", e.Op, e.Reason)
}

// Is makes errors.Is(err, ErrProtocol) true for every ProtocolError.
func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}

func protocolViolation(op, reason string) *ProtocolError {
	return &ProtocolError{Op: op, Reason: reason}
}
