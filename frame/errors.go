package frame

import "github.com/cockroachdb/errors"

// Error categories. Failures returned by this module are marked with one of
// these, so errors.Is can be used to tell them apart while the underlying
// cause is still available through the chain.
var (
	// ErrInitialization reports a surface, swapchain or device setup failure.
	ErrInitialization = errors.New("initialization failed")

	// ErrSurfaceUnsupported reports that no format or present mode could be
	// chosen for the surface.
	ErrSurfaceUnsupported = errors.New("surface unsupported")

	// ErrSurfaceLost reports a lost surface or an out of date swapchain.
	// There is no recreation path, callers should treat it as fatal.
	ErrSurfaceLost = errors.New("surface lost")

	// ErrTimeout reports that a fence or image acquisition did not complete
	// within the configured timeout.
	ErrTimeout = errors.New("timed out")

	// ErrAllocation reports a failure to create synchronization objects or
	// allocate command buffers.
	ErrAllocation = errors.New("allocation failed")

	// ErrRecording reports a failure to reset or begin a frame's command
	// buffer. Nothing was submitted for the frame.
	ErrRecording = errors.New("command recording failed")

	// ErrSubmit reports a failed queue submission or command recording.
	ErrSubmit = errors.New("queue submit failed")

	// ErrPresent reports a failed presentation.
	ErrPresent = errors.New("present failed")

	// ErrDeviceLost reports that the logical device is gone.
	ErrDeviceLost = errors.New("device lost")

	// ErrStaleFrame is returned when a frame is submitted out of order or
	// after it was already submitted.
	ErrStaleFrame = errors.New("stale frame")

	// ErrImageIndex is returned when the chain hands out an image index
	// outside of its image set.
	ErrImageIndex = errors.New("image index out of range")
)
