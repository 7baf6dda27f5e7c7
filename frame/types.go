package frame

// Releaser is implemented by every GPU object that owns native resources.
type Releaser interface {
	Destroy()
}

// Fence is a CPU observable GPU completion signal.
type Fence interface {
	Releaser

	// Wait blocks until the fence is signaled or timeout nanoseconds pass.
	Wait(timeout uint64) error

	// Reset puts the fence back into the unsignaled state.
	Reset() error
}

// Semaphore is a GPU only ordering signal between queue operations.
type Semaphore interface {
	Releaser
}

// CommandBuffer is a primary command buffer borrowed from the device's
// command pool.
type CommandBuffer interface {
	Reset() error

	// Begin starts recording for a single submission.
	Begin() error

	End() error
}

// Stage is the pipeline stage at which a submission waits on its semaphore.
type Stage int

// Supported wait stages.
const (
	// StageColorAttachmentOutput gates only colour output, earlier stages do
	// not touch the backbuffer.
	StageColorAttachmentOutput Stage = iota
	StageTopOfPipe
)

// Submission describes one batch of work for a Queue.
type Submission struct {
	CommandBuffer CommandBuffer

	// WaitSemaphore is waited on at WaitStage before the batch executes.
	WaitSemaphore Semaphore
	WaitStage     Stage

	// SignalSemaphore is signaled once the batch completes on the GPU.
	SignalSemaphore Semaphore

	// Fence is signaled once the batch has fully completed.
	Fence Fence
}

// Queue accepts command work.
type Queue interface {
	Submit(s Submission) error
}

// Chain is the presentable image chain of a surface.
type Chain interface {
	// ImageCount returns the number of images in the chain. It does not
	// change during the chain's lifetime.
	ImageCount() int

	// AcquireNextImage returns the index of the next writable image. signal
	// is signaled once the image is safe to write to.
	AcquireNextImage(timeout uint64, signal Semaphore) (uint32, error)

	// Present queues image for presentation on q after wait is signaled.
	Present(q Queue, image uint32, wait Semaphore) error
}

// Device is the execution context the synchronizer allocates from.
type Device interface {
	CreateFence(signaled bool) (Fence, error)
	CreateSemaphore() (Semaphore, error)
	AllocateCommandBuffers(count int) ([]CommandBuffer, error)
	FreeCommandBuffers(buffers []CommandBuffer)

	GraphicsQueue() Queue
	PresentQueue() Queue

	// WaitIdle blocks until all queued work has completed.
	WaitIdle() error
}

// Window reports the platform's close request and pumps its events.
type Window interface {
	ShouldClose() bool
	PollEvents()
}
