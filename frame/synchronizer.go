// Package frame drives the per-frame acquire, record, submit and present
// cycle over a fixed ring of in-flight slots.
//
// Every slot owns a fence that the GPU signals when the slot's last
// submission completes, an image-acquired and a queue-complete semaphore and
// one command buffer. Acquire blocks on the slot's fence, so the CPU never
// records more than the configured number of frames ahead of the GPU.
package frame

import (
	"math"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
)

// DefaultFramesInFlight keeps latency low while still overlapping CPU
// recording with GPU execution.
const DefaultFramesInFlight = 2

// Unbounded is the timeout used when none is configured.
const Unbounded uint64 = math.MaxUint64

// State is the position of a slot in the frame cycle.
type State int

// Slot states, in the order a slot moves through them every frame.
const (
	StateIdle State = iota
	StateFenceWait
	StateAcquiring
	StateRecording
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFenceWait:
		return "fence-wait"
	case StateAcquiring:
		return "acquiring"
	case StateRecording:
		return "recording"
	case StateSubmitted:
		return "submitted"
	}
	return "unknown"
}

// Frame is one renderable swapchain image for the current cycle. It is only
// valid until it is handed back to Submit.
type Frame struct {
	// Number counts acquired frames since the synchronizer was created.
	Number uint64

	// Slot is the in-flight slot the frame was recorded on.
	Slot int

	// ImageIndex selects the backbuffer in the chain's image set.
	ImageIndex uint32

	// CommandBuffer is in the recording state while the frame is held.
	CommandBuffer CommandBuffer
}

type slot struct {
	state State

	inFlight      Fence
	imageAcquired Semaphore
	queueComplete Semaphore
	commands      CommandBuffer

	// rearmed is set when the fence was reset but no image was acquired
	// for it, so nothing will ever signal it.
	rearmed bool

	frame uint64
	image uint32
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithFramesInFlight sets the size of the slot ring.
func WithFramesInFlight(n int) Option {
	return func(s *Synchronizer) {
		s.framesInFlight = n
	}
}

// WithFenceTimeout bounds how long Acquire waits for a slot's fence and for
// the next image. Zero keeps the wait unbounded.
func WithFenceTimeout(d time.Duration) Option {
	return func(s *Synchronizer) {
		if d <= 0 {
			s.timeout = Unbounded
			return
		}
		s.timeout = uint64(d.Nanoseconds())
	}
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l logrus.Ext1FieldLogger) Option {
	return func(s *Synchronizer) {
		s.log = l
	}
}

// Synchronizer owns the in-flight slot ring and implements the acquire,
// submit and present protocol. It is not safe for concurrent use, a single
// thread is expected to drive it.
type Synchronizer struct {
	device Device
	chain  Chain
	window Window
	log    logrus.Ext1FieldLogger

	framesInFlight int
	timeout        uint64

	slots     []slot
	buffers   []CommandBuffer
	acquireAt int
	submitAt  int
	frames    uint64
	destroyed bool
}

// New creates the slot ring: per slot a signaled fence, two semaphores and
// one command buffer from the device's pool.
func New(device Device, chain Chain, window Window, opts ...Option) (*Synchronizer, error) {
	s := &Synchronizer{
		device:         device,
		chain:          chain,
		window:         window,
		log:            logrus.StandardLogger(),
		framesInFlight: DefaultFramesInFlight,
		timeout:        Unbounded,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.framesInFlight < 1 {
		return nil, errors.Mark(
			errors.Newf("frames in flight must be at least 1, got %d", s.framesInFlight),
			ErrInitialization,
		)
	}

	if err := s.createSlots(); err != nil {
		s.release()
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"frames_in_flight": s.framesInFlight,
		"images":           chain.ImageCount(),
	}).Debug("frame ring created")

	return s, nil
}

func (s *Synchronizer) createSlots() error {
	s.slots = make([]slot, s.framesInFlight)

	buffers, err := s.device.AllocateCommandBuffers(s.framesInFlight)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "allocating command buffers"), ErrAllocation)
	}
	if len(buffers) != s.framesInFlight {
		s.device.FreeCommandBuffers(buffers)
		return errors.Mark(
			errors.Newf("got %d command buffers, want %d", len(buffers), s.framesInFlight),
			ErrAllocation,
		)
	}
	s.buffers = buffers

	for i := range s.slots {
		sl := &s.slots[i]
		sl.commands = buffers[i]

		if sl.imageAcquired, err = s.device.CreateSemaphore(); err != nil {
			return errors.Mark(errors.Wrapf(err, "creating image-acquired semaphore %d", i), ErrAllocation)
		}
		if sl.queueComplete, err = s.device.CreateSemaphore(); err != nil {
			return errors.Mark(errors.Wrapf(err, "creating queue-complete semaphore %d", i), ErrAllocation)
		}

		// Signaled, so the first wait on every slot falls through.
		if sl.inFlight, err = s.device.CreateFence(true); err != nil {
			return errors.Mark(errors.Wrapf(err, "creating in-flight fence %d", i), ErrAllocation)
		}
	}

	return nil
}

// Acquire blocks until the next slot's previous GPU work is complete,
// acquires the next presentable image and begins recording on the slot's
// command buffer. When the window asks to close it returns false and no
// error.
func (s *Synchronizer) Acquire() (Frame, bool, error) {
	if s.destroyed {
		return Frame{}, false, errors.New("acquire on destroyed synchronizer")
	}

	if s.window.ShouldClose() {
		s.log.Debug("window should close, no frame acquired")
		return Frame{}, false, nil
	}
	s.window.PollEvents()

	index := s.acquireAt
	sl := &s.slots[index]

	if !sl.rearmed {
		sl.state = StateFenceWait
		if err := sl.inFlight.Wait(s.timeout); err != nil {
			return Frame{}, false, errors.Wrapf(err, "waiting for slot %d fence", index)
		}

		// From here on the next signal of this fence means the slot's new
		// work is done.
		if err := sl.inFlight.Reset(); err != nil {
			return Frame{}, false, errors.Wrapf(err, "resetting slot %d fence", index)
		}
	}

	sl.state = StateAcquiring
	image, err := s.chain.AcquireNextImage(s.timeout, sl.imageAcquired)
	if err != nil {
		sl.rearmed = true
		return Frame{}, false, errors.Wrapf(err, "acquiring image for slot %d", index)
	}
	sl.rearmed = false
	if count := s.chain.ImageCount(); int(image) >= count {
		return Frame{}, false, errors.Mark(
			errors.Newf("image %d acquired, chain has %d images", image, count),
			ErrImageIndex,
		)
	}

	if err := sl.commands.Reset(); err != nil {
		return Frame{}, false, errors.Mark(errors.Wrapf(err, "resetting slot %d commands", index), ErrRecording)
	}
	if err := sl.commands.Begin(); err != nil {
		return Frame{}, false, errors.Mark(errors.Wrapf(err, "beginning slot %d commands", index), ErrRecording)
	}

	sl.state = StateRecording
	sl.frame = s.frames
	sl.image = image

	f := Frame{
		Number:        s.frames,
		Slot:          index,
		ImageIndex:    image,
		CommandBuffer: sl.commands,
	}

	s.frames++
	s.acquireAt = (s.acquireAt + 1) % s.framesInFlight

	s.log.WithFields(logrus.Fields{
		"frame": f.Number,
		"slot":  f.Slot,
		"image": f.ImageIndex,
	}).Trace("frame acquired")

	return f, true, nil
}

// Submit ends recording, submits the frame's commands to the graphics queue
// and presents its image once the GPU is done writing it.
func (s *Synchronizer) Submit(f Frame) error {
	if s.destroyed {
		return errors.New("submit on destroyed synchronizer")
	}

	if f.Slot < 0 || f.Slot >= len(s.slots) {
		return errors.Mark(errors.Newf("frame %d has no slot %d", f.Number, f.Slot), ErrStaleFrame)
	}
	sl := &s.slots[f.Slot]
	if f.Slot != s.submitAt || sl.state != StateRecording || sl.frame != f.Number {
		return errors.Mark(
			errors.Newf("frame %d on slot %d (%s), next submit slot is %d", f.Number, f.Slot, sl.state, s.submitAt),
			ErrStaleFrame,
		)
	}

	if err := sl.commands.End(); err != nil {
		return errors.Mark(errors.Wrapf(err, "ending frame %d commands", f.Number), ErrSubmit)
	}

	err := s.device.GraphicsQueue().Submit(Submission{
		CommandBuffer:   sl.commands,
		WaitSemaphore:   sl.imageAcquired,
		WaitStage:       StageColorAttachmentOutput,
		SignalSemaphore: sl.queueComplete,
		Fence:           sl.inFlight,
	})
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "submitting frame %d", f.Number), ErrSubmit)
	}
	sl.state = StateSubmitted

	if err := s.chain.Present(s.device.PresentQueue(), sl.image, sl.queueComplete); err != nil {
		return errors.Mark(errors.Wrapf(err, "presenting frame %d", f.Number), ErrPresent)
	}

	s.submitAt = (s.submitAt + 1) % s.framesInFlight

	s.log.WithFields(logrus.Fields{
		"frame": f.Number,
		"slot":  f.Slot,
	}).Trace("frame submitted")

	return nil
}

// FramesInFlight returns the size of the slot ring.
func (s *Synchronizer) FramesInFlight() int {
	return s.framesInFlight
}

// Slot returns the slot the next Submit is expected on.
func (s *Synchronizer) Slot() int {
	return s.submitAt
}

// State returns the state of slot i.
func (s *Synchronizer) State(i int) State {
	return s.slots[i].state
}

// Frames returns how many frames have been acquired.
func (s *Synchronizer) Frames() uint64 {
	return s.frames
}

// Destroy waits for the device to go idle and releases the slot ring.
func (s *Synchronizer) Destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true

	if err := s.device.WaitIdle(); err != nil {
		s.log.WithError(err).Warn("waiting for device idle before releasing frame ring")
	}
	s.release()

	s.log.WithField("frames", s.frames).Debug("frame ring released")
}

func (s *Synchronizer) release() {
	for i := range s.slots {
		sl := &s.slots[i]
		if sl.inFlight != nil {
			sl.inFlight.Destroy()
			sl.inFlight = nil
		}
		if sl.queueComplete != nil {
			sl.queueComplete.Destroy()
			sl.queueComplete = nil
		}
		if sl.imageAcquired != nil {
			sl.imageAcquired.Destroy()
			sl.imageAcquired = nil
		}
		sl.commands = nil
		sl.rearmed = false
		sl.state = StateIdle
	}

	if s.buffers != nil {
		s.device.FreeCommandBuffers(s.buffers)
		s.buffers = nil
	}
}
