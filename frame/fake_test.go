package frame_test

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"vulkan-wrappers/frame"
)

// event is one call observed by the simulated GPU.
type event struct {
	kind   string
	image  uint32
	wait   int
	signal int
	fence  int
	stage  frame.Stage
	buffer int
}

// fakeGPU simulates a device with a single graphics+present queue. In
// automatic mode a submission's fence is signaled as soon as it is
// submitted, in manual mode it stays pending until complete is called.
type fakeGPU struct {
	mu sync.Mutex

	manual  bool
	nextID  int
	events  []event
	pending []*fakeFence

	fences     []*fakeFence
	semaphores []*fakeSemaphore
	buffers    []*fakeCommandBuffer
	freed      int
	waitIdles  int

	failSemaphoreAt int
	submitErr       error

	queue *fakeQueue
}

func newFakeGPU(manual bool) *fakeGPU {
	g := &fakeGPU{manual: manual, failSemaphoreAt: -1}
	g.queue = &fakeQueue{gpu: g}
	return g
}

func (g *fakeGPU) id() int {
	g.nextID++
	return g.nextID
}

func (g *fakeGPU) record(e event) {
	g.events = append(g.events, e)
}

func (g *fakeGPU) CreateFence(signaled bool) (frame.Fence, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	f := &fakeFence{gpu: g, id: g.id(), done: make(chan struct{})}
	if signaled {
		f.signaled = true
		close(f.done)
	}
	g.fences = append(g.fences, f)
	return f, nil
}

func (g *fakeGPU) CreateSemaphore() (frame.Semaphore, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failSemaphoreAt == len(g.semaphores) {
		return nil, errors.New("out of device memory")
	}
	s := &fakeSemaphore{id: g.id()}
	g.semaphores = append(g.semaphores, s)
	return s, nil
}

func (g *fakeGPU) AllocateCommandBuffers(count int) ([]frame.CommandBuffer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	buffers := make([]frame.CommandBuffer, count)
	for i := range buffers {
		cb := &fakeCommandBuffer{id: g.id()}
		g.buffers = append(g.buffers, cb)
		buffers[i] = cb
	}
	return buffers, nil
}

func (g *fakeGPU) FreeCommandBuffers(buffers []frame.CommandBuffer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.freed += len(buffers)
}

func (g *fakeGPU) GraphicsQueue() frame.Queue { return g.queue }

func (g *fakeGPU) PresentQueue() frame.Queue { return g.queue }

func (g *fakeGPU) WaitIdle() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.waitIdles++
	for _, f := range g.pending {
		f.signal()
	}
	g.pending = nil
	return nil
}

// complete finishes the oldest pending submission.
func (g *fakeGPU) complete() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.pending) == 0 {
		return
	}
	g.pending[0].signal()
	g.pending = g.pending[1:]
}

func (g *fakeGPU) outstanding() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}

func (g *fakeGPU) eventsOf(kind string) []event {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []event
	for _, e := range g.events {
		if e.kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type fakeFence struct {
	gpu       *fakeGPU
	id        int
	signaled  bool
	done      chan struct{}
	destroyed bool
}

// signal must be called with the gpu lock held.
func (f *fakeFence) signal() {
	if !f.signaled {
		f.signaled = true
		close(f.done)
	}
}

func (f *fakeFence) Wait(timeout uint64) error {
	f.gpu.mu.Lock()
	done := f.done
	f.gpu.mu.Unlock()

	var expired <-chan time.Time
	if timeout != frame.Unbounded {
		expired = time.After(time.Duration(timeout))
	}

	select {
	case <-done:
		return nil
	case <-expired:
		return errors.Mark(errors.Newf("fence %d not signaled", f.id), frame.ErrTimeout)
	}
}

func (f *fakeFence) Reset() error {
	f.gpu.mu.Lock()
	defer f.gpu.mu.Unlock()

	if f.signaled {
		f.signaled = false
		f.done = make(chan struct{})
	}
	return nil
}

func (f *fakeFence) Destroy() { f.destroyed = true }

type fakeSemaphore struct {
	id        int
	destroyed bool
}

func (s *fakeSemaphore) Destroy() { s.destroyed = true }

type fakeCommandBuffer struct {
	id        int
	recording bool
	resets    int
	beginErr  error
}

func (c *fakeCommandBuffer) Reset() error {
	c.resets++
	c.recording = false
	return nil
}

func (c *fakeCommandBuffer) Begin() error {
	if c.beginErr != nil {
		return c.beginErr
	}
	if c.recording {
		return errors.New("already recording")
	}
	c.recording = true
	return nil
}

func (c *fakeCommandBuffer) End() error {
	if !c.recording {
		return errors.New("not recording")
	}
	c.recording = false
	return nil
}

type fakeQueue struct {
	gpu *fakeGPU
}

func (q *fakeQueue) Submit(s frame.Submission) error {
	g := q.gpu
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.submitErr != nil {
		return g.submitErr
	}

	f := s.Fence.(*fakeFence)
	g.record(event{
		kind:   "submit",
		wait:   s.WaitSemaphore.(*fakeSemaphore).id,
		signal: s.SignalSemaphore.(*fakeSemaphore).id,
		fence:  f.id,
		stage:  s.WaitStage,
		buffer: s.CommandBuffer.(*fakeCommandBuffer).id,
	})

	if g.manual {
		g.pending = append(g.pending, f)
	} else {
		f.signal()
	}
	return nil
}

// fakeChain hands out images round robin unless next is set.
type fakeChain struct {
	gpu    *fakeGPU
	images int
	cursor uint32

	next       *uint32
	acquireErr error
	presentErr error
}

func (c *fakeChain) ImageCount() int { return c.images }

func (c *fakeChain) AcquireNextImage(timeout uint64, signal frame.Semaphore) (uint32, error) {
	if c.acquireErr != nil {
		return 0, c.acquireErr
	}

	image := c.cursor
	if c.next != nil {
		image = *c.next
	}
	c.cursor = (c.cursor + 1) % uint32(c.images)

	c.gpu.mu.Lock()
	c.gpu.record(event{kind: "acquire", image: image, signal: signal.(*fakeSemaphore).id})
	c.gpu.mu.Unlock()
	return image, nil
}

func (c *fakeChain) Present(q frame.Queue, image uint32, wait frame.Semaphore) error {
	if c.presentErr != nil {
		return c.presentErr
	}

	c.gpu.mu.Lock()
	c.gpu.record(event{kind: "present", image: image, wait: wait.(*fakeSemaphore).id})
	c.gpu.mu.Unlock()
	return nil
}

// fakeWindow reports should-close after openFor polls.
type fakeWindow struct {
	openFor int
	checks  int
	polls   int
}

func (w *fakeWindow) ShouldClose() bool {
	w.checks++
	return w.checks > w.openFor
}

func (w *fakeWindow) PollEvents() { w.polls++ }
