package render

import (
	"testing"

	"github.com/cockroachdb/errors"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"

	"vulkan-wrappers/frame"
	"vulkan-wrappers/gpu"
)

type stubRing struct {
	next      frame.Frame
	open      int
	submitted []frame.Frame
	destroyed bool
}

func (r *stubRing) Acquire() (frame.Frame, bool, error) {
	if r.open == 0 {
		return frame.Frame{}, false, nil
	}
	r.open--
	f := r.next
	r.next.Number++
	return f, true, nil
}

func (r *stubRing) Submit(f frame.Frame) error {
	r.submitted = append(r.submitted, f)
	return nil
}

func (r *stubRing) FramesInFlight() int { return 2 }
func (r *stubRing) Frames() uint64 { return r.next.Number }
func (r *stubRing) Destroy() { r.destroyed = true }

type stubBackBuffers struct {
	views     []vk.ImageView
	extent    vk.Extent2D
	destroyed bool
}

func (b *stubBackBuffers) Image(i uint32) vk.Image { return vk.NullImage }
func (b *stubBackBuffers) View(i uint32) vk.ImageView { return b.views[i] }
func (b *stubBackBuffers) Views() []vk.ImageView { return b.views }
func (b *stubBackBuffers) Format() vk.Format { return vk.FormatB8g8r8a8Srgb }
func (b *stubBackBuffers) ColorSpace() vk.ColorSpace { return vk.ColorSpaceSrgbNonlinear }
func (b *stubBackBuffers) PresentMode() vk.PresentMode { return vk.PresentModeFifo }
func (b *stubBackBuffers) Extent() vk.Extent2D { return b.extent }
func (b *stubBackBuffers) Viewport() vk.Viewport { return vk.Viewport{} }
func (b *stubBackBuffers) Scissor() vk.Rect2D { return vk.Rect2D{} }
func (b *stubBackBuffers) Destroy() { b.destroyed = true }

type foreignCommandBuffer struct{}

func (foreignCommandBuffer) Reset() error { return nil }
func (foreignCommandBuffer) Begin() error { return nil }
func (foreignCommandBuffer) End() error { return nil }

func newTestRenderer(commands frame.CommandBuffer) (*Renderer, *stubRing, *stubBackBuffers) {
	logger, _ := logtest.NewNullLogger()
	sync := &stubRing{
		next: frame.Frame{Slot: 1, ImageIndex: 2, CommandBuffer: commands},
		open: 1,
	}
	chain := &stubBackBuffers{
		views:  make([]vk.ImageView, 3),
		extent: vk.Extent2D{Width: 640, Height: 480},
	}
	return &Renderer{log: logger, chain: chain, sync: sync}, sync, chain
}

func TestAcquireTranslatesFrame(t *testing.T) {
	r, sync, _ := newTestRenderer(&gpu.CommandBuffer{})

	f, ok, err := r.Acquire()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, f.Slot)
	assert.Equal(t, uint32(2), f.ImageIndex)

	require.NoError(t, r.Submit(f))
	require.Len(t, sync.submitted, 1)
	assert.Equal(t, f.inner, sync.submitted[0])

	assert.Equal(t, vk.ColorSpaceSrgbNonlinear, r.ColorSpace())
	assert.Equal(t, vk.PresentModeFifo, r.PresentMode())
	assert.Equal(t, vk.Extent2D{Width: 640, Height: 480}, r.Extent())
}

func TestAcquireReturnsFrameWithUnsupportedCommandBuffer(t *testing.T) {
	r, sync, _ := newTestRenderer(foreignCommandBuffer{})

	_, ok, err := r.Acquire()
	require.Error(t, err)
	assert.False(t, ok)
	require.Len(t, sync.submitted, 1, "the begun frame is handed back to the ring")
	assert.Equal(t, 1, sync.submitted[0].Slot)
}

func TestRunStopsWhenRingCloses(t *testing.T) {
	r, sync, chain := newTestRenderer(&gpu.CommandBuffer{})
	sync.open = 3

	var drawn []uint64
	err := r.Run(func(f Frame) error {
		drawn = append(drawn, f.Number)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1, 2}, drawn)
	assert.Len(t, sync.submitted, 3)

	r.Destroy()
	assert.True(t, sync.destroyed)
	assert.True(t, chain.destroyed)
}

func TestRunReportsDrawErrors(t *testing.T) {
	r, sync, _ := newTestRenderer(&gpu.CommandBuffer{})

	boom := errors.New("boom")
	err := r.Run(func(Frame) error { return boom })
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Len(t, sync.submitted, 1)
}
