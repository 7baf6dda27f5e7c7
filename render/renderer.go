// Package render is the entry point for programs drawing to a window. It
// wires the swapchain and the frame synchronizer to a gpu.Context and hands
// out frames carrying native Vulkan handles.
package render

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"vulkan-wrappers/frame"
	"vulkan-wrappers/gpu"
	"vulkan-wrappers/swapchain"
)

// Window is the window the renderer presents to.
type Window interface {
	frame.Window

	// FramebufferSize returns the drawable size in pixels.
	FramebufferSize() (uint32, uint32)
}

// Config tunes the renderer.
type Config struct {
	// FramesInFlight is the number of frames the CPU may record ahead of the
	// GPU. Zero selects frame.DefaultFramesInFlight.
	FramesInFlight int

	// FenceTimeout bounds every fence and image wait. Zero waits forever.
	FenceTimeout time.Duration

	Log logrus.Ext1FieldLogger
}

// Frame is a frame being recorded.
type Frame struct {
	// Number counts acquired frames since the renderer was created.
	Number uint64

	// Slot is the in-flight slot the frame is recorded on.
	Slot int

	// ImageIndex is the index of BackBuffer in the swapchain.
	ImageIndex uint32

	// CommandBuffer is already begun. Draw commands are recorded into it
	// with the vk.Cmd* functions.
	CommandBuffer vk.CommandBuffer

	BackBuffer     vk.Image
	BackBufferView vk.ImageView

	inner frame.Frame
}

// ring is the frame synchronizer as seen by the renderer.
type ring interface {
	frame.Source[frame.Frame]
	FramesInFlight() int
	Frames() uint64
	Destroy()
}

// backBuffers is the swapchain as seen by the renderer.
type backBuffers interface {
	Image(i uint32) vk.Image
	View(i uint32) vk.ImageView
	Views() []vk.ImageView
	Format() vk.Format
	ColorSpace() vk.ColorSpace
	PresentMode() vk.PresentMode
	Extent() vk.Extent2D
	Viewport() vk.Viewport
	Scissor() vk.Rect2D
	Destroy()
}

var (
	_ ring        = (*frame.Synchronizer)(nil)
	_ backBuffers = (*swapchain.Manager)(nil)
)

// Renderer presents frames to a window.
type Renderer struct {
	log   logrus.Ext1FieldLogger
	chain backBuffers
	sync  ring
}

// New creates the swapchain for ctx's surface and the frame ring on top of
// it. The swapchain takes ownership of the surface.
func New(ctx *gpu.Context, window Window, cfg Config) (*Renderer, error) {
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	width, height := window.FramebufferSize()
	chain, err := swapchain.New(ctx, ctx.Surface(), width, height, log)
	if err != nil {
		return nil, errors.Wrap(err, "creating swapchain")
	}

	opts := []frame.Option{
		frame.WithLogger(log),
		frame.WithFenceTimeout(cfg.FenceTimeout),
	}
	if cfg.FramesInFlight != 0 {
		opts = append(opts, frame.WithFramesInFlight(cfg.FramesInFlight))
	}

	sync, err := frame.New(ctx, chain, window, opts...)
	if err != nil {
		chain.Destroy()
		return nil, errors.Wrap(err, "creating frame synchronizer")
	}

	return &Renderer{
		log:   log,
		chain: chain,
		sync:  sync,
	}, nil
}

// Acquire waits for the next frame slot and image. It returns false without
// error when the window was asked to close.
func (r *Renderer) Acquire() (Frame, bool, error) {
	f, ok, err := r.sync.Acquire()
	if err != nil || !ok {
		return Frame{}, ok, err
	}

	commandBuffer, ok := f.CommandBuffer.(*gpu.CommandBuffer)
	if !ok {
		err := errors.Newf("unsupported command buffer %T", f.CommandBuffer)
		// The slot is recording, hand the empty frame back so it does not
		// stay stuck there.
		if submitErr := r.sync.Submit(f); submitErr != nil {
			err = errors.CombineErrors(err, errors.Wrap(submitErr, "returning frame"))
		}
		return Frame{}, false, err
	}

	return Frame{
		Number:         f.Number,
		Slot:           f.Slot,
		ImageIndex:     f.ImageIndex,
		CommandBuffer:  commandBuffer.Handle(),
		BackBuffer:     r.chain.Image(f.ImageIndex),
		BackBufferView: r.chain.View(f.ImageIndex),
		inner:          f,
	}, true, nil
}

// Submit submits the recorded frame and presents its image.
func (r *Renderer) Submit(f Frame) error {
	return r.sync.Submit(f.inner)
}

// Run acquires, draws and submits frames until the window is closed or an
// error occurs.
func (r *Renderer) Run(draw func(Frame) error) error {
	return frame.Run[Frame](r, draw)
}

// Format returns the format of the back buffers.
func (r *Renderer) Format() vk.Format { return r.chain.Format() }

// ColorSpace returns the colour space of the back buffers.
func (r *Renderer) ColorSpace() vk.ColorSpace { return r.chain.ColorSpace() }

// PresentMode returns the present mode of the swapchain.
func (r *Renderer) PresentMode() vk.PresentMode { return r.chain.PresentMode() }

// Extent returns the size of the back buffers.
func (r *Renderer) Extent() vk.Extent2D { return r.chain.Extent() }

// Viewport returns a viewport covering the back buffers.
func (r *Renderer) Viewport() vk.Viewport { return r.chain.Viewport() }

// Scissor returns a scissor covering the back buffers.
func (r *Renderer) Scissor() vk.Rect2D { return r.chain.Scissor() }

// Views returns the views of all back buffers, indexed like ImageIndex.
func (r *Renderer) Views() []vk.ImageView { return r.chain.Views() }

// FramesInFlight returns the size of the frame ring.
func (r *Renderer) FramesInFlight() int { return r.sync.FramesInFlight() }

// Frames returns how many frames were acquired so far.
func (r *Renderer) Frames() uint64 { return r.sync.Frames() }

// Destroy waits for the GPU and releases the frame ring, the swapchain and
// the surface.
func (r *Renderer) Destroy() {
	r.sync.Destroy()
	r.chain.Destroy()
	r.log.WithField("frames", r.sync.Frames()).Debug("renderer released")
}
