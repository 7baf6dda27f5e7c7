// Package swapchain selects the presentation parameters of a surface and
// owns the swapchain created from them together with its image views.
package swapchain

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"vulkan-wrappers/frame"
	"vulkan-wrappers/gpu"
)

// Manager owns a swapchain, its images and one colour view per image. The
// swapchain is created once; out of date surfaces are reported as
// frame.ErrSurfaceLost instead of triggering recreation.
type Manager struct {
	log logrus.FieldLogger

	instance vk.Instance
	device   vk.Device
	surface  vk.Surface

	handle      vk.Swapchain
	images      []vk.Image
	views       []vk.ImageView
	format      vk.Format
	colorSpace  vk.ColorSpace
	presentMode vk.PresentMode
	extent      vk.Extent2D
}

var _ frame.Chain = (*Manager)(nil)

// New creates a swapchain for surface using the device of ctx. The Manager
// takes ownership of surface and destroys it, also when New fails. width
// and height are the framebuffer size used when the surface leaves the
// extent to the swapchain.
func New(
	ctx *gpu.Context,
	surface vk.Surface,
	width, height uint32,
	log logrus.FieldLogger,
) (*Manager, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	m := &Manager{
		log:      log,
		instance: ctx.Instance(),
		device:   ctx.Device(),
		surface:  surface,
		handle:   vk.NullSwapchain,
	}

	if err := m.create(ctx, width, height); err != nil {
		m.Destroy()
		return nil, errors.Mark(err, frame.ErrInitialization)
	}

	m.log.WithFields(logrus.Fields{
		"images":       len(m.images),
		"format":       m.format,
		"present_mode": m.presentMode,
		"width":        m.extent.Width,
		"height":       m.extent.Height,
	}).Debug("swapchain created")

	return m, nil
}

func (m *Manager) create(ctx *gpu.Context, width, height uint32) error {
	support, err := gpu.QuerySurfaceSupport(ctx.PhysicalDevice(), m.surface)
	if err != nil {
		return err
	}

	surfaceFormat, err := ChooseSurfaceFormat(support.Formats)
	if err != nil {
		return err
	}
	presentMode, err := ChoosePresentMode(support.PresentModes)
	if err != nil {
		return err
	}
	capabilities := support.Capabilities
	extent := ChooseExtent(capabilities, width, height)

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          m.surface,
		MinImageCount:    ImageCount(capabilities),
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageFormat:      surfaceFormat.Format,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}

	var swapChain vk.Swapchain
	res := vk.CreateSwapchain(m.device, &createInfo, nil, &swapChain)
	if err := gpu.Result(res); err != nil {
		return errors.Wrap(err, "failed to create swap chain")
	}
	m.handle = swapChain
	m.format = surfaceFormat.Format
	m.colorSpace = surfaceFormat.ColorSpace
	m.presentMode = presentMode
	m.extent = extent

	var imagesCount uint32
	res = vk.GetSwapchainImages(m.device, m.handle, &imagesCount, nil)
	if err := gpu.Result(res); err != nil {
		return errors.Wrap(err, "counting swap chain images")
	}

	images := make([]vk.Image, imagesCount)
	res = vk.GetSwapchainImages(m.device, m.handle, &imagesCount, images)
	if err := gpu.Result(res); err != nil {
		return errors.Wrap(err, "getting swap chain images")
	}
	m.images = images[:imagesCount]

	return m.createImageViews()
}

func (m *Manager) createImageViews() error {
	m.views = make([]vk.ImageView, 0, len(m.images))

	for i, image := range m.images {
		createInfo := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    image,
			ViewType: vk.ImageViewType2d,
			Format:   m.format,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleIdentity,
				G: vk.ComponentSwizzleIdentity,
				B: vk.ComponentSwizzleIdentity,
				A: vk.ComponentSwizzleIdentity,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}

		var imageView vk.ImageView
		res := vk.CreateImageView(m.device, &createInfo, nil, &imageView)
		if err := gpu.Result(res); err != nil {
			return errors.Wrapf(err, "failed to create image view %d", i)
		}

		m.views = append(m.views, imageView)
	}

	return nil
}

// ImageCount returns the number of swapchain images.
func (m *Manager) ImageCount() int {
	return len(m.images)
}

// AcquireNextImage returns the index of the next image available for
// rendering. signal is signaled once the presentation engine released it.
func (m *Manager) AcquireNextImage(timeout uint64, signal frame.Semaphore) (uint32, error) {
	semaphore, ok := signal.(*gpu.Semaphore)
	if !ok {
		return 0, errors.Newf("unsupported semaphore %T", signal)
	}

	var imageIndex uint32
	res := vk.AcquireNextImage(
		m.device,
		m.handle,
		timeout,
		semaphore.Handle(),
		vk.NullFence,
		&imageIndex,
	)
	if err := gpu.Result(res); err != nil {
		return 0, errors.Wrap(err, "acquiring next image")
	}
	return imageIndex, nil
}

// Present queues image for presentation on q once wait is signaled.
func (m *Manager) Present(q frame.Queue, image uint32, wait frame.Semaphore) error {
	queue, ok := q.(*gpu.Queue)
	if !ok {
		return errors.Newf("unsupported queue %T", q)
	}
	return queue.Present(m.handle, image, wait)
}

// Format returns the format of the swapchain images.
func (m *Manager) Format() vk.Format { return m.format }

// ColorSpace returns the colour space of the swapchain images.
func (m *Manager) ColorSpace() vk.ColorSpace { return m.colorSpace }

// PresentMode returns the selected present mode.
func (m *Manager) PresentMode() vk.PresentMode { return m.presentMode }

// Extent returns the size of the swapchain images.
func (m *Manager) Extent() vk.Extent2D { return m.extent }

// Viewport returns a viewport covering the whole extent.
func (m *Manager) Viewport() vk.Viewport {
	return vk.Viewport{
		X: 0, Y: 0,
		Width:    float32(m.extent.Width),
		Height:   float32(m.extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
}

// Scissor returns a scissor rectangle covering the whole extent.
func (m *Manager) Scissor() vk.Rect2D {
	return vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: m.extent,
	}
}

// Image returns the swapchain image with index i.
func (m *Manager) Image(i uint32) vk.Image {
	return m.images[i]
}

// View returns the colour view of the swapchain image with index i.
func (m *Manager) View(i uint32) vk.ImageView {
	return m.views[i]
}

// Views returns the colour views of all swapchain images.
func (m *Manager) Views() []vk.ImageView {
	return m.views
}

// Destroy releases the image views, the swapchain and the surface in that
// order. The device must not be using any of them.
func (m *Manager) Destroy() {
	// Views reference the swapchain images and the swapchain references
	// the surface, so each goes before what it was created from.
	for _, imageView := range m.views {
		vk.DestroyImageView(m.device, imageView, nil)
	}
	m.views = nil
	m.images = nil

	if m.handle != vk.NullSwapchain {
		vk.DestroySwapchain(m.device, m.handle, nil)
		m.handle = vk.NullSwapchain
	}

	if m.surface != vk.NullSurface {
		vk.DestroySurface(m.instance, m.surface, nil)
		m.surface = vk.NullSurface
	}

	m.log.Debug("swapchain released")
}
