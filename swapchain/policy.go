package swapchain

import (
	"cmp"
	"math"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"

	"vulkan-wrappers/frame"
)

// undefinedExtent is reported as the current extent when the surface size is
// determined by the swapchain.
const undefinedExtent = math.MaxUint32

// ChooseSurfaceFormat prefers 8-bit BGRA sRGB with a nonlinear colour space
// and falls back to the first format the surface offers.
func ChooseSurfaceFormat(available []vk.SurfaceFormat) (vk.SurfaceFormat, error) {
	if len(available) == 0 {
		return vk.SurfaceFormat{}, errors.Mark(
			errors.New("surface offers no formats"),
			frame.ErrSurfaceUnsupported,
		)
	}

	for _, format := range available {
		if format.Format == vk.FormatB8g8r8a8Srgb &&
			format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return format, nil
		}
	}

	return available[0], nil
}

// ChoosePresentMode prefers mailbox, the low latency triple buffering mode,
// and falls back to FIFO which every surface supports.
func ChoosePresentMode(available []vk.PresentMode) (vk.PresentMode, error) {
	if len(available) == 0 {
		return vk.PresentModeFifo, errors.Mark(
			errors.New("surface offers no present modes"),
			frame.ErrSurfaceUnsupported,
		)
	}

	for _, mode := range available {
		if mode == vk.PresentModeMailbox {
			return mode, nil
		}
	}

	return vk.PresentModeFifo, nil
}

// ChooseExtent uses the surface's current extent unless it is undefined, in
// which case the framebuffer size is clamped to the surface's limits.
func ChooseExtent(capabilities vk.SurfaceCapabilities, width, height uint32) vk.Extent2D {
	if capabilities.CurrentExtent.Width != undefinedExtent {
		return capabilities.CurrentExtent
	}

	return vk.Extent2D{
		Width: clamp(
			width,
			capabilities.MinImageExtent.Width,
			capabilities.MaxImageExtent.Width,
		),
		Height: clamp(
			height,
			capabilities.MinImageExtent.Height,
			capabilities.MaxImageExtent.Height,
		),
	}
}

// ImageCount asks for one image more than the minimum, limited by the
// surface's maximum when it declares one.
func ImageCount(capabilities vk.SurfaceCapabilities) uint32 {
	count := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && count > capabilities.MaxImageCount {
		count = capabilities.MaxImageCount
	}
	return count
}

func clamp[T cmp.Ordered](val, min, max T) T {
	if val < min {
		val = min
	}
	if val > max {
		val = max
	}
	return val
}
