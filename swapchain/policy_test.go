package swapchain_test

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"

	"vulkan-wrappers/frame"
	"vulkan-wrappers/swapchain"
)

func TestChooseSurfaceFormat(t *testing.T) {
	srgb := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	unorm := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	rgba := vk.SurfaceFormat{Format: vk.FormatR8g8b8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}

	for idx, tc := range []struct {
		available []vk.SurfaceFormat
		want      vk.SurfaceFormat
	}{
		{[]vk.SurfaceFormat{srgb}, srgb},
		{[]vk.SurfaceFormat{unorm, rgba, srgb}, srgb},
		{[]vk.SurfaceFormat{unorm, rgba}, unorm},
		{[]vk.SurfaceFormat{rgba}, rgba},
	} {
		got, err := swapchain.ChooseSurfaceFormat(tc.available)
		require.NoError(t, err, "case %d", idx)
		assert.Equal(t, tc.want.Format, got.Format, "case %d", idx)
		assert.Equal(t, tc.want.ColorSpace, got.ColorSpace, "case %d", idx)
	}
}

func TestChooseSurfaceFormatNone(t *testing.T) {
	_, err := swapchain.ChooseSurfaceFormat(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, frame.ErrSurfaceUnsupported))
}

func TestChoosePresentMode(t *testing.T) {
	for idx, tc := range []struct {
		available []vk.PresentMode
		want      vk.PresentMode
	}{
		{[]vk.PresentMode{vk.PresentModeFifo}, vk.PresentModeFifo},
		{[]vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeMailbox}, vk.PresentModeMailbox},
		{[]vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeFifoRelaxed}, vk.PresentModeFifo},
	} {
		got, err := swapchain.ChoosePresentMode(tc.available)
		require.NoError(t, err, "case %d", idx)
		assert.Equal(t, tc.want, got, "case %d", idx)
	}

	_, err := swapchain.ChoosePresentMode(nil)
	assert.True(t, errors.Is(err, frame.ErrSurfaceUnsupported))
}

func TestChooseExtent(t *testing.T) {
	limits := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32},
		MinImageExtent: vk.Extent2D{Width: 64, Height: 64},
		MaxImageExtent: vk.Extent2D{Width: 1920, Height: 1080},
	}

	for idx, tc := range []struct {
		width, height uint32
		want          vk.Extent2D
	}{
		{1024, 768, vk.Extent2D{Width: 1024, Height: 768}},
		{4096, 2160, vk.Extent2D{Width: 1920, Height: 1080}},
		{16, 2000, vk.Extent2D{Width: 64, Height: 1080}},
	} {
		got := swapchain.ChooseExtent(limits, tc.width, tc.height)
		assert.Equal(t, tc.want, got, "case %d", idx)
	}
}

func TestChooseExtentUsesCurrentExtent(t *testing.T) {
	caps := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: 800, Height: 600},
		MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: vk.Extent2D{Width: 640, Height: 480},
	}

	got := swapchain.ChooseExtent(caps, 4096, 4096)
	assert.Equal(t, vk.Extent2D{Width: 800, Height: 600}, got)
}

func TestImageCount(t *testing.T) {
	for idx, tc := range []struct {
		min, max uint32
		want     uint32
	}{
		{2, 2, 2},
		{2, 3, 3},
		{2, 8, 3},
		{2, 0, 3},
		{3, 0, 4},
		{1, 1, 1},
	} {
		caps := vk.SurfaceCapabilities{MinImageCount: tc.min, MaxImageCount: tc.max}
		assert.Equal(t, tc.want, swapchain.ImageCount(caps), "case %d", idx)
	}
}
