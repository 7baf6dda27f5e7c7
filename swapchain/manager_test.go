package swapchain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	vk "github.com/vulkan-go/vulkan"
)

func TestViewportAndScissorCoverExtent(t *testing.T) {
	m := &Manager{extent: vk.Extent2D{Width: 800, Height: 600}}

	assert.Equal(t, vk.Viewport{
		X: 0, Y: 0,
		Width:    800,
		Height:   600,
		MinDepth: 0,
		MaxDepth: 1,
	}, m.Viewport())

	assert.Equal(t, vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: vk.Extent2D{Width: 800, Height: 600},
	}, m.Scissor())
}

func TestImageCountFollowsImages(t *testing.T) {
	m := &Manager{images: make([]vk.Image, 3), views: make([]vk.ImageView, 3)}

	assert.Equal(t, 3, m.ImageCount())
	assert.Len(t, m.Views(), 3)
}
