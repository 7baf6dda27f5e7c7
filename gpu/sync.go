package gpu

import (
	vk "github.com/vulkan-go/vulkan"

	"vulkan-wrappers/frame"
)

// Fence wraps a native fence together with the device that owns it.
type Fence struct {
	device vk.Device
	handle vk.Fence
}

// Wait blocks until the fence is signaled or timeout nanoseconds pass.
func (f *Fence) Wait(timeout uint64) error {
	fences := []vk.Fence{f.handle}
	return Result(vk.WaitForFences(f.device, 1, fences, vk.True, timeout))
}

// Reset returns the fence to the unsignaled state.
func (f *Fence) Reset() error {
	return Result(vk.ResetFences(f.device, 1, []vk.Fence{f.handle}))
}

// Destroy releases the native fence.
func (f *Fence) Destroy() {
	if f.handle == vk.NullFence {
		return
	}
	vk.DestroyFence(f.device, f.handle, nil)
	f.handle = vk.NullFence
}

// Semaphore wraps a native binary semaphore.
type Semaphore struct {
	device vk.Device
	handle vk.Semaphore
}

// Handle returns the native semaphore.
func (s *Semaphore) Handle() vk.Semaphore {
	return s.handle
}

// Destroy releases the native semaphore.
func (s *Semaphore) Destroy() {
	if s.handle == vk.NullSemaphore {
		return
	}
	vk.DestroySemaphore(s.device, s.handle, nil)
	s.handle = vk.NullSemaphore
}

// CreateFence creates a fence, optionally already signaled.
func (c *Context) CreateFence(signaled bool) (frame.Fence, error) {
	fenceInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fenceInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var fence vk.Fence
	if err := Result(vk.CreateFence(c.device, &fenceInfo, nil, &fence)); err != nil {
		return nil, err
	}
	return &Fence{device: c.device, handle: fence}, nil
}

// CreateSemaphore creates a binary semaphore.
func (c *Context) CreateSemaphore() (frame.Semaphore, error) {
	semaphoreInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}

	var semaphore vk.Semaphore
	if err := Result(vk.CreateSemaphore(c.device, &semaphoreInfo, nil, &semaphore)); err != nil {
		return nil, err
	}
	return &Semaphore{device: c.device, handle: semaphore}, nil
}
