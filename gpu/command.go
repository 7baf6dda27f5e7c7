package gpu

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"

	"vulkan-wrappers/frame"
)

// CommandBuffer is a primary command buffer allocated from the context's
// pool. Commands are recorded with the native vk.Cmd* functions on Handle.
type CommandBuffer struct {
	handle vk.CommandBuffer
}

// Handle returns the native command buffer.
func (c *CommandBuffer) Handle() vk.CommandBuffer {
	return c.handle
}

// Reset discards everything recorded so far.
func (c *CommandBuffer) Reset() error {
	return Result(vk.ResetCommandBuffer(c.handle, 0))
}

// Begin starts recording for a single submission.
func (c *CommandBuffer) Begin() error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	return Result(vk.BeginCommandBuffer(c.handle, &beginInfo))
}

// End finishes recording.
func (c *CommandBuffer) End() error {
	return Result(vk.EndCommandBuffer(c.handle))
}

// AllocateCommandBuffers allocates count primary command buffers from the
// context's command pool.
func (c *Context) AllocateCommandBuffers(count int) ([]frame.CommandBuffer, error) {
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        c.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(count),
	}

	handles := make([]vk.CommandBuffer, count)
	res := vk.AllocateCommandBuffers(c.device, &allocInfo, handles)
	if err := Result(res); err != nil {
		return nil, errors.Mark(
			errors.Wrapf(err, "allocating %d command buffers", count),
			frame.ErrAllocation,
		)
	}

	buffers := make([]frame.CommandBuffer, count)
	for i, handle := range handles {
		buffers[i] = &CommandBuffer{handle: handle}
	}
	return buffers, nil
}

// FreeCommandBuffers returns buffers to the context's command pool.
func (c *Context) FreeCommandBuffers(buffers []frame.CommandBuffer) {
	handles := make([]vk.CommandBuffer, 0, len(buffers))
	for _, b := range buffers {
		if cb, ok := b.(*CommandBuffer); ok {
			handles = append(handles, cb.handle)
		}
	}
	if len(handles) == 0 {
		return
	}
	vk.FreeCommandBuffers(c.device, c.commandPool, uint32(len(handles)), handles)
}

// Queue is a device queue able to run graphics work and present.
type Queue struct {
	handle vk.Queue
}

// Submit submits one command buffer. The buffer and sync objects must have
// been created by this package.
func (q *Queue) Submit(s frame.Submission) error {
	commandBuffer, ok := s.CommandBuffer.(*CommandBuffer)
	if !ok {
		return errors.Newf("unsupported command buffer %T", s.CommandBuffer)
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{commandBuffer.handle},
	}

	if s.WaitSemaphore != nil {
		wait, ok := s.WaitSemaphore.(*Semaphore)
		if !ok {
			return errors.Newf("unsupported semaphore %T", s.WaitSemaphore)
		}
		submitInfo.WaitSemaphoreCount = 1
		submitInfo.PWaitSemaphores = []vk.Semaphore{wait.handle}
		submitInfo.PWaitDstStageMask = []vk.PipelineStageFlags{stageFlags(s.WaitStage)}
	}

	if s.SignalSemaphore != nil {
		signal, ok := s.SignalSemaphore.(*Semaphore)
		if !ok {
			return errors.Newf("unsupported semaphore %T", s.SignalSemaphore)
		}
		submitInfo.SignalSemaphoreCount = 1
		submitInfo.PSignalSemaphores = []vk.Semaphore{signal.handle}
	}

	fence := vk.NullFence
	if s.Fence != nil {
		f, ok := s.Fence.(*Fence)
		if !ok {
			return errors.Newf("unsupported fence %T", s.Fence)
		}
		fence = f.handle
	}

	res := vk.QueueSubmit(q.handle, 1, []vk.SubmitInfo{submitInfo}, fence)
	return Result(res)
}

// Present queues image of swapchain for presentation once wait is signaled.
func (q *Queue) Present(swapchain vk.Swapchain, image uint32, wait frame.Semaphore) error {
	presentInfo := vk.PresentInfo{
		SType:          vk.StructureTypePresentInfo,
		SwapchainCount: 1,
		PSwapchains:    []vk.Swapchain{swapchain},
		PImageIndices:  []uint32{image},
	}

	if wait != nil {
		semaphore, ok := wait.(*Semaphore)
		if !ok {
			return errors.Newf("unsupported semaphore %T", wait)
		}
		presentInfo.WaitSemaphoreCount = 1
		presentInfo.PWaitSemaphores = []vk.Semaphore{semaphore.handle}
	}

	return Result(vk.QueuePresent(q.handle, &presentInfo))
}

func stageFlags(s frame.Stage) vk.PipelineStageFlags {
	switch s {
	case frame.StageTopOfPipe:
		return vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
	default:
		return vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	}
}
