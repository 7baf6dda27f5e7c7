package main

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"

	"vulkan-wrappers/gpu"
)

func (a *ClearScreenApp) createRenderPass() error {
	colorAttachment := vk.AttachmentDescription{
		Format:         a.renderer.Format(),
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}

	colorAttachmentRef := vk.AttachmentReference{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    []vk.AttachmentReference{colorAttachmentRef},
	}

	// The image acquired semaphore is waited on at the colour attachment
	// output stage, so the layout transition has to wait for it as well.
	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}

	renderPassInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{colorAttachment},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}

	var renderPass vk.RenderPass
	res := vk.CreateRenderPass(a.ctx.Device(), &renderPassInfo, nil, &renderPass)
	if err := gpu.Result(res); err != nil {
		return errors.Wrap(err, "failed to create render pass")
	}
	a.renderPass = renderPass

	return nil
}

func (a *ClearScreenApp) createFramebuffers() error {
	views := a.renderer.Views()
	extent := a.renderer.Extent()
	a.framebuffers = make([]vk.Framebuffer, 0, len(views))

	for i, view := range views {
		frameBufferInfo := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      a.renderPass,
			AttachmentCount: 1,
			PAttachments:    []vk.ImageView{view},
			Width:           extent.Width,
			Height:          extent.Height,
			Layers:          1,
		}

		var frameBuffer vk.Framebuffer
		res := vk.CreateFramebuffer(a.ctx.Device(), &frameBufferInfo, nil, &frameBuffer)
		if err := gpu.Result(res); err != nil {
			return errors.Wrapf(err, "failed to create frame buffer %d", i)
		}

		a.framebuffers = append(a.framebuffers, frameBuffer)
	}

	return nil
}

func (a *ClearScreenApp) destroyFramebuffers() {
	for _, frameBuffer := range a.framebuffers {
		vk.DestroyFramebuffer(a.ctx.Device(), frameBuffer, nil)
	}
	a.framebuffers = nil
}
