package main

import (
	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"vulkan-wrappers/config"
	"vulkan-wrappers/gpu"
	"vulkan-wrappers/platform"
	"vulkan-wrappers/render"
)

// ClearScreenApp clears the window with an animated colour.
type ClearScreenApp struct {
	cfg config.Config
	log *log.Entry

	window   *platform.Window
	ctx      *gpu.Context
	renderer *render.Renderer

	renderPass   vk.RenderPass
	framebuffers []vk.Framebuffer
}

// Run runs the program until the window is closed.
func (a *ClearScreenApp) Run() error {
	if err := a.initWindow(); err != nil {
		return errors.Wrap(err, "initWindow")
	}
	defer a.window.Close()

	if err := a.initVulkan(); err != nil {
		a.cleanVulkan()
		return errors.Wrap(err, "initVulkan")
	}
	defer a.cleanVulkan()

	if err := a.mainLoop(); err != nil {
		return errors.Wrap(err, "mainLoop")
	}

	return nil
}

func (a *ClearScreenApp) initWindow() error {
	window, err := platform.Open(a.cfg.Title, a.cfg.Width, a.cfg.Height, a.log)
	if err != nil {
		return err
	}

	a.window = window
	return nil
}

func (a *ClearScreenApp) initVulkan() error {
	ctx, err := gpu.NewContext(gpu.Config{
		AppName:            a.cfg.Title,
		Validation:         a.cfg.Validation,
		InstanceExtensions: a.window.RequiredInstanceExtensions(),
		ProcAddr:           a.window.ProcAddr(),
		Log:                a.log,
	}, a.window.CreateSurface)
	if err != nil {
		return errors.Wrap(err, "creating context")
	}
	a.ctx = ctx

	renderer, err := render.New(ctx, a.window, render.Config{
		FramesInFlight: a.cfg.FramesInFlight,
		FenceTimeout:   a.cfg.FenceTimeout,
		Log:            a.log,
	})
	if err != nil {
		return errors.Wrap(err, "creating renderer")
	}
	a.renderer = renderer

	if err := a.createRenderPass(); err != nil {
		return errors.Wrap(err, "createRenderPass")
	}

	if err := a.createFramebuffers(); err != nil {
		return errors.Wrap(err, "createFramebuffers")
	}

	return nil
}

func (a *ClearScreenApp) mainLoop() error {
	a.log.WithFields(log.Fields{
		"frames_in_flight": a.renderer.FramesInFlight(),
		"queue_family":     a.ctx.QueueFamily(),
		"present_mode":     a.renderer.PresentMode(),
		"color_space":      a.renderer.ColorSpace(),
		"width":            a.renderer.Extent().Width,
		"height":           a.renderer.Extent().Height,
	}).Info("main loop")

	if err := a.renderer.Run(a.draw); err != nil {
		return err
	}

	a.log.WithField("frames", a.renderer.Frames()).Info("window closed")
	return nil
}

func (a *ClearScreenApp) draw(f render.Frame) error {
	clearColor := colorAt(f.Number)

	renderPassInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  a.renderPass,
		Framebuffer: a.framebuffers[f.ImageIndex],
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: a.renderer.Extent(),
		},
		ClearValueCount: 1,
		PClearValues:    []vk.ClearValue{vk.NewClearValue(clearColor[:])},
	}

	vk.CmdBeginRenderPass(f.CommandBuffer, &renderPassInfo, vk.SubpassContentsInline)
	vk.CmdSetViewport(f.CommandBuffer, 0, 1, []vk.Viewport{a.renderer.Viewport()})
	vk.CmdSetScissor(f.CommandBuffer, 0, 1, []vk.Rect2D{a.renderer.Scissor()})
	vk.CmdEndRenderPass(f.CommandBuffer)

	return nil
}

// cleanVulkan releases everything initVulkan created. The renderer waits for
// the device to become idle before anything is destroyed.
func (a *ClearScreenApp) cleanVulkan() {
	if a.ctx != nil {
		if err := a.ctx.WaitIdle(); err != nil {
			a.log.WithError(err).Warn("waiting for device idle")
		}
	}

	a.destroyFramebuffers()

	if a.renderPass != vk.NullRenderPass {
		vk.DestroyRenderPass(a.ctx.Device(), a.renderPass, nil)
		a.renderPass = vk.NullRenderPass
	}

	if a.renderer != nil {
		a.renderer.Destroy()
		a.renderer = nil
	}

	if a.ctx != nil {
		a.ctx.Destroy()
		a.ctx = nil
	}
}
