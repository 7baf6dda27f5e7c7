// Package platform opens the native window the renderer presents to and
// turns it into a Vulkan surface.
//
// GLFW must be used from the main OS thread. Programs lock it with
// runtime.LockOSThread before calling Open.
package platform

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"vulkan-wrappers/frame"
)

// Window is a non-resizable GLFW window without a client API.
type Window struct {
	log    logrus.FieldLogger
	window *glfw.Window
}

var _ frame.Window = (*Window)(nil)

// Open initializes GLFW and opens a window. Pressing Escape requests the
// window to close.
func Open(title string, width, height int, log logrus.FieldLogger) (*Window, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	if err := glfw.Init(); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "glfw.Init"), frame.ErrInitialization)
	}

	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return nil, errors.Mark(
			errors.New("GLFW found no Vulkan loader"),
			frame.ErrInitialization,
		)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.False)

	window, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.Mark(errors.Wrap(err, "creating window"), frame.ErrInitialization)
	}

	w := &Window{log: log, window: window}
	window.SetKeyCallback(w.onKey)

	log.WithFields(logrus.Fields{
		"title":  title,
		"width":  width,
		"height": height,
	}).Debug("window opened")

	return w, nil
}

func (w *Window) onKey(
	_ *glfw.Window,
	key glfw.Key,
	_ int,
	action glfw.Action,
	_ glfw.ModifierKey,
) {
	if key == glfw.KeyEscape && action == glfw.Press {
		w.log.Debug("escape pressed, closing window")
		w.RequestClose()
	}
}

// ShouldClose returns true once the user or the program asked the window to
// close.
func (w *Window) ShouldClose() bool {
	return w.window.ShouldClose()
}

// PollEvents processes pending window events.
func (w *Window) PollEvents() {
	glfw.PollEvents()
}

// RequestClose marks the window as closing.
func (w *Window) RequestClose() {
	w.window.SetShouldClose(true)
}

// FramebufferSize returns the size of the window in pixels.
func (w *Window) FramebufferSize() (uint32, uint32) {
	width, height := w.window.GetFramebufferSize()
	return uint32(width), uint32(height)
}

// RequiredInstanceExtensions returns the instance extensions needed for
// creating surfaces for this window.
func (w *Window) RequiredInstanceExtensions() []string {
	return w.window.GetRequiredInstanceExtensions()
}

// ProcAddr returns the vkGetInstanceProcAddr found by GLFW.
func (w *Window) ProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

// CreateSurface creates a Vulkan surface for the window.
func (w *Window) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surfacePtr, err := w.window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, errors.Mark(
			errors.Wrap(err, "cannot create surface within GLFW window"),
			frame.ErrSurfaceUnsupported,
		)
	}

	return vk.SurfaceFromPointer(surfacePtr), nil
}

// Close destroys the window and terminates GLFW.
func (w *Window) Close() {
	w.window.Destroy()
	glfw.Terminate()
	w.log.Debug("window closed")
}
