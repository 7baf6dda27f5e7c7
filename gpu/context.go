// Package gpu owns the Vulkan instance, the selected physical device, the
// logical device with its queue and the command pool. It provides the
// fences, semaphores and command buffers used by the frame package.
package gpu

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"vulkan-wrappers/frame"
	"vulkan-wrappers/queues"
)

const validationLayer = "VK_LAYER_KHRONOS_validation"

var deviceExtensions = []string{
	vk.KhrSwapchainExtensionName,
}

// Config describes how the Vulkan instance and device are brought up.
type Config struct {
	// AppName is reported to the driver as the application name.
	AppName string

	// Validation enables the Khronos validation layer. It must be installed.
	Validation bool

	// InstanceExtensions are the extensions the windowing system needs for
	// creating surfaces.
	InstanceExtensions []string

	// ProcAddr is the vkGetInstanceProcAddr pointer used to load Vulkan.
	ProcAddr unsafe.Pointer

	Log logrus.FieldLogger
}

// SurfaceFactory creates the presentation surface for a freshly created
// instance.
type SurfaceFactory func(instance vk.Instance) (vk.Surface, error)

// Context is the execution context of the renderer: instance, device, one
// queue used both for graphics and presentation and a command pool whose
// buffers may be reset individually.
type Context struct {
	log logrus.FieldLogger

	instance       vk.Instance
	surface        vk.Surface
	physicalDevice vk.PhysicalDevice
	device         vk.Device
	family         uint32
	queue          *Queue
	commandPool    vk.CommandPool

	layers    []string
	destroyed bool
}

var _ frame.Device = (*Context)(nil)

// NewContext loads Vulkan, creates the instance, asks createSurface for the
// presentation surface and brings up a device able to draw and present to it.
//
// Once NewContext succeeds the surface is not owned by the Context. It has
// to be handed to a swapchain which destroys it.
func NewContext(cfg Config, createSurface SurfaceFactory) (*Context, error) {
	c := &Context{
		log:            cfg.Log,
		physicalDevice: vk.PhysicalDevice(vk.NullHandle),
		device:         vk.Device(vk.NullHandle),
		surface:        vk.NullSurface,
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	if cfg.Validation {
		c.layers = safeStrings([]string{validationLayer})
	}

	if err := c.init(cfg, createSurface); err != nil {
		if c.surface != vk.NullSurface {
			vk.DestroySurface(c.instance, c.surface, nil)
			c.surface = vk.NullSurface
		}
		c.Destroy()
		return nil, errors.Mark(err, frame.ErrInitialization)
	}
	return c, nil
}

func (c *Context) init(cfg Config, createSurface SurfaceFactory) error {
	if cfg.ProcAddr == nil {
		return errors.New("no vkGetInstanceProcAddr given")
	}
	vk.SetGetInstanceProcAddr(cfg.ProcAddr)

	if err := vk.Init(); err != nil {
		return errors.Wrap(err, "failed to init Vulkan Go")
	}

	if err := c.createInstance(cfg); err != nil {
		return errors.Wrap(err, "createInstance")
	}

	surface, err := createSurface(c.instance)
	if err != nil {
		return errors.Wrap(err, "createSurface")
	}
	c.surface = surface

	if err := c.pickPhysicalDevice(); err != nil {
		return errors.Wrap(err, "pickPhysicalDevice")
	}

	if err := c.createLogicalDevice(); err != nil {
		return errors.Wrap(err, "createLogicalDevice")
	}

	if err := c.createCommandPool(); err != nil {
		return errors.Wrap(err, "createCommandPool")
	}

	return nil
}

func (c *Context) createInstance(cfg Config) error {
	if cfg.Validation && !checkValidationSupport(c.layers) {
		return errors.New("validation layers requested but not available")
	}

	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   safeString(cfg.AppName),
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PEngineName:        safeString("vulkan-wrappers"),
		EngineVersion:      vk.MakeVersion(1, 0, 0),
		ApiVersion:         vk.ApiVersion10,
	}

	extensions := safeStrings(append([]string(nil), cfg.InstanceExtensions...))
	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
	}

	if len(c.layers) > 0 {
		createInfo.EnabledLayerCount = uint32(len(c.layers))
		createInfo.PpEnabledLayerNames = c.layers
	}

	var instance vk.Instance
	if err := Result(vk.CreateInstance(&createInfo, nil, &instance)); err != nil {
		return errors.Wrap(err, "failed to create Vulkan instance")
	}
	c.instance = instance

	if err := vk.InitInstance(instance); err != nil {
		return errors.Wrap(err, "loading instance functions")
	}

	c.log.WithFields(logrus.Fields{
		"extensions": cfg.InstanceExtensions,
		"validation": cfg.Validation,
	}).Debug("vulkan instance created")
	return nil
}

func (c *Context) pickPhysicalDevice() error {
	var deviceCount uint32
	err := Result(vk.EnumeratePhysicalDevices(c.instance, &deviceCount, nil))
	if err != nil {
		return errors.Wrap(err, "failed to get the number of physical devices")
	}
	if deviceCount == 0 {
		return errors.New("failed to find GPUs with Vulkan support")
	}

	pDevices := make([]vk.PhysicalDevice, deviceCount)
	err = Result(vk.EnumeratePhysicalDevices(c.instance, &deviceCount, pDevices))
	if err != nil {
		return errors.Wrap(err, "failed to enumerate the physical devices")
	}

	var (
		selectedDevice = vk.PhysicalDevice(vk.NullHandle)
		selectedFamily uint32
		score          uint32
	)

	for _, device := range pDevices {
		deviceScore, family := c.deviceScore(device)

		if deviceScore > score {
			selectedDevice = device
			selectedFamily = family
			score = deviceScore
		}
	}

	if selectedDevice == vk.PhysicalDevice(vk.NullHandle) {
		return errors.New("failed to find suitable physical devices")
	}

	c.physicalDevice = selectedDevice
	c.family = selectedFamily
	return nil
}

// deviceScore returns how suitable is this device for the renderer together
// with the queue family it would use. Bigger score means better. Zero means
// the device cannot be used.
func (c *Context) deviceScore(device vk.PhysicalDevice) (uint32, uint32) {
	var (
		deviceScore uint32
		properties  vk.PhysicalDeviceProperties
	)

	vk.GetPhysicalDeviceProperties(device, &properties)
	properties.Deref()

	if properties.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu {
		deviceScore += 1000
	} else {
		deviceScore++
	}

	family, ok := c.isDeviceSuitable(device)
	if !ok {
		deviceScore = 0
	}

	c.log.WithFields(logrus.Fields{
		"device": vk.ToString(properties.DeviceName[:]),
		"score":  deviceScore,
	}).Debug("available device")

	return deviceScore, family
}

func (c *Context) isDeviceSuitable(device vk.PhysicalDevice) (uint32, bool) {
	indices := c.findQueueFamilies(device)
	if !indices.Shared() {
		// Graphics and present on separate families would need queue
		// ownership transfers of the swapchain images.
		return 0, false
	}

	if !checkDeviceExtensionSupport(device, c.log) {
		return 0, false
	}

	support, err := QuerySurfaceSupport(device, c.surface)
	if err != nil {
		c.log.WithError(err).Warn("querying surface support")
		return 0, false
	}
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return 0, false
	}

	return indices.Graphics.Get(), true
}

// findQueueFamilies returns a FamilyIndices populated with Vulkan queue
// families needed by the renderer.
func (c *Context) findQueueFamilies(device vk.PhysicalDevice) queues.FamilyIndices {
	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)

	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, queueFamilies)

	families := make([]queues.Family, len(queueFamilies))
	for i, family := range queueFamilies {
		family.Deref()

		families[i].Graphics = family.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0

		var hasPresent vk.Bool32
		err := Result(
			vk.GetPhysicalDeviceSurfaceSupport(device, uint32(i), c.surface, &hasPresent),
		)
		if err != nil {
			c.log.WithError(err).WithField("family", i).
				Warn("querying surface support for queue family")
			continue
		}
		families[i].Present = hasPresent.B()
	}

	return queues.Find(families)
}

func (c *Context) createLogicalDevice() error {
	queueCreateInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: c.family,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}

	extensions := safeStrings(append([]string(nil), deviceExtensions...))
	createInfo := vk.DeviceCreateInfo{
		SType:            vk.StructureTypeDeviceCreateInfo,
		PEnabledFeatures: []vk.PhysicalDeviceFeatures{{}},

		PQueueCreateInfos:    queueCreateInfos,
		QueueCreateInfoCount: uint32(len(queueCreateInfos)),

		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
	}

	if len(c.layers) > 0 {
		createInfo.PpEnabledLayerNames = c.layers
		createInfo.EnabledLayerCount = uint32(len(c.layers))
	}

	var device vk.Device
	err := Result(vk.CreateDevice(c.physicalDevice, &createInfo, nil, &device))
	if err != nil {
		return errors.Wrap(err, "failed to create logical device")
	}
	c.device = device

	var queue vk.Queue
	vk.GetDeviceQueue(c.device, c.family, 0, &queue)
	c.queue = &Queue{handle: queue}

	c.log.WithField("family", c.family).Debug("logical device created")
	return nil
}

func (c *Context) createCommandPool() error {
	poolInfo := vk.CommandPoolCreateInfo{
		SType: vk.StructureTypeCommandPoolCreateInfo,
		Flags: vk.CommandPoolCreateFlags(
			vk.CommandPoolCreateResetCommandBufferBit,
		),
		QueueFamilyIndex: c.family,
	}

	var commandPool vk.CommandPool
	res := vk.CreateCommandPool(c.device, &poolInfo, nil, &commandPool)
	if err := Result(res); err != nil {
		return errors.Wrap(err, "failed to create command pool")
	}
	c.commandPool = commandPool

	return nil
}

// Instance returns the Vulkan instance.
func (c *Context) Instance() vk.Instance { return c.instance }

// PhysicalDevice returns the selected physical device.
func (c *Context) PhysicalDevice() vk.PhysicalDevice { return c.physicalDevice }

// Device returns the logical device.
func (c *Context) Device() vk.Device { return c.device }

// Surface returns the surface the device was selected for.
func (c *Context) Surface() vk.Surface { return c.surface }

// QueueFamily returns the index of the graphics and present queue family.
func (c *Context) QueueFamily() uint32 { return c.family }

// GraphicsQueue returns the queue used for submissions.
func (c *Context) GraphicsQueue() frame.Queue { return c.queue }

// PresentQueue returns the queue used for presentation. It is the same queue
// as the graphics one.
func (c *Context) PresentQueue() frame.Queue { return c.queue }

// WaitIdle blocks until the device finished all submitted work.
func (c *Context) WaitIdle() error {
	if c.device == vk.Device(vk.NullHandle) {
		return nil
	}
	return Result(vk.DeviceWaitIdle(c.device))
}

// Destroy waits for the device to become idle and releases the command
// pool, the device and the instance. It is safe to call more than once.
func (c *Context) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true

	if err := c.WaitIdle(); err != nil {
		c.log.WithError(err).Warn("waiting for device idle")
	}

	if c.commandPool != vk.NullCommandPool {
		vk.DestroyCommandPool(c.device, c.commandPool, nil)
		c.commandPool = vk.NullCommandPool
	}
	if c.device != vk.Device(vk.NullHandle) {
		vk.DestroyDevice(c.device, nil)
		c.device = vk.Device(vk.NullHandle)
	}
	if c.instance != nil {
		vk.DestroyInstance(c.instance, nil)
		c.instance = nil
	}

	c.log.Debug("vulkan context released")
}

func checkDeviceExtensionSupport(device vk.PhysicalDevice, log logrus.FieldLogger) bool {
	var extensionsCount uint32
	res := vk.EnumerateDeviceExtensionProperties(device, "", &extensionsCount, nil)
	if err := Result(res); err != nil {
		log.WithError(err).Warn("enumerating device extension properties count")
		return false
	}

	availableExtensions := make([]vk.ExtensionProperties, extensionsCount)
	res = vk.EnumerateDeviceExtensionProperties(device, "", &extensionsCount,
		availableExtensions)
	if err := Result(res); err != nil {
		log.WithError(err).Warn("getting device extension properties")
		return false
	}

	requiredExtensions := make(map[string]struct{})
	for _, extensionName := range deviceExtensions {
		requiredExtensions[extensionName] = struct{}{}
	}

	for _, extension := range availableExtensions {
		extension.Deref()
		delete(requiredExtensions, vk.ToString(extension.ExtensionName[:]))
	}

	return len(requiredExtensions) == 0
}

func checkValidationSupport(layers []string) bool {
	var count uint32
	if vk.EnumerateInstanceLayerProperties(&count, nil) != vk.Success {
		return false
	}
	availableLayers := make([]vk.LayerProperties, count)

	if vk.EnumerateInstanceLayerProperties(&count, availableLayers) != vk.Success {
		return false
	}

	available := make(map[string]struct{}, count)
	for _, layer := range availableLayers {
		layer.Deref()
		available[safeString(vk.ToString(layer.LayerName[:]))] = struct{}{}
	}

	for _, layer := range layers {
		if _, ok := available[layer]; !ok {
			return false
		}
	}

	return true
}
