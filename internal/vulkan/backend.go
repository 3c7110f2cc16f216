// Package vulkan implements the gpu interfaces on top of vkngwrapper and
// brings up everything the renderer needs for one SDL window: instance,
// surface, device, swapchain, render pass, pipeline and framebuffers.
package vulkan

import (
	"github.com/charmbracelet/log"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"

	"github.com/vkngwrapper/vulkan-renderer/internal/gpu"
	"github.com/vkngwrapper/vulkan-renderer/internal/logging"
	"github.com/vkngwrapper/vulkan-renderer/internal/surface"
)

const validationLayer = "VK_LAYER_KHRONOS_validation"

var deviceExtensions = []string{khr_swapchain.ExtensionName}

type Options struct {
	Window          *sdl.Window
	ApplicationName string
	// Validation enables the Khronos validation layer and routes its
	// messages to Sink.
	Validation bool

	VertexShader   []uint32
	FragmentShader []uint32

	Sink   logging.Sink
	Logger *log.Logger
}

// Backend owns every Vulkan object behind Context. Objects are registered
// on Teardown as they are created; callers push their own releases on top
// so those run first.
type Backend struct {
	Context  *gpu.Context
	Teardown gpu.Teardown

	// DeviceName is the physical device that was selected.
	DeviceName string

	opts   Options
	logger *log.Logger

	loader         core.Loader
	instance       core1_0.Instance
	debugMessenger ext_debug_utils.DebugUtilsMessenger
	surface        khr_surface.Surface
	physicalDevice core1_0.PhysicalDevice
	device         core1_0.Device
	families       surface.QueueFamilyIndices

	swapchainExtension khr_swapchain.Extension
	swapchain          khr_swapchain.Swapchain
	imageFormat        core1_0.Format
	extent             core1_0.Extent2D
	imageViews         []core1_0.ImageView

	renderPass     core1_0.RenderPass
	pipelineLayout core1_0.PipelineLayout
	pipeline       core1_0.Pipeline
	framebuffers   []core1_0.Framebuffer
	commandPool    core1_0.CommandPool
}

// New initializes Vulkan for opts.Window. On failure everything created so
// far is released before the error is returned.
func New(opts Options) (*Backend, error) {
	if opts.Sink == nil {
		opts.Sink = logging.Discard
	}
	b := &Backend{opts: opts, logger: opts.Logger}

	steps := []struct {
		name string
		run  func() error
	}{
		{"instance", b.createInstance},
		{"debug messenger", b.setupDebugMessenger},
		{"surface", b.createSurface},
		{"physical device", b.pickPhysicalDevice},
		{"logical device", b.createLogicalDevice},
		{"swapchain", b.createSwapchain},
		{"image views", b.createImageViews},
		{"render pass", b.createRenderPass},
		{"graphics pipeline", b.createGraphicsPipeline},
		{"framebuffers", b.createFramebuffers},
		{"command pool", b.createCommandPool},
	}

	for _, step := range steps {
		err := step.run()
		if err != nil {
			b.Close()
			return nil, err
		}
		b.debug("created", "step", step.name)
	}

	b.Context = b.buildContext()
	return b, nil
}

func (b *Backend) buildContext() *gpu.Context {
	dev := newDevice(b.device, b.physicalDevice)
	graphics := &queue{handle: b.device.GetQueue(b.families.Graphics, 0)}
	present := &queue{handle: b.device.GetQueue(b.families.Present, 0)}
	pool := &commandPool{handle: b.commandPool}

	framebuffers := make([]gpu.Framebuffer, len(b.framebuffers))
	for i, fb := range b.framebuffers {
		framebuffers[i] = &framebuffer{handle: fb}
	}

	return &gpu.Context{
		Device:        dev,
		GraphicsQueue: graphics,
		PresentQueue:  present,
		TransferQueue: graphics,
		CommandPool:   pool,
		TransferPool:  pool,
		Swapchain: &swapchain{
			extension: b.swapchainExtension,
			handle:    b.swapchain,
			images:    len(b.imageViews),
		},
		Extent:       extentFromVK(b.extent),
		RenderPass:   &renderPass{handle: b.renderPass},
		Pipeline:     &pipeline{handle: b.pipeline},
		Framebuffers: framebuffers,
	}
}

// Close releases everything on Teardown. The device must be idle.
func (b *Backend) Close() {
	b.Teardown.Run(func(name string) {
		b.debug("destroying", "object", name)
	})
}

func (b *Backend) debug(msg string, keyvals ...interface{}) {
	if b.logger != nil {
		b.logger.Debug(msg, keyvals...)
	}
}

func mapKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
