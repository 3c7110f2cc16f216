package vulkan

import (
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
	"github.com/vkngwrapper/extensions/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2"

	"github.com/vkngwrapper/vulkan-renderer/internal/gpu"
	"github.com/vkngwrapper/vulkan-renderer/internal/surface"
)

func (b *Backend) createInstance() error {
	var err error
	b.loader, err = core.CreateLoaderFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return gpu.Fail(gpu.ErrDeviceCreationFailed, err, "load vulkan")
	}

	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    b.opts.ApplicationName,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "vulkan-renderer",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	extensions, _, err := b.loader.AvailableExtensions()
	if err != nil {
		return gpu.Fail(gpu.ErrExtensionUnsupported, err, "enumerate instance extensions")
	}

	required := b.opts.Window.VulkanGetInstanceExtensions()
	if b.opts.Validation {
		required = append(required, ext_debug_utils.ExtensionName)
	}
	if missing := surface.MissingNames(required, mapKeys(extensions)); len(missing) > 0 {
		return gpu.Fail(gpu.ErrExtensionUnsupported, nil, "instance extensions %v are not available", missing)
	}
	instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, required...)

	// Needed to see MoltenVK devices.
	_, enumerationSupported := extensions[khr_portability_enumeration.ExtensionName]
	if enumerationSupported {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		instanceOptions.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	if b.opts.Validation {
		layers, _, err := b.loader.AvailableLayers()
		if err != nil {
			return gpu.Fail(gpu.ErrValidationLayerUnavailable, err, "enumerate instance layers")
		}
		if missing := surface.MissingNames([]string{validationLayer}, mapKeys(layers)); len(missing) > 0 {
			return gpu.Fail(gpu.ErrValidationLayerUnavailable, nil,
				"layer %s not available, install the LunarG Vulkan SDK", validationLayer)
		}
		instanceOptions.EnabledLayerNames = append(instanceOptions.EnabledLayerNames, validationLayer)

		// Also report problems in instance creation itself.
		instanceOptions.Next = b.debugMessengerOptions()
	}

	b.instance, _, err = b.loader.CreateInstance(nil, instanceOptions)
	if err != nil {
		return gpu.Fail(gpu.ErrDeviceCreationFailed, err, "create instance")
	}
	b.Teardown.Push("instance", func() { b.instance.Destroy(nil) })

	// The logical device comes later but is destroyed after the surface
	// and debug messenger, just before the instance.
	b.Teardown.Push("device", func() {
		if b.device != nil {
			b.device.Destroy(nil)
		}
	})

	return nil
}

func (b *Backend) debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    b.onDebugMessage,
	}
}

func (b *Backend) onDebugMessage(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	b.opts.Sink.Emit(severityFromVK(severity), categoryFromVK(msgType), data.Message)
	return false
}

func (b *Backend) setupDebugMessenger() error {
	if !b.opts.Validation {
		return nil
	}

	var err error
	debugLoader := ext_debug_utils.CreateExtensionFromInstance(b.instance)
	b.debugMessenger, _, err = debugLoader.CreateDebugUtilsMessenger(b.instance, nil, b.debugMessengerOptions())
	if err != nil {
		return gpu.Fail(gpu.ErrValidationLayerUnavailable, err, "create debug messenger")
	}
	b.Teardown.Push("debug messenger", func() { b.debugMessenger.Destroy(nil) })

	return nil
}

func (b *Backend) createSurface() error {
	surfaceLoader := khr_surface.CreateExtensionFromInstance(b.instance)

	s, err := vkng_sdl2.CreateSurface(b.instance, surfaceLoader, b.opts.Window)
	if err != nil {
		return gpu.Fail(gpu.ErrSurfaceCreationFailed, err, "create window surface")
	}
	b.surface = s
	b.Teardown.Push("surface", func() { b.surface.Destroy(nil) })

	return nil
}
