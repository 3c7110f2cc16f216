package vulkan

import (
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_portability_subset"

	"github.com/vkngwrapper/vulkan-renderer/internal/gpu"
	"github.com/vkngwrapper/vulkan-renderer/internal/surface"
)

func (b *Backend) pickPhysicalDevice() error {
	physicalDevices, _, err := b.instance.EnumeratePhysicalDevices()
	if err != nil {
		return gpu.Fail(gpu.ErrNoSuitablePhysicalDevice, err, "enumerate physical devices")
	}

	for _, physicalDevice := range physicalDevices {
		candidate, err := b.describe(physicalDevice)
		if err != nil {
			b.debug("skipping device", "error", err)
			continue
		}

		indices, err := surface.Suitable(candidate, deviceExtensions)
		if err != nil {
			b.debug("skipping device", "reason", err)
			continue
		}

		b.physicalDevice = physicalDevice
		b.families = indices
		b.DeviceName = candidate.Name
		if b.logger != nil {
			b.logger.Info("selected device", "name", candidate.Name,
				"graphics_family", indices.Graphics, "present_family", indices.Present)
		}
		return nil
	}

	return gpu.Fail(gpu.ErrNoSuitablePhysicalDevice, nil, "none of %d devices can render to this window", len(physicalDevices))
}

// describe gathers what device selection needs from one physical device.
func (b *Backend) describe(physicalDevice core1_0.PhysicalDevice) (surface.Candidate, error) {
	var candidate surface.Candidate

	properties, err := physicalDevice.Properties()
	if err != nil {
		return candidate, err
	}
	candidate.Name = properties.DeviceName

	for familyIdx, family := range physicalDevice.QueueFamilyProperties() {
		supported, _, err := b.surface.PhysicalDeviceSurfaceSupport(physicalDevice, familyIdx)
		if err != nil {
			return candidate, err
		}
		candidate.QueueFamilies = append(candidate.QueueFamilies, surface.QueueFamily{
			QueueCount: family.QueueCount,
			Graphics:   family.QueueFlags&core1_0.QueueGraphics != 0,
			Present:    supported,
		})
	}

	extensions, _, err := physicalDevice.EnumerateDeviceExtensionProperties()
	if err != nil {
		return candidate, err
	}
	candidate.Extensions = mapKeys(extensions)

	formats, _, err := b.surface.PhysicalDeviceSurfaceFormats(physicalDevice)
	if err != nil {
		return candidate, err
	}
	candidate.Formats = formatsFromVK(formats)

	modes, _, err := b.surface.PhysicalDeviceSurfacePresentModes(physicalDevice)
	if err != nil {
		return candidate, err
	}
	candidate.PresentModes = presentModesFromVK(modes)

	return candidate, nil
}

func (b *Backend) createLogicalDevice() error {
	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	queuePriority := float32(1.0)
	for _, queueFamily := range b.families.Unique() {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queueFamily,
			QueuePriorities:  []float32{queuePriority},
		})
	}

	var extensionNames []string
	extensionNames = append(extensionNames, deviceExtensions...)

	// Required on portability implementations whenever they expose it.
	extensions, _, err := b.physicalDevice.EnumerateDeviceExtensionProperties()
	if err != nil {
		return gpu.Fail(gpu.ErrDeviceCreationFailed, err, "enumerate device extensions")
	}
	_, supported := extensions[khr_portability_subset.ExtensionName]
	if supported {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	b.device, _, err = b.physicalDevice.CreateDevice(nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queueFamilyOptions,
		EnabledFeatures:       &core1_0.PhysicalDeviceFeatures{},
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		b.device = nil
		return gpu.Fail(gpu.ErrDeviceCreationFailed, err, "create logical device on %s", b.DeviceName)
	}

	return nil
}
