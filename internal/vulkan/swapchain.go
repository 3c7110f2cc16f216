package vulkan

import (
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"

	"github.com/vkngwrapper/vulkan-renderer/internal/gpu"
	"github.com/vkngwrapper/vulkan-renderer/internal/surface"
)

func (b *Backend) createSwapchain() error {
	b.swapchainExtension = khr_swapchain.CreateExtensionFromDevice(b.device)

	capabilities, _, err := b.surface.PhysicalDeviceSurfaceCapabilities(b.physicalDevice)
	if err != nil {
		return gpu.Fail(gpu.ErrSwapchainCreationFailed, err, "query surface capabilities")
	}
	formats, _, err := b.surface.PhysicalDeviceSurfaceFormats(b.physicalDevice)
	if err != nil {
		return gpu.Fail(gpu.ErrSwapchainCreationFailed, err, "query surface formats")
	}
	modes, _, err := b.surface.PhysicalDeviceSurfacePresentModes(b.physicalDevice)
	if err != nil {
		return gpu.Fail(gpu.ErrSwapchainCreationFailed, err, "query present modes")
	}

	caps := capabilitiesFromVK(capabilities)
	surfaceFormat := surface.ChooseFormat(formatsFromVK(formats))
	presentMode := surface.ChoosePresentMode(presentModesFromVK(modes))

	width, height := b.opts.Window.VulkanGetDrawableSize()
	extent := surface.ChooseExtent(caps, gpu.Extent2D{Width: int(width), Height: int(height)})
	imageCount := surface.ChooseImageCount(caps)

	sharingMode := core1_0.SharingModeExclusive
	var queueFamilyIndices []int
	if b.families.Graphics != b.families.Present {
		sharingMode = core1_0.SharingModeConcurrent
		queueFamilyIndices = b.families.Unique()
	}

	b.imageFormat = core1_0.Format(surfaceFormat.Format)
	b.extent = extentToVK(extent)

	b.swapchain, _, err = b.swapchainExtension.CreateSwapchain(b.device, nil, khr_swapchain.SwapchainCreateInfo{
		Surface: b.surface,

		MinImageCount:    imageCount,
		ImageFormat:      b.imageFormat,
		ImageColorSpace:  khr_surface.ColorSpace(surfaceFormat.ColorSpace),
		ImageExtent:      b.extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilyIndices,

		PreTransform:   capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    khr_surface.PresentMode(presentMode),
		Clipped:        true,
	})
	if err != nil {
		return gpu.Fail(gpu.ErrSwapchainCreationFailed, err, "create swapchain")
	}
	b.Teardown.Push("swapchain", func() { b.swapchain.Destroy(nil) })

	if b.logger != nil {
		b.logger.Info("swapchain ready",
			"format", surfaceFormat.Format, "present_mode", presentMode,
			"width", extent.Width, "height", extent.Height, "min_images", imageCount)
	}
	return nil
}

func (b *Backend) createImageViews() error {
	images, _, err := b.swapchain.SwapchainImages()
	if err != nil {
		return gpu.Fail(gpu.ErrImageViewCreationFailed, err, "get swapchain images")
	}

	for i, image := range images {
		view, _, err := b.device.CreateImageView(nil, core1_0.ImageViewCreateInfo{
			Image:    image,
			ViewType: core1_0.ImageViewType2D,
			Format:   b.imageFormat,
			SubresourceRange: core1_0.ImageSubresourceRange{
				AspectMask:     core1_0.ImageAspectColor,
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		})
		if err != nil {
			return gpu.Fail(gpu.ErrImageViewCreationFailed, err, "create view for swapchain image %d", i)
		}
		b.imageViews = append(b.imageViews, view)
		b.Teardown.Push("image view", func() { view.Destroy(nil) })
	}

	return nil
}
