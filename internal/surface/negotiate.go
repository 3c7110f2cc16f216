// Package surface picks swapchain parameters from what a device reports for
// a window surface, and decides whether a device can present at all.
package surface

import (
	"github.com/vkngwrapper/vulkan-renderer/internal/gpu"
)

// Preferred is the format chosen when the surface leaves it open.
var Preferred = gpu.SurfaceFormat{Format: gpu.FormatR8G8B8A8Unorm, ColorSpace: gpu.ColorSpaceSRGBNonlinear}

func ChooseFormat(formats []gpu.SurfaceFormat) gpu.SurfaceFormat {
	if len(formats) == 0 {
		return Preferred
	}

	// A lone undefined entry means any format is acceptable.
	if len(formats) == 1 && formats[0].Format == gpu.FormatUndefined {
		return Preferred
	}

	for _, format := range formats {
		if (format.Format == gpu.FormatR8G8B8A8Unorm || format.Format == gpu.FormatB8G8R8A8Unorm) &&
			format.ColorSpace == gpu.ColorSpaceSRGBNonlinear {
			return format
		}
	}

	return formats[0]
}

// ChoosePresentMode prefers mailbox and otherwise falls back to FIFO, which
// every device supports.
func ChoosePresentMode(modes []gpu.PresentMode) gpu.PresentMode {
	for _, mode := range modes {
		if mode == gpu.PresentModeMailbox {
			return mode
		}
	}

	return gpu.PresentModeFIFO
}

// ChooseExtent returns the surface's current extent, or the framebuffer size
// clamped to the surface limits when the surface has no fixed size.
func ChooseExtent(caps gpu.SurfaceCapabilities, framebuffer gpu.Extent2D) gpu.Extent2D {
	if caps.CurrentExtent.Width != gpu.UndefinedExtent {
		return caps.CurrentExtent
	}

	return gpu.Extent2D{
		Width:  clamp(framebuffer.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(framebuffer.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}

// ChooseImageCount asks for one image more than the minimum, within the
// surface's maximum. A maximum of zero means unbounded.
func ChooseImageCount(caps gpu.SurfaceCapabilities) int {
	imageCount := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && caps.MaxImageCount < imageCount {
		imageCount = caps.MaxImageCount
	}
	return imageCount
}
