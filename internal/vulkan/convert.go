package vulkan

import (
	"strings"

	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
	"github.com/vkngwrapper/extensions/khr_surface"

	"github.com/vkngwrapper/vulkan-renderer/internal/gpu"
	"github.com/vkngwrapper/vulkan-renderer/internal/logging"
)

func extentToVK(e gpu.Extent2D) core1_0.Extent2D {
	return core1_0.Extent2D{Width: e.Width, Height: e.Height}
}

func extentFromVK(e core1_0.Extent2D) gpu.Extent2D {
	return gpu.Extent2D{Width: e.Width, Height: e.Height}
}

func capabilitiesFromVK(caps *khr_surface.SurfaceCapabilities) gpu.SurfaceCapabilities {
	return gpu.SurfaceCapabilities{
		MinImageCount:  caps.MinImageCount,
		MaxImageCount:  caps.MaxImageCount,
		CurrentExtent:  extentFromVK(caps.CurrentExtent),
		MinImageExtent: extentFromVK(caps.MinImageExtent),
		MaxImageExtent: extentFromVK(caps.MaxImageExtent),
	}
}

func formatsFromVK(formats []khr_surface.SurfaceFormat) []gpu.SurfaceFormat {
	out := make([]gpu.SurfaceFormat, len(formats))
	for i, f := range formats {
		out[i] = gpu.SurfaceFormat{Format: gpu.Format(f.Format), ColorSpace: gpu.ColorSpace(f.ColorSpace)}
	}
	return out
}

func presentModesFromVK(modes []khr_surface.PresentMode) []gpu.PresentMode {
	out := make([]gpu.PresentMode, len(modes))
	for i, m := range modes {
		out[i] = gpu.PresentMode(m)
	}
	return out
}

func severityFromVK(s ext_debug_utils.DebugUtilsMessageSeverityFlags) logging.Severity {
	switch {
	case s&ext_debug_utils.SeverityError != 0:
		return logging.SeverityError
	case s&ext_debug_utils.SeverityWarning != 0:
		return logging.SeverityWarning
	case s&ext_debug_utils.SeverityInfo != 0:
		return logging.SeverityInfo
	}
	return logging.SeverityVerbose
}

func categoryFromVK(t ext_debug_utils.DebugUtilsMessageTypeFlags) string {
	var names []string
	if t&ext_debug_utils.TypeGeneral != 0 {
		names = append(names, "general")
	}
	if t&ext_debug_utils.TypeValidation != 0 {
		names = append(names, "validation")
	}
	if t&ext_debug_utils.TypePerformance != 0 {
		names = append(names, "performance")
	}
	if len(names) == 0 {
		return "general"
	}
	return strings.Join(names, "|")
}
