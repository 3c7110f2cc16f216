package vulkan

import (
	"testing"

	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
	"github.com/vkngwrapper/extensions/khr_surface"

	"github.com/vkngwrapper/vulkan-renderer/internal/gpu"
	"github.com/vkngwrapper/vulkan-renderer/internal/logging"
	"github.com/vkngwrapper/vulkan-renderer/internal/surface"
)

func TestSeverityFromVK(t *testing.T) {
	tests := []struct {
		in   ext_debug_utils.DebugUtilsMessageSeverityFlags
		want logging.Severity
	}{
		{ext_debug_utils.SeverityVerbose, logging.SeverityVerbose},
		{ext_debug_utils.SeverityInfo, logging.SeverityInfo},
		{ext_debug_utils.SeverityWarning, logging.SeverityWarning},
		{ext_debug_utils.SeverityError, logging.SeverityError},
		{ext_debug_utils.SeverityWarning | ext_debug_utils.SeverityError, logging.SeverityError},
	}

	for _, tt := range tests {
		if got := severityFromVK(tt.in); got != tt.want {
			t.Errorf("severityFromVK(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCategoryFromVK(t *testing.T) {
	tests := []struct {
		in   ext_debug_utils.DebugUtilsMessageTypeFlags
		want string
	}{
		{ext_debug_utils.TypeGeneral, "general"},
		{ext_debug_utils.TypeValidation, "validation"},
		{ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance, "validation|performance"},
		{0, "general"},
	}

	for _, tt := range tests {
		if got := categoryFromVK(tt.in); got != tt.want {
			t.Errorf("categoryFromVK(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// The selection rules work on values converted from driver structs; the
// conversion must keep Vulkan's numbering.
func TestSurfaceConversions(t *testing.T) {
	formats := formatsFromVK([]khr_surface.SurfaceFormat{
		{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
	})
	if formats[0] != (gpu.SurfaceFormat{Format: gpu.FormatB8G8R8A8SRGB, ColorSpace: gpu.ColorSpaceSRGBNonlinear}) {
		t.Errorf("format %+v", formats[0])
	}
	if got := surface.ChooseFormat(formats); got != formats[0] {
		t.Errorf("ChooseFormat picked %+v", got)
	}

	modes := presentModesFromVK([]khr_surface.PresentMode{khr_surface.PresentModeFIFO, khr_surface.PresentModeMailbox})
	if surface.ChoosePresentMode(modes) != gpu.PresentModeMailbox {
		t.Errorf("modes %v", modes)
	}

	caps := capabilitiesFromVK(&khr_surface.SurfaceCapabilities{
		MinImageCount:  2,
		MaxImageCount:  0,
		CurrentExtent:  core1_0.Extent2D{Width: -1, Height: -1},
		MinImageExtent: core1_0.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: core1_0.Extent2D{Width: 1024, Height: 768},
	})
	if got := surface.ChooseExtent(caps, gpu.Extent2D{Width: 4000, Height: 300}); got != (gpu.Extent2D{Width: 1024, Height: 300}) {
		t.Errorf("extent %+v", got)
	}
	if surface.ChooseImageCount(caps) != 3 {
		t.Errorf("image count %d", surface.ChooseImageCount(caps))
	}
}

func TestVertexInputLayout(t *testing.T) {
	state := vertexInputState()
	if state.VertexBindingDescriptions[0].Stride != 24 {
		t.Errorf("stride %d", state.VertexBindingDescriptions[0].Stride)
	}
	attrs := state.VertexAttributeDescriptions
	if attrs[0].Offset != 0 || attrs[1].Offset != 12 || attrs[1].Location != 1 {
		t.Errorf("attributes %+v", attrs)
	}
}
