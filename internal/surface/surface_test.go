package surface

import (
	"reflect"
	"testing"

	"github.com/vkngwrapper/vulkan-renderer/internal/gpu"
)

func TestChooseFormat(t *testing.T) {
	srgb := gpu.ColorSpaceSRGBNonlinear
	other := gpu.ColorSpace(1000104001)

	tests := []struct {
		name    string
		formats []gpu.SurfaceFormat
		want    gpu.SurfaceFormat
	}{
		{
			name:    "single undefined entry",
			formats: []gpu.SurfaceFormat{{Format: gpu.FormatUndefined, ColorSpace: srgb}},
			want:    Preferred,
		},
		{
			name: "preferred not first",
			formats: []gpu.SurfaceFormat{
				{Format: gpu.FormatB8G8R8A8SRGB, ColorSpace: srgb},
				{Format: gpu.FormatR8G8B8A8Unorm, ColorSpace: srgb},
			},
			want: gpu.SurfaceFormat{Format: gpu.FormatR8G8B8A8Unorm, ColorSpace: srgb},
		},
		{
			name: "bgra unorm accepted",
			formats: []gpu.SurfaceFormat{
				{Format: gpu.FormatB8G8R8A8SRGB, ColorSpace: srgb},
				{Format: gpu.FormatB8G8R8A8Unorm, ColorSpace: srgb},
			},
			want: gpu.SurfaceFormat{Format: gpu.FormatB8G8R8A8Unorm, ColorSpace: srgb},
		},
		{
			name: "right format wrong color space",
			formats: []gpu.SurfaceFormat{
				{Format: gpu.FormatB8G8R8A8SRGB, ColorSpace: srgb},
				{Format: gpu.FormatR8G8B8A8Unorm, ColorSpace: other},
			},
			want: gpu.SurfaceFormat{Format: gpu.FormatB8G8R8A8SRGB, ColorSpace: srgb},
		},
		{
			name:    "no preferred falls back to first",
			formats: []gpu.SurfaceFormat{{Format: gpu.FormatB8G8R8A8SRGB, ColorSpace: other}},
			want:    gpu.SurfaceFormat{Format: gpu.FormatB8G8R8A8SRGB, ColorSpace: other},
		},
		{
			name: "undefined among others is not special",
			formats: []gpu.SurfaceFormat{
				{Format: gpu.FormatUndefined, ColorSpace: srgb},
				{Format: gpu.FormatB8G8R8A8SRGB, ColorSpace: srgb},
			},
			want: gpu.SurfaceFormat{Format: gpu.FormatUndefined, ColorSpace: srgb},
		},
		{
			name: "empty",
			want: Preferred,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChooseFormat(tt.formats); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestChoosePresentMode(t *testing.T) {
	tests := []struct {
		name  string
		modes []gpu.PresentMode
		want  gpu.PresentMode
	}{
		{"mailbox last", []gpu.PresentMode{gpu.PresentModeFIFO, gpu.PresentModeImmediate, gpu.PresentModeMailbox}, gpu.PresentModeMailbox},
		{"mailbox only", []gpu.PresentMode{gpu.PresentModeMailbox}, gpu.PresentModeMailbox},
		{"no mailbox", []gpu.PresentMode{gpu.PresentModeImmediate, gpu.PresentModeFIFORelaxed}, gpu.PresentModeFIFO},
		{"empty", nil, gpu.PresentModeFIFO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChoosePresentMode(tt.modes); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChooseExtent(t *testing.T) {
	limits := gpu.SurfaceCapabilities{
		MinImageExtent: gpu.Extent2D{Width: 100, Height: 100},
		MaxImageExtent: gpu.Extent2D{Width: 1920, Height: 1080},
	}

	tests := []struct {
		name        string
		current     gpu.Extent2D
		framebuffer gpu.Extent2D
		want        gpu.Extent2D
	}{
		{"defined current extent is kept", gpu.Extent2D{Width: 800, Height: 600}, gpu.Extent2D{Width: 4000, Height: 4000}, gpu.Extent2D{Width: 800, Height: 600}},
		{"framebuffer inside limits", gpu.Extent2D{Width: gpu.UndefinedExtent, Height: gpu.UndefinedExtent}, gpu.Extent2D{Width: 1024, Height: 768}, gpu.Extent2D{Width: 1024, Height: 768}},
		{"framebuffer above max", gpu.Extent2D{Width: gpu.UndefinedExtent, Height: gpu.UndefinedExtent}, gpu.Extent2D{Width: 4000, Height: 3000}, gpu.Extent2D{Width: 1920, Height: 1080}},
		{"framebuffer below min", gpu.Extent2D{Width: gpu.UndefinedExtent, Height: gpu.UndefinedExtent}, gpu.Extent2D{Width: 1, Height: 5000}, gpu.Extent2D{Width: 100, Height: 1080}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := limits
			caps.CurrentExtent = tt.current
			if got := ChooseExtent(caps, tt.framebuffer); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestChooseImageCount(t *testing.T) {
	tests := []struct {
		min, max, want int
	}{
		{2, 0, 3},
		{2, 8, 3},
		{2, 2, 2},
		{3, 3, 3},
	}
	for _, tt := range tests {
		got := ChooseImageCount(gpu.SurfaceCapabilities{MinImageCount: tt.min, MaxImageCount: tt.max})
		if got != tt.want {
			t.Errorf("min %d max %d: got %d, want %d", tt.min, tt.max, got, tt.want)
		}
	}
}

func TestMissingNames(t *testing.T) {
	available := []string{"VK_KHR_swapchain", "VK_KHR_maintenance1"}

	if missing := MissingNames([]string{"VK_KHR_swapchain"}, available); len(missing) != 0 {
		t.Errorf("present extension reported missing: %v", missing)
	}

	// A name that differs from every available one is missing, even though
	// it compares unequal to all of them.
	missing := MissingNames([]string{"VK_KHR_swapchain", "VK_EXT_debug_utils", "VK_KHR_surface"}, available)
	if want := []string{"VK_EXT_debug_utils", "VK_KHR_surface"}; !reflect.DeepEqual(missing, want) {
		t.Errorf("got %v, want %v", missing, want)
	}

	if missing := MissingNames([]string{"VK_KHR_swap"}, available); len(missing) != 1 {
		t.Errorf("prefix matched as equal: %v", missing)
	}
}

func TestFindQueueFamilies(t *testing.T) {
	tests := []struct {
		name     string
		families []QueueFamily
		want     QueueFamilyIndices
		ok       bool
	}{
		{
			name:     "shared family",
			families: []QueueFamily{{QueueCount: 1, Graphics: true, Present: true}},
			want:     QueueFamilyIndices{Graphics: 0, Present: 0},
			ok:       true,
		},
		{
			name: "separate families",
			families: []QueueFamily{
				{QueueCount: 4},
				{QueueCount: 1, Present: true},
				{QueueCount: 16, Graphics: true},
			},
			want: QueueFamilyIndices{Graphics: 2, Present: 1},
			ok:   true,
		},
		{
			name: "empty family skipped",
			families: []QueueFamily{
				{QueueCount: 0, Graphics: true, Present: true},
				{QueueCount: 2, Graphics: true, Present: true},
			},
			want: QueueFamilyIndices{Graphics: 1, Present: 1},
			ok:   true,
		},
		{
			name:     "no present",
			families: []QueueFamily{{QueueCount: 1, Graphics: true}},
			want:     QueueFamilyIndices{Graphics: 0, Present: -1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindQueueFamilies(tt.families)
			if ok != tt.ok || got != tt.want {
				t.Errorf("got %+v/%v, want %+v/%v", got, ok, tt.want, tt.ok)
			}
		})
	}

	if u := (QueueFamilyIndices{Graphics: 2, Present: 1}).Unique(); !reflect.DeepEqual(u, []int{2, 1}) {
		t.Errorf("unique = %v", u)
	}
	if u := (QueueFamilyIndices{Graphics: 0, Present: 0}).Unique(); !reflect.DeepEqual(u, []int{0}) {
		t.Errorf("unique = %v", u)
	}
}

func TestSuitable(t *testing.T) {
	good := Candidate{
		Name:          "discrete",
		QueueFamilies: []QueueFamily{{QueueCount: 1, Graphics: true, Present: true}},
		Extensions:    []string{"VK_KHR_swapchain"},
		Formats:       []gpu.SurfaceFormat{Preferred},
		PresentModes:  []gpu.PresentMode{gpu.PresentModeFIFO},
	}
	required := []string{"VK_KHR_swapchain"}

	if _, err := Suitable(good, required); err != nil {
		t.Fatalf("good device rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(c *Candidate)
	}{
		{"no queues", func(c *Candidate) { c.QueueFamilies = nil }},
		{"no swapchain", func(c *Candidate) { c.Extensions = []string{"VK_KHR_maintenance1"} }},
		{"no formats", func(c *Candidate) { c.Formats = nil }},
		{"no present modes", func(c *Candidate) { c.PresentModes = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := good
			tt.mutate(&c)
			if _, err := Suitable(c, required); err == nil {
				t.Error("expected rejection")
			}
		})
	}
}
