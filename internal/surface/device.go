package surface

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/vulkan-renderer/internal/gpu"
)

type QueueFamily struct {
	QueueCount int
	Graphics   bool
	// Present is whether the family can present to the target surface.
	Present bool
}

// Candidate is everything device selection needs to know about one
// physical device.
type Candidate struct {
	Name          string
	QueueFamilies []QueueFamily
	Extensions    []string
	Formats       []gpu.SurfaceFormat
	PresentModes  []gpu.PresentMode
}

type QueueFamilyIndices struct {
	Graphics int
	Present  int
}

// Unique lists the distinct family indices, graphics first.
func (i QueueFamilyIndices) Unique() []int {
	if i.Graphics == i.Present {
		return []int{i.Graphics}
	}
	return []int{i.Graphics, i.Present}
}

// FindQueueFamilies returns the first graphics family and the first family
// able to present. Families that expose no queues are ignored.
func FindQueueFamilies(families []QueueFamily) (QueueFamilyIndices, bool) {
	indices := QueueFamilyIndices{Graphics: -1, Present: -1}

	for idx, family := range families {
		if family.QueueCount < 1 {
			continue
		}
		if family.Graphics && indices.Graphics < 0 {
			indices.Graphics = idx
		}
		if family.Present && indices.Present < 0 {
			indices.Present = idx
		}
		if indices.Graphics >= 0 && indices.Present >= 0 {
			return indices, true
		}
	}

	return indices, false
}

// MissingNames returns the entries of required with no exact match in
// available, sorted.
func MissingNames(required []string, available []string) []string {
	have := make(map[string]struct{}, len(available))
	for _, name := range available {
		have[name] = struct{}{}
	}

	var missing []string
	for _, name := range required {
		if _, ok := have[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// Suitable checks c against the selection rules: a graphics family, a
// present family, every required extension, and at least one surface format
// and present mode. The error says which rule failed.
func Suitable(c Candidate, requiredExtensions []string) (QueueFamilyIndices, error) {
	indices, ok := FindQueueFamilies(c.QueueFamilies)
	if !ok {
		return indices, errors.Newf("device %q lacks a graphics or present queue family", c.Name)
	}

	if missing := MissingNames(requiredExtensions, c.Extensions); len(missing) > 0 {
		return indices, errors.Newf("device %q is missing extensions %v", c.Name, missing)
	}

	if len(c.Formats) == 0 || len(c.PresentModes) == 0 {
		return indices, errors.Newf("device %q reports %d surface formats and %d present modes",
			c.Name, len(c.Formats), len(c.PresentModes))
	}

	return indices, nil
}
