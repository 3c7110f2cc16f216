package memory

import (
	"github.com/vkngwrapper/vulkan-renderer/internal/gpu"
)

// FindMemoryType returns the lowest index in types that is allowed by the
// typeBits mask and carries every flag in required.
func FindMemoryType(types []gpu.MemoryType, typeBits uint32, required gpu.MemoryPropertyFlags) (int, error) {
	for i, memoryType := range types {
		if i >= 32 {
			break
		}
		typeBit := uint32(1) << uint(i)

		if typeBits&typeBit != 0 && memoryType.PropertyFlags.Has(required) {
			return i, nil
		}
	}

	return 0, gpu.Fail(gpu.ErrMemoryTypeNotFound, nil,
		"no memory type in mask %#x has properties %#x", typeBits, uint32(required))
}
