// Package memory creates GPU buffers bound to dedicated device memory.
package memory

import (
	"github.com/charmbracelet/log"

	"github.com/vkngwrapper/vulkan-renderer/internal/gpu"
)

// Buffer is a GPU buffer together with the memory backing it. The creator
// owns both until Destroy.
type Buffer struct {
	Handle gpu.Buffer
	Memory gpu.DeviceMemory
	Size   int
	Usage  gpu.BufferUsageFlags
	// AllocationSize is what the driver asked for, at least Size.
	AllocationSize int
	MemoryType     int
}

// Destroy releases the buffer and then its memory. Calling it more than once
// is a no-op.
func (b *Buffer) Destroy() {
	if b == nil {
		return
	}
	if b.Handle != nil {
		b.Handle.Destroy()
		b.Handle = nil
	}
	if b.Memory != nil {
		b.Memory.Free()
		b.Memory = nil
	}
}

// Allocator makes one device allocation per buffer.
//
// TODO: suballocate from pooled blocks once a scene needs more buffers than
// the driver's allocation limit allows.
type Allocator struct {
	device gpu.Device
	logger *log.Logger
}

func NewAllocator(device gpu.Device, logger *log.Logger) *Allocator {
	return &Allocator{device: device, logger: logger}
}

// CreateBuffer creates a buffer of exactly size bytes and binds it to fresh
// memory satisfying properties. Nothing is leaked on failure.
func (a *Allocator) CreateBuffer(size int, usage gpu.BufferUsageFlags, properties gpu.MemoryPropertyFlags) (*Buffer, error) {
	if size < 1 {
		return nil, gpu.Fail(gpu.ErrBufferCreationFailed, nil, "buffer size must be positive, got %d", size)
	}

	handle, err := a.device.CreateBuffer(size, usage)
	if err != nil {
		return nil, gpu.Fail(gpu.ErrBufferCreationFailed, err, "create buffer of %d bytes", size)
	}

	requirements := handle.MemoryRequirements()
	memoryTypeIndex, err := FindMemoryType(a.device.MemoryTypes(), requirements.MemoryTypeBits, properties)
	if err != nil {
		handle.Destroy()
		return nil, err
	}

	memory, err := a.device.AllocateMemory(requirements.Size, memoryTypeIndex)
	if err != nil {
		handle.Destroy()
		return nil, gpu.Fail(gpu.ErrMemoryAllocationFailed, err,
			"allocate %d bytes from memory type %d", requirements.Size, memoryTypeIndex)
	}

	err = handle.BindMemory(memory, 0)
	if err != nil {
		handle.Destroy()
		memory.Free()
		return nil, gpu.Fail(gpu.ErrMemoryAllocationFailed, err, "bind buffer memory")
	}

	if a.logger != nil {
		a.logger.Debug("created buffer",
			"size", size,
			"allocation", requirements.Size,
			"usage", uint32(usage),
			"memoryType", memoryTypeIndex)
	}

	return &Buffer{
		Handle:         handle,
		Memory:         memory,
		Size:           size,
		Usage:          usage,
		AllocationSize: requirements.Size,
		MemoryType:     memoryTypeIndex,
	}, nil
}

// Write copies data into a host-visible buffer starting at offset.
func (b *Buffer) Write(offset int, data []byte) error {
	mapped, err := b.Memory.Map(offset, len(data))
	if err != nil {
		return gpu.Fail(gpu.ErrMemoryAllocationFailed, err, "map %d bytes", len(data))
	}
	defer b.Memory.Unmap()

	copy(mapped, data)
	return nil
}
