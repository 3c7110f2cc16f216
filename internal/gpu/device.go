package gpu

import "time"

// Device is the subset of a logical device the renderer core drives. The
// vulkan package provides the real implementation and gputest a fake one.
type Device interface {
	MemoryTypes() []MemoryType

	CreateBuffer(size int, usage BufferUsageFlags) (Buffer, error)
	AllocateMemory(size int, memoryTypeIndex int) (DeviceMemory, error)

	CreateSemaphore() (Semaphore, error)
	CreateFence(signaled bool) (Fence, error)

	AllocateCommandBuffers(pool CommandPool, count int) ([]CommandBuffer, error)
	FreeCommandBuffers(buffers []CommandBuffer)

	WaitIdle() error
}

type Buffer interface {
	MemoryRequirements() MemoryRequirements
	BindMemory(memory DeviceMemory, offset int) error
	Destroy()
}

type DeviceMemory interface {
	// Map exposes size bytes starting at offset until Unmap is called.
	Map(offset, size int) ([]byte, error)
	Unmap()
	Free()
}

type CommandBuffer interface {
	Begin(flags CommandBufferUsageFlags) error
	End() error

	CmdCopyBuffer(src, dst Buffer, regions []BufferCopy) error
	CmdBeginRenderPass(info RenderPassBeginInfo) error
	CmdBindPipeline(pipeline Pipeline)
	CmdBindVertexBuffers(firstBinding int, buffers []Buffer, offsets []int)
	CmdBindIndexBuffer(buffer Buffer, offset int, indexType IndexType)
	CmdDraw(vertexCount, instanceCount, firstVertex, firstInstance int)
	CmdDrawIndexed(indexCount, instanceCount, firstIndex, vertexOffset, firstInstance int)
	CmdEndRenderPass()
}

type Queue interface {
	// Submit queues work; fence may be nil.
	Submit(fence Fence, infos []SubmitInfo) error
	WaitIdle() error
}

type Fence interface {
	Wait(timeout time.Duration) error
	Reset() error
	Destroy()
}

type Semaphore interface {
	Destroy()
}

type CommandPool interface {
	Destroy()
}

type RenderPass interface {
	Destroy()
}

type Framebuffer interface {
	Destroy()
}

type Pipeline interface {
	Destroy()
}

type Swapchain interface {
	ImageCount() int
	// AcquireNextImage returns the index of the next presentable image and
	// arranges for signal to be signaled once that image is ready.
	AcquireNextImage(timeout time.Duration, signal Semaphore) (int, error)
	Present(queue Queue, wait []Semaphore, imageIndex int) error
}
