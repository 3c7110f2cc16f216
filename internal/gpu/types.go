package gpu

import (
	"math"
	"time"
)

// NoTimeout is passed to blocking waits that should never give up.
const NoTimeout = time.Duration(math.MaxInt64)

type MemoryPropertyFlags uint32

const (
	MemoryPropertyDeviceLocal  MemoryPropertyFlags = 0x1
	MemoryPropertyHostVisible  MemoryPropertyFlags = 0x2
	MemoryPropertyHostCoherent MemoryPropertyFlags = 0x4
	MemoryPropertyHostCached   MemoryPropertyFlags = 0x8
)

// Has reports whether every bit in required is also set in f.
func (f MemoryPropertyFlags) Has(required MemoryPropertyFlags) bool {
	return f&required == required
}

type BufferUsageFlags uint32

const (
	BufferUsageTransferSrc   BufferUsageFlags = 0x1
	BufferUsageTransferDst   BufferUsageFlags = 0x2
	BufferUsageUniformBuffer BufferUsageFlags = 0x10
	BufferUsageStorageBuffer BufferUsageFlags = 0x20
	BufferUsageIndexBuffer   BufferUsageFlags = 0x40
	BufferUsageVertexBuffer  BufferUsageFlags = 0x80
)

type CommandBufferUsageFlags uint32

const (
	CommandBufferUsageOneTimeSubmit   CommandBufferUsageFlags = 0x1
	CommandBufferUsageSimultaneousUse CommandBufferUsageFlags = 0x4
)

type PipelineStageFlags uint32

const (
	PipelineStageTopOfPipe             PipelineStageFlags = 0x1
	PipelineStageColorAttachmentOutput PipelineStageFlags = 0x400
	PipelineStageTransfer              PipelineStageFlags = 0x1000
)

type IndexType int

const (
	IndexTypeUInt16 IndexType = 0
	IndexTypeUInt32 IndexType = 1
)

type Format int

const (
	FormatUndefined     Format = 0
	FormatR8G8B8A8Unorm Format = 37
	FormatB8G8R8A8Unorm Format = 44
	FormatB8G8R8A8SRGB  Format = 50
)

type ColorSpace int

const (
	ColorSpaceSRGBNonlinear ColorSpace = 0
)

type PresentMode int

const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFIFO        PresentMode = 2
	PresentModeFIFORelaxed PresentMode = 3
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeImmediate:
		return "Immediate"
	case PresentModeMailbox:
		return "Mailbox"
	case PresentModeFIFO:
		return "FIFO"
	case PresentModeFIFORelaxed:
		return "FIFO Relaxed"
	}
	return "Unknown"
}

// UndefinedExtent is reported as a surface's current width when the window
// system lets the swapchain pick its own size.
const UndefinedExtent = -1

type Extent2D struct {
	Width  int
	Height int
}

type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

type SurfaceCapabilities struct {
	MinImageCount  int
	MaxImageCount  int
	CurrentExtent  Extent2D
	MinImageExtent Extent2D
	MaxImageExtent Extent2D
}

type MemoryType struct {
	PropertyFlags MemoryPropertyFlags
	HeapIndex     int
}

type MemoryRequirements struct {
	Size           int
	Alignment      int
	MemoryTypeBits uint32
}

type BufferCopy struct {
	SrcOffset int
	DstOffset int
	Size      int
}

type ClearColor [4]float32

type RenderPassBeginInfo struct {
	RenderPass  RenderPass
	Framebuffer Framebuffer
	Extent      Extent2D
	ClearColor  ClearColor
}

type SubmitInfo struct {
	WaitSemaphores   []Semaphore
	WaitDstStageMask []PipelineStageFlags
	CommandBuffers   []CommandBuffer
	SignalSemaphores []Semaphore
}
