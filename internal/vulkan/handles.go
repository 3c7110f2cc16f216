package vulkan

import (
	"time"
	"unsafe"

	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_swapchain"

	"github.com/vkngwrapper/vulkan-renderer/internal/gpu"
)

// The types in this file adapt vkngwrapper handles to the gpu interfaces.
// Handles passed back in are always ones this package created, so the type
// assertions on them cannot fail.

type device struct {
	handle      core1_0.Device
	memoryTypes []gpu.MemoryType
}

func newDevice(handle core1_0.Device, physicalDevice core1_0.PhysicalDevice) *device {
	props := physicalDevice.MemoryProperties()
	types := make([]gpu.MemoryType, len(props.MemoryTypes))
	for i, t := range props.MemoryTypes {
		types[i] = gpu.MemoryType{
			PropertyFlags: gpu.MemoryPropertyFlags(t.PropertyFlags),
			HeapIndex:     t.HeapIndex,
		}
	}
	return &device{handle: handle, memoryTypes: types}
}

func (d *device) MemoryTypes() []gpu.MemoryType {
	return d.memoryTypes
}

func (d *device) CreateBuffer(size int, usage gpu.BufferUsageFlags) (gpu.Buffer, error) {
	b, _, err := d.handle.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       core1_0.BufferUsageFlags(usage),
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return nil, err
	}
	return &buffer{handle: b}, nil
}

func (d *device) AllocateMemory(size int, memoryTypeIndex int) (gpu.DeviceMemory, error) {
	m, _, err := d.handle.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  size,
		MemoryTypeIndex: memoryTypeIndex,
	})
	if err != nil {
		return nil, err
	}
	return &deviceMemory{handle: m}, nil
}

func (d *device) CreateSemaphore() (gpu.Semaphore, error) {
	s, _, err := d.handle.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return nil, err
	}
	return &semaphore{handle: s}, nil
}

func (d *device) CreateFence(signaled bool) (gpu.Fence, error) {
	var flags core1_0.FenceCreateFlags
	if signaled {
		flags = core1_0.FenceCreateSignaled
	}

	f, _, err := d.handle.CreateFence(nil, core1_0.FenceCreateInfo{Flags: flags})
	if err != nil {
		return nil, err
	}
	return &fence{device: d.handle, handle: f}, nil
}

func (d *device) AllocateCommandBuffers(pool gpu.CommandPool, count int) ([]gpu.CommandBuffer, error) {
	handles, _, err := d.handle.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        pool.(*commandPool).handle,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	})
	if err != nil {
		return nil, err
	}

	buffers := make([]gpu.CommandBuffer, len(handles))
	for i, h := range handles {
		buffers[i] = &commandBuffer{handle: h}
	}
	return buffers, nil
}

func (d *device) FreeCommandBuffers(buffers []gpu.CommandBuffer) {
	handles := make([]core1_0.CommandBuffer, len(buffers))
	for i, b := range buffers {
		handles[i] = b.(*commandBuffer).handle
	}
	d.handle.FreeCommandBuffers(handles)
}

func (d *device) WaitIdle() error {
	_, err := d.handle.WaitIdle()
	return err
}

type buffer struct {
	handle core1_0.Buffer
}

func (b *buffer) MemoryRequirements() gpu.MemoryRequirements {
	req := b.handle.MemoryRequirements()
	return gpu.MemoryRequirements{
		Size:           req.Size,
		Alignment:      req.Alignment,
		MemoryTypeBits: req.MemoryTypeBits,
	}
}

func (b *buffer) BindMemory(memory gpu.DeviceMemory, offset int) error {
	_, err := b.handle.BindBufferMemory(memory.(*deviceMemory).handle, offset)
	return err
}

func (b *buffer) Destroy() {
	b.handle.Destroy(nil)
}

type deviceMemory struct {
	handle core1_0.DeviceMemory
}

func (m *deviceMemory) Map(offset, size int) ([]byte, error) {
	ptr, _, err := m.handle.Map(offset, size, 0)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(ptr), size), nil
}

func (m *deviceMemory) Unmap() {
	m.handle.Unmap()
}

func (m *deviceMemory) Free() {
	m.handle.Free(nil)
}

type semaphore struct {
	handle core1_0.Semaphore
}

func (s *semaphore) Destroy() {
	s.handle.Destroy(nil)
}

func semaphoreHandles(semaphores []gpu.Semaphore) []core1_0.Semaphore {
	if len(semaphores) == 0 {
		return nil
	}
	handles := make([]core1_0.Semaphore, len(semaphores))
	for i, s := range semaphores {
		handles[i] = s.(*semaphore).handle
	}
	return handles
}

type fence struct {
	device core1_0.Device
	handle core1_0.Fence
}

func (f *fence) Wait(timeout time.Duration) error {
	_, err := f.device.WaitForFences(true, timeout, []core1_0.Fence{f.handle})
	return err
}

func (f *fence) Reset() error {
	_, err := f.device.ResetFences([]core1_0.Fence{f.handle})
	return err
}

func (f *fence) Destroy() {
	f.handle.Destroy(nil)
}

type commandBuffer struct {
	handle core1_0.CommandBuffer
}

func (c *commandBuffer) Begin(flags gpu.CommandBufferUsageFlags) error {
	_, err := c.handle.Begin(core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageFlags(flags),
	})
	return err
}

func (c *commandBuffer) End() error {
	_, err := c.handle.End()
	return err
}

func (c *commandBuffer) CmdCopyBuffer(src, dst gpu.Buffer, regions []gpu.BufferCopy) error {
	copies := make([]core1_0.BufferCopy, len(regions))
	for i, r := range regions {
		copies[i] = core1_0.BufferCopy{SrcOffset: r.SrcOffset, DstOffset: r.DstOffset, Size: r.Size}
	}
	return c.handle.CmdCopyBuffer(src.(*buffer).handle, dst.(*buffer).handle, copies)
}

func (c *commandBuffer) CmdBeginRenderPass(info gpu.RenderPassBeginInfo) error {
	return c.handle.CmdBeginRenderPass(core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  info.RenderPass.(*renderPass).handle,
			Framebuffer: info.Framebuffer.(*framebuffer).handle,
			RenderArea: core1_0.Rect2D{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: extentToVK(info.Extent),
			},
			ClearValues: []core1_0.ClearValue{
				core1_0.ClearValueFloat(info.ClearColor),
			},
		})
}

func (c *commandBuffer) CmdBindPipeline(p gpu.Pipeline) {
	c.handle.CmdBindPipeline(core1_0.PipelineBindPointGraphics, p.(*pipeline).handle)
}

func (c *commandBuffer) CmdBindVertexBuffers(firstBinding int, buffers []gpu.Buffer, offsets []int) {
	handles := make([]core1_0.Buffer, len(buffers))
	for i, b := range buffers {
		handles[i] = b.(*buffer).handle
	}
	c.handle.CmdBindVertexBuffers(firstBinding, handles, offsets)
}

func (c *commandBuffer) CmdBindIndexBuffer(b gpu.Buffer, offset int, indexType gpu.IndexType) {
	c.handle.CmdBindIndexBuffer(b.(*buffer).handle, offset, core1_0.IndexType(indexType))
}

func (c *commandBuffer) CmdDraw(vertexCount, instanceCount, firstVertex, firstInstance int) {
	c.handle.CmdDraw(vertexCount, instanceCount, uint32(firstVertex), uint32(firstInstance))
}

func (c *commandBuffer) CmdDrawIndexed(indexCount, instanceCount, firstIndex, vertexOffset, firstInstance int) {
	c.handle.CmdDrawIndexed(indexCount, instanceCount, uint32(firstIndex), vertexOffset, uint32(firstInstance))
}

func (c *commandBuffer) CmdEndRenderPass() {
	c.handle.CmdEndRenderPass()
}

type queue struct {
	handle core1_0.Queue
}

func (q *queue) Submit(f gpu.Fence, infos []gpu.SubmitInfo) error {
	var fenceHandle core1_0.Fence
	if f != nil {
		fenceHandle = f.(*fence).handle
	}

	submits := make([]core1_0.SubmitInfo, len(infos))
	for i, info := range infos {
		stages := make([]core1_0.PipelineStageFlags, len(info.WaitDstStageMask))
		for s, stage := range info.WaitDstStageMask {
			stages[s] = core1_0.PipelineStageFlags(stage)
		}
		buffers := make([]core1_0.CommandBuffer, len(info.CommandBuffers))
		for b, cb := range info.CommandBuffers {
			buffers[b] = cb.(*commandBuffer).handle
		}

		submits[i] = core1_0.SubmitInfo{
			WaitSemaphores:   semaphoreHandles(info.WaitSemaphores),
			WaitDstStageMask: stages,
			CommandBuffers:   buffers,
			SignalSemaphores: semaphoreHandles(info.SignalSemaphores),
		}
	}

	_, err := q.handle.Submit(fenceHandle, submits)
	return err
}

func (q *queue) WaitIdle() error {
	_, err := q.handle.WaitIdle()
	return err
}

type commandPool struct {
	handle core1_0.CommandPool
}

func (p *commandPool) Destroy() {
	p.handle.Destroy(nil)
}

type renderPass struct {
	handle core1_0.RenderPass
}

func (r *renderPass) Destroy() {
	r.handle.Destroy(nil)
}

type framebuffer struct {
	handle core1_0.Framebuffer
}

func (f *framebuffer) Destroy() {
	f.handle.Destroy(nil)
}

type pipeline struct {
	handle core1_0.Pipeline
}

func (p *pipeline) Destroy() {
	p.handle.Destroy(nil)
}

type swapchain struct {
	extension khr_swapchain.Extension
	handle    khr_swapchain.Swapchain
	images    int
}

func (s *swapchain) ImageCount() int {
	return s.images
}

func (s *swapchain) AcquireNextImage(timeout time.Duration, signal gpu.Semaphore) (int, error) {
	imageIndex, _, err := s.handle.AcquireNextImage(timeout, signal.(*semaphore).handle, nil)
	return imageIndex, err
}

func (s *swapchain) Present(q gpu.Queue, wait []gpu.Semaphore, imageIndex int) error {
	_, err := s.extension.QueuePresent(q.(*queue).handle, khr_swapchain.PresentInfo{
		WaitSemaphores: semaphoreHandles(wait),
		Swapchains:     []khr_swapchain.Swapchain{s.handle},
		ImageIndices:   []int{imageIndex},
	})
	return err
}
