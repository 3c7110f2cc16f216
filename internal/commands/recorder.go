// Package commands records the static per-image draw command buffers.
package commands

import (
	"github.com/vkngwrapper/vulkan-renderer/internal/gpu"
	"github.com/vkngwrapper/vulkan-renderer/internal/mesh"
)

// Set holds one recorded command buffer per swapchain image. The buffers are
// re-submitted every frame and never re-recorded.
type Set struct {
	device  gpu.Device
	buffers []gpu.CommandBuffer
}

// Buffer returns the command buffer that renders into swapchain image
// imageIndex.
func (s *Set) Buffer(imageIndex int) gpu.CommandBuffer {
	return s.buffers[imageIndex]
}

func (s *Set) Len() int {
	return len(s.buffers)
}

// Free returns the buffers to their pool.
func (s *Set) Free() {
	if len(s.buffers) == 0 {
		return
	}
	s.device.FreeCommandBuffers(s.buffers)
	s.buffers = nil
}

// Record builds the command buffer for every framebuffer in ctx, drawing
// meshes in order on top of clear.
func Record(ctx *gpu.Context, meshes []*mesh.Mesh, clear gpu.ClearColor) (*Set, error) {
	buffers, err := ctx.Device.AllocateCommandBuffers(ctx.CommandPool, len(ctx.Framebuffers))
	if err != nil {
		return nil, gpu.Fail(gpu.ErrCommandRecordingFailed, err, "allocate %d command buffers", len(ctx.Framebuffers))
	}
	set := &Set{device: ctx.Device, buffers: buffers}

	for bufferIdx, buffer := range buffers {
		err = recordBuffer(ctx, buffer, ctx.Framebuffers[bufferIdx], meshes, clear)
		if err != nil {
			set.Free()
			return nil, gpu.Fail(gpu.ErrCommandRecordingFailed, err, "record command buffer for image %d", bufferIdx)
		}
	}

	return set, nil
}

func recordBuffer(ctx *gpu.Context, buffer gpu.CommandBuffer, framebuffer gpu.Framebuffer, meshes []*mesh.Mesh, clear gpu.ClearColor) error {
	// Frames in flight can share an image, so the buffer may be pending
	// when it is submitted again.
	err := buffer.Begin(gpu.CommandBufferUsageSimultaneousUse)
	if err != nil {
		return err
	}

	err = buffer.CmdBeginRenderPass(gpu.RenderPassBeginInfo{
		RenderPass:  ctx.RenderPass,
		Framebuffer: framebuffer,
		Extent:      ctx.Extent,
		ClearColor:  clear,
	})
	if err != nil {
		return err
	}

	buffer.CmdBindPipeline(ctx.Pipeline)
	for _, m := range meshes {
		buffer.CmdBindVertexBuffers(0, []gpu.Buffer{m.VertexBuffer.Handle}, []int{0})
		if m.Indexed() {
			buffer.CmdBindIndexBuffer(m.IndexBuffer.Handle, 0, gpu.IndexTypeUInt32)
			buffer.CmdDrawIndexed(m.IndexCount, 1, 0, 0, 0)
		} else {
			buffer.CmdDraw(m.VertexCount, 1, 0, 0)
		}
	}
	buffer.CmdEndRenderPass()

	return buffer.End()
}
