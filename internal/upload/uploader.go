// Package upload copies CPU data into device-local buffers through a
// temporary host-visible staging buffer.
package upload

import (
	"github.com/charmbracelet/log"

	"github.com/vkngwrapper/vulkan-renderer/internal/gpu"
	"github.com/vkngwrapper/vulkan-renderer/internal/memory"
)

type Uploader struct {
	ctx       *gpu.Context
	allocator *memory.Allocator
	logger    *log.Logger
}

func NewUploader(ctx *gpu.Context, allocator *memory.Allocator, logger *log.Logger) *Uploader {
	return &Uploader{ctx: ctx, allocator: allocator, logger: logger}
}

// Upload returns a device-local buffer holding payload, usable as usage.
// It blocks until the transfer queue is idle, so the returned buffer is ready
// for any later submission.
func (u *Uploader) Upload(payload []byte, usage gpu.BufferUsageFlags) (*memory.Buffer, error) {
	size := len(payload)
	if size == 0 {
		return nil, gpu.Fail(gpu.ErrBufferCreationFailed, nil, "cannot upload an empty payload")
	}

	staging, err := u.allocator.CreateBuffer(size, gpu.BufferUsageTransferSrc,
		gpu.MemoryPropertyHostVisible|gpu.MemoryPropertyHostCoherent)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy()

	// Coherent memory, so no flush between the copy and the GPU read.
	err = staging.Write(0, payload)
	if err != nil {
		return nil, err
	}

	destination, err := u.allocator.CreateBuffer(size, gpu.BufferUsageTransferDst|usage, gpu.MemoryPropertyDeviceLocal)
	if err != nil {
		return nil, err
	}

	err = u.copyBuffer(staging, destination, size)
	if err != nil {
		destination.Destroy()
		return nil, err
	}

	if u.logger != nil {
		u.logger.Debug("uploaded buffer", "bytes", size, "usage", uint32(usage))
	}
	return destination, nil
}

func (u *Uploader) copyBuffer(src, dst *memory.Buffer, size int) error {
	buffers, err := u.ctx.Device.AllocateCommandBuffers(u.ctx.TransferPool, 1)
	if err != nil {
		return gpu.Fail(gpu.ErrCommandRecordingFailed, err, "allocate transfer command buffer")
	}
	defer u.ctx.Device.FreeCommandBuffers(buffers)

	buffer := buffers[0]
	err = buffer.Begin(gpu.CommandBufferUsageOneTimeSubmit)
	if err != nil {
		return gpu.Fail(gpu.ErrCommandRecordingFailed, err, "begin transfer command buffer")
	}

	err = buffer.CmdCopyBuffer(src.Handle, dst.Handle, []gpu.BufferCopy{
		{
			SrcOffset: 0,
			DstOffset: 0,
			Size:      size,
		},
	})
	if err != nil {
		return gpu.Fail(gpu.ErrCommandRecordingFailed, err, "record buffer copy")
	}

	err = buffer.End()
	if err != nil {
		return gpu.Fail(gpu.ErrCommandRecordingFailed, err, "end transfer command buffer")
	}

	err = u.ctx.TransferQueue.Submit(nil, []gpu.SubmitInfo{
		{
			CommandBuffers: []gpu.CommandBuffer{buffer},
		},
	})
	if err != nil {
		return gpu.Fail(gpu.ErrQueueSubmissionFailed, err, "submit buffer copy")
	}

	err = u.ctx.TransferQueue.WaitIdle()
	if err != nil {
		return gpu.Fail(gpu.ErrQueueSubmissionFailed, err, "wait for buffer copy")
	}

	return nil
}
