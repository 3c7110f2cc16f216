package gputest

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/vulkan-renderer/internal/gpu"
)

// Command is one recorded command buffer entry.
type Command struct {
	Op          string
	Buffers     []gpu.Buffer
	Regions     []gpu.BufferCopy
	Pipeline    gpu.Pipeline
	Framebuffer gpu.Framebuffer
	RenderPass  gpu.RenderPass
	Extent      gpu.Extent2D
	ClearColor  gpu.ClearColor
	IndexType   gpu.IndexType
	Count       int
}

type CommandBuffer struct {
	dev       *Device
	ID        int
	Pool      *CommandPool
	Flags     gpu.CommandBufferUsageFlags
	Commands  []Command
	Recording bool
	Ready     bool
	Freed     bool
	// Submissions counts how many times the buffer was submitted.
	Submissions int
	// MaxPending is the most submissions of this buffer unresolved at once.
	MaxPending int

	pending int
}

func (c *CommandBuffer) Begin(flags gpu.CommandBufferUsageFlags) error {
	if err := c.dev.fail("Begin"); err != nil {
		return err
	}
	if c.pending > 0 {
		return errors.Newf("command buffer %d re-recorded while pending", c.ID)
	}
	c.Flags = flags
	c.Commands = nil
	c.Recording = true
	c.Ready = false
	return nil
}

func (c *CommandBuffer) End() error {
	if err := c.dev.fail("End"); err != nil {
		return err
	}
	if !c.Recording {
		return errors.Newf("command buffer %d ended without begin", c.ID)
	}
	c.Recording = false
	c.Ready = true
	return nil
}

func (c *CommandBuffer) record(cmd Command) {
	c.Commands = append(c.Commands, cmd)
}

func (c *CommandBuffer) CmdCopyBuffer(src, dst gpu.Buffer, regions []gpu.BufferCopy) error {
	if err := c.dev.fail("CmdCopyBuffer"); err != nil {
		return err
	}
	c.record(Command{Op: "CopyBuffer", Buffers: []gpu.Buffer{src, dst}, Regions: regions})
	return nil
}

func (c *CommandBuffer) CmdBeginRenderPass(info gpu.RenderPassBeginInfo) error {
	if err := c.dev.fail("CmdBeginRenderPass"); err != nil {
		return err
	}
	c.record(Command{
		Op:          "BeginRenderPass",
		RenderPass:  info.RenderPass,
		Framebuffer: info.Framebuffer,
		Extent:      info.Extent,
		ClearColor:  info.ClearColor,
	})
	return nil
}

func (c *CommandBuffer) CmdBindPipeline(pipeline gpu.Pipeline) {
	c.record(Command{Op: "BindPipeline", Pipeline: pipeline})
}

func (c *CommandBuffer) CmdBindVertexBuffers(firstBinding int, buffers []gpu.Buffer, offsets []int) {
	c.record(Command{Op: "BindVertexBuffers", Buffers: buffers, Count: firstBinding})
}

func (c *CommandBuffer) CmdBindIndexBuffer(buffer gpu.Buffer, offset int, indexType gpu.IndexType) {
	c.record(Command{Op: "BindIndexBuffer", Buffers: []gpu.Buffer{buffer}, IndexType: indexType})
}

func (c *CommandBuffer) CmdDraw(vertexCount, instanceCount, firstVertex, firstInstance int) {
	c.record(Command{Op: "Draw", Count: vertexCount})
}

func (c *CommandBuffer) CmdDrawIndexed(indexCount, instanceCount, firstIndex, vertexOffset, firstInstance int) {
	c.record(Command{Op: "DrawIndexed", Count: indexCount})
}

func (c *CommandBuffer) CmdEndRenderPass() {
	c.record(Command{Op: "EndRenderPass"})
}

// Ops lists the recorded command names in order.
func (c *CommandBuffer) Ops() []string {
	ops := make([]string, len(c.Commands))
	for i, cmd := range c.Commands {
		ops[i] = cmd.Op
	}
	return ops
}

func (c *CommandBuffer) execute() error {
	for _, cmd := range c.Commands {
		if cmd.Op != "CopyBuffer" {
			continue
		}
		src, dst := cmd.Buffers[0].(*Buffer), cmd.Buffers[1].(*Buffer)
		if src.Memory == nil || dst.Memory == nil {
			return errors.New("copy between buffers without bound memory")
		}
		for _, r := range cmd.Regions {
			if r.SrcOffset+r.Size > src.Size || r.DstOffset+r.Size > dst.Size {
				return errors.Newf("copy region %+v out of bounds", r)
			}
			copy(dst.Memory.Data[r.DstOffset:r.DstOffset+r.Size], src.Memory.Data[r.SrcOffset:r.SrcOffset+r.Size])
		}
	}
	return nil
}

type Queue struct {
	dev  *Device
	Name string
	// Submitted records every submit batch in order.
	Submitted [][]gpu.SubmitInfo
}

func (q *Queue) Submit(fence gpu.Fence, infos []gpu.SubmitInfo) error {
	if err := q.dev.fail("Submit"); err != nil {
		return err
	}

	var f *Fence
	if fence != nil {
		f = fence.(*Fence)
		if f.Signaled || f.pending != nil {
			return errors.Newf("fence %d submitted while not reset", f.ID)
		}
	}

	s := &submission{queue: q, fence: f}
	for _, info := range infos {
		for _, w := range info.WaitSemaphores {
			sem := w.(*Semaphore)
			if !sem.Signaled {
				return errors.Newf("submit waits on semaphore %d which will never signal", sem.ID)
			}
			sem.Signaled = false
		}
		for _, b := range info.CommandBuffers {
			cb := b.(*CommandBuffer)
			if cb.Freed || !cb.Ready {
				return errors.Newf("command buffer %d is not executable", cb.ID)
			}
			if cb.pending > 0 && cb.Flags&gpu.CommandBufferUsageSimultaneousUse == 0 {
				return errors.Newf("command buffer %d resubmitted while pending", cb.ID)
			}
			if err := cb.execute(); err != nil {
				return err
			}
			cb.pending++
			cb.Submissions++
			if cb.pending > cb.MaxPending {
				cb.MaxPending = cb.pending
			}
			s.buffers = append(s.buffers, cb)
		}
		for _, sig := range info.SignalSemaphores {
			sem := sig.(*Semaphore)
			if sem.Signaled {
				return errors.Newf("semaphore %d signaled twice", sem.ID)
			}
			sem.Signaled = true
		}
	}

	q.Submitted = append(q.Submitted, infos)
	q.dev.pending = append(q.dev.pending, s)
	if f != nil {
		f.pending = s
		if p := q.dev.Pending(); p > q.dev.MaxPending {
			q.dev.MaxPending = p
		}
		q.dev.logf("submit %s fence %d", q.Name, f.ID)
	} else {
		q.dev.logf("submit %s", q.Name)
	}
	return nil
}

func (q *Queue) WaitIdle() error {
	if err := q.dev.fail("QueueWaitIdle"); err != nil {
		return err
	}
	var mine []*submission
	for _, s := range q.dev.pending {
		if s.queue == q {
			mine = append(mine, s)
		}
	}
	for _, s := range mine {
		q.dev.complete(s)
	}
	q.dev.logf("wait-idle %s", q.Name)
	return nil
}

type Swapchain struct {
	dev    *Device
	Images int
	// Order is the sequence of image indices acquisition hands out, cycled.
	// Empty means round robin.
	Order []int
	// Presented lists presented image indices in order.
	Presented []int

	acquired int
}

func (s *Swapchain) ImageCount() int {
	return s.Images
}

func (s *Swapchain) AcquireNextImage(timeout time.Duration, signal gpu.Semaphore) (int, error) {
	if err := s.dev.fail("Acquire"); err != nil {
		return 0, err
	}
	sem := signal.(*Semaphore)
	if sem.Signaled {
		return 0, errors.Newf("acquire signals semaphore %d which is already signaled", sem.ID)
	}

	var index int
	if len(s.Order) > 0 {
		index = s.Order[s.acquired%len(s.Order)]
	} else {
		index = s.acquired % s.Images
	}
	s.acquired++

	sem.Signaled = true
	s.dev.logf("acquire %d", index)
	return index, nil
}

func (s *Swapchain) Present(queue gpu.Queue, wait []gpu.Semaphore, imageIndex int) error {
	if err := s.dev.fail("Present"); err != nil {
		return err
	}
	for _, w := range wait {
		sem := w.(*Semaphore)
		if !sem.Signaled {
			return errors.Newf("present waits on semaphore %d which will never signal", sem.ID)
		}
		sem.Signaled = false
	}
	s.Presented = append(s.Presented, imageIndex)
	s.dev.logf("present %d", imageIndex)
	return nil
}

// Rig is a complete fake render context plus handles to the fakes behind it.
type Rig struct {
	Context   *gpu.Context
	Device    *Device
	Graphics  *Queue
	Present   *Queue
	Swapchain *Swapchain
	Pool      *CommandPool
}

// NewRig builds a context with imageCount swapchain images. Uploads run on
// the graphics queue and pool, matching a single-family device.
func NewRig(imageCount int) *Rig {
	dev := NewDevice()
	graphics := dev.NewQueue("graphics")
	present := dev.NewQueue("present")
	pool := dev.NewCommandPool()
	sc := &Swapchain{dev: dev, Images: imageCount}

	framebuffers := make([]gpu.Framebuffer, imageCount)
	for i := range framebuffers {
		framebuffers[i] = dev.NewObject("framebuffer")
	}

	ctx := &gpu.Context{
		Device:        dev,
		GraphicsQueue: graphics,
		PresentQueue:  present,
		TransferQueue: graphics,
		CommandPool:   pool,
		TransferPool:  pool,
		Swapchain:     sc,
		Extent:        gpu.Extent2D{Width: 800, Height: 600},
		RenderPass:    dev.NewObject("renderpass"),
		Pipeline:      dev.NewObject("pipeline"),
		Framebuffers:  framebuffers,
	}

	return &Rig{
		Context:   ctx,
		Device:    dev,
		Graphics:  graphics,
		Present:   present,
		Swapchain: sc,
		Pool:      pool,
	}
}
