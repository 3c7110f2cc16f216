// Package frame runs the per-frame acquire, submit and present cycle across
// a fixed ring of frame slots.
package frame

import (
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/vulkan-renderer/internal/commands"
	"github.com/vkngwrapper/vulkan-renderer/internal/gpu"
)

// DefaultMaxFramesInFlight bounds how far the CPU may run ahead of the GPU.
const DefaultMaxFramesInFlight = 2

// SlotState tracks a slot through one frame. A slot stays Presenting, with
// its fence possibly unsignaled, until the next Draw that reuses it.
type SlotState int

const (
	Idle SlotState = iota
	Acquiring
	Submitted
	Presenting
)

func (s SlotState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Acquiring:
		return "Acquiring"
	case Submitted:
		return "Submitted"
	case Presenting:
		return "Presenting"
	}
	return "Unknown"
}

// Slot is the synchronization state for one frame in flight. The fence is
// created signaled so the first wait on each slot returns immediately.
type Slot struct {
	ImageAvailable gpu.Semaphore
	RenderFinished gpu.Semaphore
	InFlight       gpu.Fence
	State          SlotState
}

func (s *Slot) destroy() {
	if s.InFlight != nil {
		s.InFlight.Destroy()
		s.InFlight = nil
	}
	if s.RenderFinished != nil {
		s.RenderFinished.Destroy()
		s.RenderFinished = nil
	}
	if s.ImageAvailable != nil {
		s.ImageAvailable.Destroy()
		s.ImageAvailable = nil
	}
}

// Scheduler submits the pre-recorded command buffer of whichever image the
// swapchain hands out. Command buffers are chosen by image index and
// semaphores and fences by slot index; the two are never interchanged.
type Scheduler struct {
	ctx      *gpu.Context
	commands *commands.Set
	logger   *log.Logger

	slots   []Slot
	current int
	frames  uint64

	// imagesInFlight holds, per swapchain image, the fence of the last
	// submission that rendered into it.
	imagesInFlight []gpu.Fence
}

func NewScheduler(ctx *gpu.Context, cmds *commands.Set, maxFramesInFlight int, logger *log.Logger) (*Scheduler, error) {
	if maxFramesInFlight < 1 {
		return nil, gpu.Fail(gpu.ErrSynchronizationObjectCreationFailed, nil,
			"need at least one frame in flight, got %d", maxFramesInFlight)
	}
	if cmds.Len() != ctx.ImageCount() {
		return nil, errors.AssertionFailedf("%d command buffers for %d swapchain images", cmds.Len(), ctx.ImageCount())
	}

	s := &Scheduler{
		ctx:            ctx,
		commands:       cmds,
		logger:         logger,
		slots:          make([]Slot, maxFramesInFlight),
		imagesInFlight: make([]gpu.Fence, ctx.ImageCount()),
	}

	for i := range s.slots {
		err := s.createSlot(&s.slots[i])
		if err != nil {
			s.Destroy()
			return nil, gpu.Fail(gpu.ErrSynchronizationObjectCreationFailed, err, "create sync objects for frame slot %d", i)
		}
	}

	if logger != nil {
		logger.Debug("frame scheduler ready", "slots", maxFramesInFlight, "images", ctx.ImageCount())
	}
	return s, nil
}

func (s *Scheduler) createSlot(slot *Slot) error {
	var err error
	slot.ImageAvailable, err = s.ctx.Device.CreateSemaphore()
	if err != nil {
		return err
	}

	slot.RenderFinished, err = s.ctx.Device.CreateSemaphore()
	if err != nil {
		return err
	}

	slot.InFlight, err = s.ctx.Device.CreateFence(true)
	return err
}

// Draw renders and presents one frame. It blocks only until the slot it is
// about to reuse, and the image it acquired, are no longer in use by the GPU.
func (s *Scheduler) Draw() error {
	slot := &s.slots[s.current]

	err := slot.InFlight.Wait(gpu.NoTimeout)
	if err != nil {
		return gpu.Fail(gpu.ErrQueueSubmissionFailed, err, "wait for frame slot %d", s.current)
	}

	slot.State = Acquiring

	imageIndex, err := s.ctx.Swapchain.AcquireNextImage(gpu.NoTimeout, slot.ImageAvailable)
	if err != nil {
		return gpu.Fail(gpu.ErrPresentFailed, err, "acquire swapchain image")
	}
	if imageIndex < 0 || imageIndex >= len(s.imagesInFlight) {
		return gpu.Fail(gpu.ErrPresentFailed, nil, "swapchain returned image %d of %d", imageIndex, len(s.imagesInFlight))
	}

	// The image may still be rendering under another slot's submission.
	if previous := s.imagesInFlight[imageIndex]; previous != nil && previous != slot.InFlight {
		err = previous.Wait(gpu.NoTimeout)
		if err != nil {
			return gpu.Fail(gpu.ErrQueueSubmissionFailed, err, "wait for image %d", imageIndex)
		}
	}
	s.imagesInFlight[imageIndex] = slot.InFlight

	err = slot.InFlight.Reset()
	if err != nil {
		return gpu.Fail(gpu.ErrQueueSubmissionFailed, err, "reset fence of frame slot %d", s.current)
	}

	err = s.ctx.GraphicsQueue.Submit(slot.InFlight, []gpu.SubmitInfo{
		{
			WaitSemaphores:   []gpu.Semaphore{slot.ImageAvailable},
			WaitDstStageMask: []gpu.PipelineStageFlags{gpu.PipelineStageColorAttachmentOutput},
			CommandBuffers:   []gpu.CommandBuffer{s.commands.Buffer(imageIndex)},
			SignalSemaphores: []gpu.Semaphore{slot.RenderFinished},
		},
	})
	if err != nil {
		return gpu.Fail(gpu.ErrQueueSubmissionFailed, err, "submit image %d", imageIndex)
	}
	slot.State = Submitted

	err = s.ctx.Swapchain.Present(s.ctx.PresentQueue, []gpu.Semaphore{slot.RenderFinished}, imageIndex)
	if err != nil {
		return gpu.Fail(gpu.ErrPresentFailed, err, "present image %d", imageIndex)
	}
	slot.State = Presenting

	s.current = (s.current + 1) % len(s.slots)
	s.frames++
	return nil
}

// CurrentSlot is the slot the next Draw will use.
func (s *Scheduler) CurrentSlot() int {
	return s.current
}

func (s *Scheduler) SlotState(slot int) SlotState {
	return s.slots[slot].State
}

// Frames is the number of frames presented so far.
func (s *Scheduler) Frames() uint64 {
	return s.frames
}

// Destroy releases the sync objects of every slot. The device must be idle.
func (s *Scheduler) Destroy() {
	for i := range s.slots {
		s.slots[i].destroy()
		s.slots[i].State = Idle
	}
	for i := range s.imagesInFlight {
		s.imagesInFlight[i] = nil
	}
}
