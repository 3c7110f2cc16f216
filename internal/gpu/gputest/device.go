// Package gputest provides an in-memory gpu.Device for exercising the
// renderer without a GPU. Device memory is plain byte slices, recorded
// copies run when submitted, and submitted work only completes when its fence
// is waited on or the queue idles, which keeps in-flight frames observable.
package gputest

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/vulkan-renderer/internal/gpu"
)

// DefaultMemoryTypes is a small desktop-like memory table.
var DefaultMemoryTypes = []gpu.MemoryType{
	{PropertyFlags: gpu.MemoryPropertyDeviceLocal},
	{PropertyFlags: gpu.MemoryPropertyHostVisible | gpu.MemoryPropertyHostCoherent},
	{PropertyFlags: gpu.MemoryPropertyHostVisible | gpu.MemoryPropertyHostCoherent | gpu.MemoryPropertyHostCached},
}

type Device struct {
	Types []gpu.MemoryType
	// Padding is added to every buffer's reported memory requirement, the
	// way drivers round allocations up.
	Padding int
	// TypeBits overrides the memory types buffers accept. Zero means all.
	TypeBits uint32

	// Events is an ordered log of every call the device observed.
	Events []string

	// MaxPending is the largest number of fenced submissions that were
	// unresolved at the same time.
	MaxPending int

	failures map[string][]error
	live     map[string]int
	nextID   int
	pending  []*submission
	queues   []*Queue
}

type submission struct {
	queue   *Queue
	fence   *Fence
	buffers []*CommandBuffer
}

func NewDevice() *Device {
	types := make([]gpu.MemoryType, len(DefaultMemoryTypes))
	copy(types, DefaultMemoryTypes)
	return &Device{
		Types:    types,
		failures: map[string][]error{},
		live:     map[string]int{},
	}
}

// FailOn makes the next call to op return err. Queueing several failures for
// the same op fails that many consecutive calls.
func (d *Device) FailOn(op string, err error) {
	d.failures[op] = append(d.failures[op], err)
}

func (d *Device) fail(op string) error {
	errs := d.failures[op]
	if len(errs) == 0 {
		return nil
	}
	d.failures[op] = errs[1:]
	return errs[0]
}

func (d *Device) logf(format string, args ...interface{}) {
	d.Events = append(d.Events, fmt.Sprintf(format, args...))
}

func (d *Device) id() int {
	d.nextID++
	return d.nextID
}

// Live reports how many objects of kind are created and not yet released.
// Kinds are buffer, memory, semaphore, fence, commandbuffer and pool.
func (d *Device) Live(kind string) int {
	return d.live[kind]
}

// Pending reports how many fenced submissions are still unresolved.
func (d *Device) Pending() int {
	n := 0
	for _, s := range d.pending {
		if s.fence != nil {
			n++
		}
	}
	return n
}

func (d *Device) MemoryTypes() []gpu.MemoryType {
	return d.Types
}

func (d *Device) CreateBuffer(size int, usage gpu.BufferUsageFlags) (gpu.Buffer, error) {
	if err := d.fail("CreateBuffer"); err != nil {
		return nil, err
	}
	if size < 1 {
		return nil, errors.Newf("buffer size %d", size)
	}
	b := &Buffer{dev: d, ID: d.id(), Size: size, Usage: usage}
	d.live["buffer"]++
	d.logf("create buffer %d", b.ID)
	return b, nil
}

func (d *Device) AllocateMemory(size int, memoryTypeIndex int) (gpu.DeviceMemory, error) {
	if err := d.fail("AllocateMemory"); err != nil {
		return nil, err
	}
	if memoryTypeIndex < 0 || memoryTypeIndex >= len(d.Types) {
		return nil, errors.Newf("memory type %d out of range", memoryTypeIndex)
	}
	m := &Memory{dev: d, ID: d.id(), TypeIndex: memoryTypeIndex, Data: make([]byte, size)}
	d.live["memory"]++
	d.logf("allocate memory %d type %d", m.ID, memoryTypeIndex)
	return m, nil
}

func (d *Device) CreateSemaphore() (gpu.Semaphore, error) {
	if err := d.fail("CreateSemaphore"); err != nil {
		return nil, err
	}
	s := &Semaphore{dev: d, ID: d.id()}
	d.live["semaphore"]++
	return s, nil
}

func (d *Device) CreateFence(signaled bool) (gpu.Fence, error) {
	if err := d.fail("CreateFence"); err != nil {
		return nil, err
	}
	f := &Fence{dev: d, ID: d.id(), Signaled: signaled}
	d.live["fence"]++
	return f, nil
}

func (d *Device) NewCommandPool() *CommandPool {
	p := &CommandPool{dev: d, ID: d.id()}
	d.live["pool"]++
	return p
}

func (d *Device) AllocateCommandBuffers(pool gpu.CommandPool, count int) ([]gpu.CommandBuffer, error) {
	if err := d.fail("AllocateCommandBuffers"); err != nil {
		return nil, err
	}
	p, ok := pool.(*CommandPool)
	if !ok || p.Destroyed {
		return nil, errors.New("command pool is not live")
	}
	buffers := make([]gpu.CommandBuffer, 0, count)
	for i := 0; i < count; i++ {
		cb := &CommandBuffer{dev: d, ID: d.id(), Pool: p}
		d.live["commandbuffer"]++
		buffers = append(buffers, cb)
	}
	d.logf("allocate commandbuffers %d", count)
	return buffers, nil
}

func (d *Device) FreeCommandBuffers(buffers []gpu.CommandBuffer) {
	for _, b := range buffers {
		cb := b.(*CommandBuffer)
		if cb.Freed {
			panic(fmt.Sprintf("command buffer %d freed twice", cb.ID))
		}
		cb.Freed = true
		d.live["commandbuffer"]--
		d.logf("free commandbuffer %d", cb.ID)
	}
}

func (d *Device) WaitIdle() error {
	if err := d.fail("WaitIdle"); err != nil {
		return err
	}
	for len(d.pending) > 0 {
		d.complete(d.pending[0])
	}
	d.logf("device wait-idle")
	return nil
}

// NewQueue creates a queue that submits work against this device.
func (d *Device) NewQueue(name string) *Queue {
	q := &Queue{dev: d, Name: name}
	d.queues = append(d.queues, q)
	return q
}

func (d *Device) complete(s *submission) {
	for i, p := range d.pending {
		if p == s {
			d.pending = append(d.pending[:i], d.pending[i+1:]...)
			break
		}
	}
	for _, cb := range s.buffers {
		cb.pending--
	}
	if s.fence != nil {
		s.fence.pending = nil
		s.fence.Signaled = true
	}
}

type Buffer struct {
	dev       *Device
	ID        int
	Size      int
	Usage     gpu.BufferUsageFlags
	Memory    *Memory
	Destroyed bool
}

func (b *Buffer) MemoryRequirements() gpu.MemoryRequirements {
	bits := b.dev.TypeBits
	if bits == 0 {
		bits = uint32(1)<<uint(len(b.dev.Types)) - 1
	}
	return gpu.MemoryRequirements{
		Size:           b.Size + b.dev.Padding,
		Alignment:      16,
		MemoryTypeBits: bits,
	}
}

func (b *Buffer) BindMemory(memory gpu.DeviceMemory, offset int) error {
	if err := b.dev.fail("BindMemory"); err != nil {
		return err
	}
	m := memory.(*Memory)
	if len(m.Data)-offset < b.Size {
		return errors.Newf("memory %d too small for buffer %d", m.ID, b.ID)
	}
	b.Memory = m
	b.dev.logf("bind buffer %d memory %d", b.ID, m.ID)
	return nil
}

func (b *Buffer) Destroy() {
	if b.Destroyed {
		panic(fmt.Sprintf("buffer %d destroyed twice", b.ID))
	}
	b.Destroyed = true
	b.dev.live["buffer"]--
	b.dev.logf("destroy buffer %d", b.ID)
}

// Contents returns a copy of the bytes backing b, regardless of the memory
// type it is bound to.
func Contents(b gpu.Buffer) []byte {
	fb := b.(*Buffer)
	if fb.Memory == nil {
		return nil
	}
	out := make([]byte, fb.Size)
	copy(out, fb.Memory.Data)
	return out
}

type Memory struct {
	dev       *Device
	ID        int
	TypeIndex int
	Data      []byte
	Mapped    bool
	Freed     bool
}

func (m *Memory) Map(offset, size int) ([]byte, error) {
	if err := m.dev.fail("Map"); err != nil {
		return nil, err
	}
	if !m.dev.Types[m.TypeIndex].PropertyFlags.Has(gpu.MemoryPropertyHostVisible) {
		return nil, errors.Newf("memory %d is not host visible", m.ID)
	}
	if m.Mapped {
		return nil, errors.Newf("memory %d already mapped", m.ID)
	}
	if offset < 0 || offset+size > len(m.Data) {
		return nil, errors.Newf("map range %d+%d outside memory %d", offset, size, m.ID)
	}
	m.Mapped = true
	m.dev.logf("map memory %d", m.ID)
	return m.Data[offset : offset+size], nil
}

func (m *Memory) Unmap() {
	m.Mapped = false
	m.dev.logf("unmap memory %d", m.ID)
}

func (m *Memory) Free() {
	if m.Freed {
		panic(fmt.Sprintf("memory %d freed twice", m.ID))
	}
	m.Freed = true
	m.dev.live["memory"]--
	m.dev.logf("free memory %d", m.ID)
}

type Semaphore struct {
	dev       *Device
	ID        int
	Signaled  bool
	Destroyed bool
}

func (s *Semaphore) Destroy() {
	s.Destroyed = true
	s.dev.live["semaphore"]--
	s.dev.logf("destroy semaphore %d", s.ID)
}

type Fence struct {
	dev       *Device
	ID        int
	Signaled  bool
	Destroyed bool
	pending   *submission
}

func (f *Fence) Wait(timeout time.Duration) error {
	if err := f.dev.fail("FenceWait"); err != nil {
		return err
	}
	f.dev.logf("wait fence %d", f.ID)
	if f.Signaled {
		return nil
	}
	if f.pending == nil {
		return errors.Newf("fence %d is unsignaled with no work pending; wait would never return", f.ID)
	}
	f.dev.complete(f.pending)
	return nil
}

func (f *Fence) Reset() error {
	if err := f.dev.fail("FenceReset"); err != nil {
		return err
	}
	if f.pending != nil {
		return errors.Newf("fence %d reset while its work is pending", f.ID)
	}
	f.Signaled = false
	f.dev.logf("reset fence %d", f.ID)
	return nil
}

func (f *Fence) Destroy() {
	f.Destroyed = true
	f.dev.live["fence"]--
	f.dev.logf("destroy fence %d", f.ID)
}

type CommandPool struct {
	dev       *Device
	ID        int
	Destroyed bool
}

func (p *CommandPool) Destroy() {
	p.Destroyed = true
	p.dev.live["pool"]--
	p.dev.logf("destroy pool %d", p.ID)
}

// Object stands in for render passes, framebuffers and pipelines.
type Object struct {
	dev       *Device
	Kind      string
	ID        int
	Destroyed bool
}

func (d *Device) NewObject(kind string) *Object {
	return &Object{dev: d, Kind: kind, ID: d.id()}
}

func (o *Object) Destroy() {
	o.Destroyed = true
	o.dev.logf("destroy %s %d", o.Kind, o.ID)
}
