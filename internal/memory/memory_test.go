package memory

import (
	"bytes"
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/vulkan-renderer/internal/gpu"
	"github.com/vkngwrapper/vulkan-renderer/internal/gpu/gputest"
)

const (
	deviceLocal  = gpu.MemoryPropertyDeviceLocal
	hostVisible  = gpu.MemoryPropertyHostVisible
	hostCoherent = gpu.MemoryPropertyHostCoherent
	hostCached   = gpu.MemoryPropertyHostCached
)

func TestFindMemoryType(t *testing.T) {
	types := []gpu.MemoryType{
		{PropertyFlags: deviceLocal},
		{PropertyFlags: hostVisible | hostCoherent},
		{PropertyFlags: hostVisible | hostCoherent | hostCached},
		{PropertyFlags: deviceLocal | hostVisible | hostCoherent},
	}

	tests := []struct {
		name     string
		mask     uint32
		required gpu.MemoryPropertyFlags
		want     int
		wantErr  bool
	}{
		{name: "device local", mask: 0xf, required: deviceLocal, want: 0},
		{name: "host coherent picks lowest", mask: 0xf, required: hostVisible | hostCoherent, want: 1},
		{name: "mask skips lower index", mask: 0x4, required: hostVisible | hostCoherent, want: 2},
		{name: "superset qualifies", mask: 0x8, required: hostVisible, want: 3},
		{name: "no requirements takes first allowed", mask: 0x6, required: 0, want: 1},
		{name: "device local via mask", mask: 0xe, required: deviceLocal, want: 3},
		{name: "nothing allowed", mask: 0, required: 0, wantErr: true},
		{name: "flags unsatisfied", mask: 0xf, required: hostCached | deviceLocal, wantErr: true},
		{name: "mask outside table", mask: 0x30, required: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindMemoryType(types, tt.mask, tt.required)
			if tt.wantErr {
				if !errors.Is(err, gpu.ErrMemoryTypeNotFound) {
					t.Fatalf("expected ErrMemoryTypeNotFound, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got index %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCreateBufferUsesDriverRequirement(t *testing.T) {
	dev := gputest.NewDevice()
	dev.Padding = 40
	alloc := NewAllocator(dev, nil)

	buf, err := alloc.CreateBuffer(24, gpu.BufferUsageVertexBuffer, hostVisible|hostCoherent)
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	if buf.Size != 24 {
		t.Errorf("size = %d, want 24", buf.Size)
	}
	if buf.AllocationSize != 64 {
		t.Errorf("allocation = %d, want 64", buf.AllocationSize)
	}
	if buf.MemoryType != 1 {
		t.Errorf("memory type = %d, want 1", buf.MemoryType)
	}
	if buf.Handle.(*gputest.Buffer).Memory != buf.Memory {
		t.Error("buffer not bound to its memory")
	}

	payload := []byte("twenty-four byte payload")
	if err := buf.Write(0, payload); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := gputest.Contents(buf.Handle); !bytes.Equal(got, payload) {
		t.Errorf("contents = %q", got)
	}

	buf.Destroy()
	buf.Destroy()
	if dev.Live("buffer") != 0 || dev.Live("memory") != 0 {
		t.Errorf("leaked buffer=%d memory=%d", dev.Live("buffer"), dev.Live("memory"))
	}
}

func TestCreateBufferFailures(t *testing.T) {
	boom := errors.New("VK_ERROR_OUT_OF_DEVICE_MEMORY")

	tests := []struct {
		name  string
		setup func(dev *gputest.Device)
		size  int
		props gpu.MemoryPropertyFlags
		kind  error
	}{
		{
			name: "zero size",
			size: 0,
			kind: gpu.ErrBufferCreationFailed,
		},
		{
			name:  "create fails",
			setup: func(dev *gputest.Device) { dev.FailOn("CreateBuffer", boom) },
			size:  16,
			kind:  gpu.ErrBufferCreationFailed,
		},
		{
			name:  "no memory type",
			setup: func(dev *gputest.Device) { dev.TypeBits = 0x1 },
			size:  16,
			props: hostVisible,
			kind:  gpu.ErrMemoryTypeNotFound,
		},
		{
			name:  "allocate fails",
			setup: func(dev *gputest.Device) { dev.FailOn("AllocateMemory", boom) },
			size:  16,
			kind:  gpu.ErrMemoryAllocationFailed,
		},
		{
			name:  "bind fails",
			setup: func(dev *gputest.Device) { dev.FailOn("BindMemory", boom) },
			size:  16,
			kind:  gpu.ErrMemoryAllocationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := gputest.NewDevice()
			if tt.setup != nil {
				tt.setup(dev)
			}

			_, err := NewAllocator(dev, nil).CreateBuffer(tt.size, gpu.BufferUsageTransferSrc, tt.props)
			if !errors.Is(err, tt.kind) {
				t.Fatalf("expected %v, got %v", tt.kind, err)
			}
			if dev.Live("buffer") != 0 || dev.Live("memory") != 0 {
				t.Errorf("leaked buffer=%d memory=%d", dev.Live("buffer"), dev.Live("memory"))
			}
		})
	}
}
