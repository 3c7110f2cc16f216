package renderer

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/vulkan-renderer/internal/gpu"
	"github.com/vkngwrapper/vulkan-renderer/internal/gpu/gputest"
	"github.com/vkngwrapper/vulkan-renderer/internal/scene"
)

// backendTeardown registers the rig's objects the way the vulkan backend
// registers its own.
func backendTeardown(rig *gputest.Rig) *gpu.Teardown {
	td := &gpu.Teardown{}
	td.Push("render pass", rig.Context.RenderPass.Destroy)
	td.Push("pipeline", rig.Context.Pipeline.Destroy)
	for _, fb := range rig.Context.Framebuffers {
		td.Push("framebuffer", fb.Destroy)
	}
	td.Push("command pool", rig.Pool.Destroy)
	return td
}

func indexOf(t *testing.T, events []string, prefix string, last bool) int {
	t.Helper()
	found := -1
	for i, e := range events {
		if strings.HasPrefix(e, prefix) {
			found = i
			if !last {
				break
			}
		}
	}
	if found < 0 {
		t.Fatalf("no %q event", prefix)
	}
	return found
}

func TestTwoQuadScene(t *testing.T) {
	rig := gputest.NewRig(3)
	td := backendTeardown(rig)
	base := td.Len()

	r, err := New(rig.Context, td, scene.DefaultQuads(), Options{
		MaxFramesInFlight: 2,
		ClearColor:        gpu.ClearColor{0, 0, 0, 1},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if td.Len() != base+1 {
		t.Fatalf("renderer registered %d teardown steps", td.Len()-base)
	}

	meshes := r.Meshes()
	if len(meshes) != 2 || meshes[0].IndexCount != 6 || meshes[1].IndexCount != 6 {
		t.Fatalf("meshes %+v", meshes)
	}

	for i := 0; i < 7; i++ {
		if err := r.Draw(); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}
	if r.Frames() != 7 {
		t.Errorf("Frames() = %d", r.Frames())
	}

	// Every image draws both quads, left then right. Uploads share the
	// queue and signal nothing.
	checked := 0
	for f, batch := range rig.Graphics.Submitted {
		if len(batch[0].SignalSemaphores) == 0 {
			continue
		}
		checked++
		cb := batch[0].CommandBuffers[0].(*gputest.CommandBuffer)
		var bound []gpu.Buffer
		draws := 0
		for _, cmd := range cb.Commands {
			switch cmd.Op {
			case "BindVertexBuffers":
				bound = append(bound, cmd.Buffers[0])
			case "DrawIndexed":
				draws++
			}
		}
		if len(bound) != 2 || bound[0] != meshes[0].VertexBuffer.Handle || bound[1] != meshes[1].VertexBuffer.Handle || draws != 2 {
			t.Fatalf("submission %d draws %d meshes in the wrong order", f, draws)
		}
	}
	if checked != 7 {
		t.Errorf("checked %d frame submissions", checked)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	for _, kind := range []string{"buffer", "memory", "semaphore", "fence", "commandbuffer", "pool"} {
		if n := rig.Device.Live(kind); n != 0 {
			t.Errorf("%d %s objects leaked", n, kind)
		}
	}

	events := rig.Device.Events[indexOf(t, rig.Device.Events, "device wait-idle", false):]
	order := []struct {
		prefix string
		last   bool
	}{
		{"device wait-idle", false},
		{"destroy buffer", true},
		{"destroy fence", false},
		{"free commandbuffer", true},
		{"destroy pool", false},
		{"destroy framebuffer", true},
		{"destroy pipeline", false},
		{"destroy renderpass", false},
	}
	prev := -1
	for _, o := range order {
		// Everything from the previous group must be gone before the next
		// group starts.
		first := indexOf(t, events, o.prefix, false)
		if first < prev {
			t.Errorf("%q started before the previous group finished", o.prefix)
		}
		prev = indexOf(t, events, o.prefix, true)
	}
}

func TestNewFailureReleasesEverything(t *testing.T) {
	tests := []struct {
		name  string
		setup func(d *gputest.Device)
		kind  error
	}{
		{
			name: "second mesh",
			setup: func(d *gputest.Device) {
				// Four buffers per indexed mesh: staging and destination for
				// vertices and for indices.
				for i := 0; i < 4; i++ {
					d.FailOn("CreateBuffer", nil)
				}
				d.FailOn("CreateBuffer", errors.New("VK_ERROR_OUT_OF_DEVICE_MEMORY"))
			},
			kind: gpu.ErrBufferCreationFailed,
		},
		{
			name: "recording",
			setup: func(d *gputest.Device) {
				d.FailOn("AllocateCommandBuffers", nil)
				d.FailOn("AllocateCommandBuffers", nil)
				d.FailOn("AllocateCommandBuffers", nil)
				d.FailOn("AllocateCommandBuffers", nil)
				d.FailOn("AllocateCommandBuffers", errors.New("VK_ERROR_OUT_OF_HOST_MEMORY"))
			},
			kind: gpu.ErrCommandRecordingFailed,
		},
		{
			name: "frame slots",
			setup: func(d *gputest.Device) {
				d.FailOn("CreateFence", errors.New("VK_ERROR_OUT_OF_HOST_MEMORY"))
			},
			kind: gpu.ErrSynchronizationObjectCreationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rig := gputest.NewRig(2)
			td := backendTeardown(rig)
			base := td.Len()
			tt.setup(rig.Device)

			_, err := New(rig.Context, td, scene.DefaultQuads(), Options{})
			if !errors.Is(err, tt.kind) {
				t.Fatalf("got %v, want %v", err, tt.kind)
			}
			if td.Len() != base {
				t.Error("failed renderer left a teardown step")
			}
			for _, kind := range []string{"buffer", "memory", "semaphore", "fence", "commandbuffer"} {
				if n := rig.Device.Live(kind); n != 0 {
					t.Errorf("%d %s objects leaked", n, kind)
				}
			}
		})
	}
}

func TestCloseReleasesAfterFailedWait(t *testing.T) {
	rig := gputest.NewRig(2)
	td := backendTeardown(rig)
	r, err := New(rig.Context, td, scene.DefaultQuads(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Draw(); err != nil {
		t.Fatal(err)
	}

	rig.Device.FailOn("WaitIdle", errors.New("VK_ERROR_DEVICE_LOST"))
	err = r.Close()
	if !errors.Is(err, gpu.ErrQueueSubmissionFailed) {
		t.Fatalf("got %v", err)
	}
	if td.Len() != 0 {
		t.Error("teardown not run")
	}
	if rig.Device.Live("buffer") != 0 {
		t.Errorf("%d buffers leaked", rig.Device.Live("buffer"))
	}
}
