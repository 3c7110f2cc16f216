package commands

import (
	"reflect"
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/vulkan-renderer/internal/gpu"
	"github.com/vkngwrapper/vulkan-renderer/internal/gpu/gputest"
	"github.com/vkngwrapper/vulkan-renderer/internal/memory"
	"github.com/vkngwrapper/vulkan-renderer/internal/mesh"
	"github.com/vkngwrapper/vulkan-renderer/internal/upload"
)

func buildMeshes(t *testing.T, rig *gputest.Rig, data ...mesh.Data) []*mesh.Mesh {
	t.Helper()
	uploader := upload.NewUploader(rig.Context, memory.NewAllocator(rig.Device, nil), nil)
	var meshes []*mesh.Mesh
	for _, d := range data {
		m, err := mesh.New(uploader, d)
		if err != nil {
			t.Fatalf("mesh.New: %v", err)
		}
		meshes = append(meshes, m)
	}
	return meshes
}

func TestRecordPerImage(t *testing.T) {
	rig := gputest.NewRig(3)
	meshes := buildMeshes(t, rig,
		mesh.Data{Name: "indexed", Vertices: make([]mesh.Vertex, 4), Indices: []uint32{0, 1, 2, 2, 3, 0}},
		mesh.Data{Name: "plain", Vertices: make([]mesh.Vertex, 3)},
	)
	clear := gpu.ClearColor{0.6, 0.65, 0.4, 1}

	set, err := Record(rig.Context, meshes, clear)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if set.Len() != 3 {
		t.Fatalf("recorded %d buffers for 3 images", set.Len())
	}

	wantOps := []string{
		"BeginRenderPass",
		"BindPipeline",
		"BindVertexBuffers", "BindIndexBuffer", "DrawIndexed",
		"BindVertexBuffers", "Draw",
		"EndRenderPass",
	}

	for i := 0; i < set.Len(); i++ {
		cb := set.Buffer(i).(*gputest.CommandBuffer)
		if !cb.Ready {
			t.Errorf("buffer %d not ended", i)
		}
		if cb.Flags&gpu.CommandBufferUsageSimultaneousUse == 0 {
			t.Errorf("buffer %d not marked simultaneous use", i)
		}
		if ops := cb.Ops(); !reflect.DeepEqual(ops, wantOps) {
			t.Fatalf("buffer %d ops %v", i, ops)
		}

		begin := cb.Commands[0]
		if begin.Framebuffer != rig.Context.Framebuffers[i] {
			t.Errorf("buffer %d renders into the wrong framebuffer", i)
		}
		if begin.ClearColor != clear || begin.Extent != rig.Context.Extent {
			t.Errorf("buffer %d begin info %+v", i, begin)
		}
		if cb.Commands[2].Buffers[0] != meshes[0].VertexBuffer.Handle {
			t.Errorf("buffer %d binds wrong vertex buffer", i)
		}
		if cb.Commands[3].IndexType != gpu.IndexTypeUInt32 {
			t.Errorf("buffer %d index type %v", i, cb.Commands[3].IndexType)
		}
		if cb.Commands[4].Count != 6 || cb.Commands[6].Count != 3 {
			t.Errorf("buffer %d draw counts %d/%d", i, cb.Commands[4].Count, cb.Commands[6].Count)
		}
	}

	set.Free()
	set.Free()
	if rig.Device.Live("commandbuffer") != 0 {
		t.Error("command buffers leaked")
	}
}

func TestRecordFailures(t *testing.T) {
	boom := errors.New("VK_ERROR_OUT_OF_HOST_MEMORY")

	for _, op := range []string{"AllocateCommandBuffers", "Begin", "CmdBeginRenderPass", "End"} {
		t.Run(op, func(t *testing.T) {
			rig := gputest.NewRig(2)
			meshes := buildMeshes(t, rig, mesh.Data{Vertices: make([]mesh.Vertex, 3)})

			// Let the first image record so a later failure has work to undo.
			if op != "AllocateCommandBuffers" {
				rig.Device.FailOn(op, nil)
			}
			rig.Device.FailOn(op, boom)

			set, err := Record(rig.Context, meshes, gpu.ClearColor{})
			if !errors.Is(err, gpu.ErrCommandRecordingFailed) {
				t.Fatalf("expected ErrCommandRecordingFailed, got %v", err)
			}
			if set != nil {
				t.Error("set returned with error")
			}
			if n := rig.Device.Live("commandbuffer"); n != 0 {
				t.Errorf("%d command buffers leaked", n)
			}
		})
	}
}
