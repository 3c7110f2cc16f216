// Package mesh owns the GPU buffers for one piece of scene geometry.
package mesh

import (
	"github.com/google/uuid"

	"github.com/vkngwrapper/vulkan-renderer/internal/gpu"
	"github.com/vkngwrapper/vulkan-renderer/internal/memory"
	"github.com/vkngwrapper/vulkan-renderer/internal/upload"
)

// Data is CPU-side geometry waiting to be uploaded. Indices may be empty, in
// which case the vertices are drawn in order.
type Data struct {
	Name     string
	Vertices []Vertex
	Indices  []uint32
}

type Mesh struct {
	ID   uuid.UUID
	Name string

	VertexBuffer *memory.Buffer
	VertexCount  int

	// IndexBuffer is nil for non-indexed meshes.
	IndexBuffer *memory.Buffer
	IndexCount  int
}

// New uploads data into device-local vertex and index buffers.
func New(uploader *upload.Uploader, data Data) (*Mesh, error) {
	vertexBytes, err := encode(data.Vertices)
	if err != nil {
		return nil, gpu.Fail(gpu.ErrBufferCreationFailed, err, "encode vertices of mesh %q", data.Name)
	}

	m := &Mesh{
		ID:          uuid.New(),
		Name:        data.Name,
		VertexCount: len(data.Vertices),
	}

	m.VertexBuffer, err = uploader.Upload(vertexBytes, gpu.BufferUsageVertexBuffer)
	if err != nil {
		return nil, err
	}

	if len(data.Indices) > 0 {
		indexBytes, err := encode(data.Indices)
		if err != nil {
			m.Destroy()
			return nil, gpu.Fail(gpu.ErrBufferCreationFailed, err, "encode indices of mesh %q", data.Name)
		}

		m.IndexBuffer, err = uploader.Upload(indexBytes, gpu.BufferUsageIndexBuffer)
		if err != nil {
			m.Destroy()
			return nil, err
		}
		m.IndexCount = len(data.Indices)
	}

	return m, nil
}

func (m *Mesh) Indexed() bool {
	return m.IndexBuffer != nil
}

// Destroy releases the index buffer, then the vertex buffer.
func (m *Mesh) Destroy() {
	if m.IndexBuffer != nil {
		m.IndexBuffer.Destroy()
		m.IndexBuffer = nil
	}
	if m.VertexBuffer != nil {
		m.VertexBuffer.Destroy()
		m.VertexBuffer = nil
	}
}
