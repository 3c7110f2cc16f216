// Package scene supplies the geometry the renderer draws.
package scene

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/vkngwrapper/vulkan-renderer/internal/mesh"
)

var quadIndices = []uint32{0, 1, 2, 2, 3, 0}

// DefaultQuads is the startup scene: two quads side by side.
func DefaultQuads() []mesh.Data {
	return []mesh.Data{
		{
			Name: "left quad",
			Vertices: []mesh.Vertex{
				{Position: mgl32.Vec3{-0.1, -0.4, 0}, Color: mgl32.Vec3{1, 0, 0}},
				{Position: mgl32.Vec3{-0.1, 0.4, 0}, Color: mgl32.Vec3{0, 1, 0}},
				{Position: mgl32.Vec3{-0.9, 0.4, 0}, Color: mgl32.Vec3{0, 0, 1}},
				{Position: mgl32.Vec3{-0.9, -0.4, 0}, Color: mgl32.Vec3{1, 1, 0}},
			},
			Indices: append([]uint32(nil), quadIndices...),
		},
		{
			Name: "right quad",
			Vertices: []mesh.Vertex{
				{Position: mgl32.Vec3{0.9, -0.4, 0}, Color: mgl32.Vec3{1, 0, 0}},
				{Position: mgl32.Vec3{0.9, 0.4, 0}, Color: mgl32.Vec3{0, 1, 0}},
				{Position: mgl32.Vec3{0.1, 0.4, 0}, Color: mgl32.Vec3{0, 0, 1}},
				{Position: mgl32.Vec3{0.1, -0.4, 0}, Color: mgl32.Vec3{1, 1, 0}},
			},
			Indices: append([]uint32(nil), quadIndices...),
		},
	}
}

// LoadOBJ decodes a Wavefront model into indexed geometry. Polygons are
// split into triangle fans and repeated positions share one vertex. OBJ has
// no vertex colors, so every vertex gets color. mtl may be nil.
func LoadOBJ(name string, model io.Reader, mtl io.Reader, color mgl32.Vec3) (mesh.Data, error) {
	if mtl == nil {
		mtl = strings.NewReader("")
	}

	decoder, err := obj.DecodeReader(model, mtl)
	if err != nil {
		return mesh.Data{}, errors.Wrapf(err, "decode model %q", name)
	}

	data := mesh.Data{Name: name}
	uniqueVertices := make(map[int]uint32)

	addVertex := func(face obj.Face, faceIndex int) error {
		vertInd := face.Vertices[faceIndex]
		index, vertexExists := uniqueVertices[vertInd]

		if !vertexExists {
			if vertInd < 0 || vertInd*3+2 >= len(decoder.Vertices) {
				return errors.Newf("model %q: face references vertex %d of %d", name, vertInd, len(decoder.Vertices)/3)
			}
			vert := mesh.Vertex{
				Position: mgl32.Vec3{
					decoder.Vertices[vertInd*3],
					decoder.Vertices[vertInd*3+1],
					decoder.Vertices[vertInd*3+2],
				},
				Color: color,
			}

			index = uint32(len(data.Vertices))
			data.Vertices = append(data.Vertices, vert)
			uniqueVertices[vertInd] = index
		}

		data.Indices = append(data.Indices, index)
		return nil
	}

	for _, decodedObj := range decoder.Objects {
		for _, face := range decodedObj.Faces {
			for i := 2; i < len(face.Vertices); i++ {
				for _, corner := range []int{0, i - 1, i} {
					if err := addVertex(face, corner); err != nil {
						return mesh.Data{}, err
					}
				}
			}
		}
	}

	if len(data.Vertices) == 0 {
		return mesh.Data{}, errors.Newf("model %q has no faces", name)
	}
	return data, nil
}

// LoadOBJFile reads the model at path, picking up a sibling .mtl file when
// one exists.
func LoadOBJFile(path string, color mgl32.Vec3) (mesh.Data, error) {
	model, err := os.Open(path)
	if err != nil {
		return mesh.Data{}, errors.Wrapf(err, "open model")
	}
	defer model.Close()

	var mtl io.Reader
	mtlPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".mtl"
	if f, err := os.Open(mtlPath); err == nil {
		defer f.Close()
		mtl = f
	}

	return LoadOBJ(filepath.Base(path), model, mtl, color)
}
