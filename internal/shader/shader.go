// Package shader loads compiled SPIR-V modules.
package shader

import (
	"io/fs"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/vulkan-renderer/internal/gpu"
)

const (
	VertexPath   = "shaders/vert.spv"
	FragmentPath = "shaders/frag.spv"
)

// Load reads name from fsys and returns its contents as SPIR-V words.
func Load(fsys fs.FS, name string) ([]uint32, error) {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, gpu.Fail(gpu.ErrShaderModuleCreationFailed, err, "read shader %s", name)
	}
	return decode(name, b)
}

// LoadFile is Load against the host filesystem, for paths that may be
// absolute.
func LoadFile(path string) ([]uint32, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, gpu.Fail(gpu.ErrShaderModuleCreationFailed, err, "read shader %s", path)
	}
	return decode(path, b)
}

func decode(name string, b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, gpu.Fail(gpu.ErrShaderModuleCreationFailed,
			errors.Newf("%d bytes is not a whole number of words", len(b)), "decode shader %s", name)
	}

	code := make([]uint32, len(b)/4)
	for i := range code {
		byteIndex := i * 4
		code[i] = uint32(b[byteIndex]) |
			uint32(b[byteIndex+1])<<8 |
			uint32(b[byteIndex+2])<<16 |
			uint32(b[byteIndex+3])<<24
	}
	return code, nil
}
