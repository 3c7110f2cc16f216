//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Compiles the GLSL sources in shaders/ to SPIR-V with glslc.
func (Build) Shaders() error {
	for _, s := range []struct{ src, out string }{
		{"shaders/shader.vert", "shaders/vert.spv"},
		{"shaders/shader.frag", "shaders/frag.spv"},
	} {
		if _, err := executeCmd("glslc", withArgs(s.src, "-o", s.out), withStream()); err != nil {
			return err
		}
	}
	return nil
}

// Builds the renderer binary into bin/.
func (Build) Renderer() error {
	mg.Deps(Build.Shaders)
	_, err := executeCmd("go", withArgs("build", "-o", "bin/vulkan-renderer", "./cmd/vulkan-renderer"), withStream())
	return err
}

// Runs the unit tests. None of them need a GPU.
func Test() error {
	_, err := executeCmd("go", withArgs("test", "./internal/..."), withStream())
	return err
}
