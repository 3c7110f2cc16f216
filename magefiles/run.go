//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Compiles the shaders and starts the renderer with config.toml.
func (Run) Renderer() error {
	mg.Deps(Build.Shaders)
	_, err := executeCmd("go", withArgs("run", "./cmd/vulkan-renderer", "-config", "config.toml"), withStream())
	return err
}
