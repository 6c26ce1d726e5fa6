//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Demo runs the demo scene once.
func (Run) Demo() error {
	fmt.Println("Run umbrademo...")
	_, err := executeCmd("go", withArgs("run", ".", "-config", "scene.toml"), withDir("cmd/umbrademo"), withStream())
	return err
}

// Watch runs the demo scene and reloads it whenever scene.toml changes.
func (Run) Watch() error {
	mg.Deps(Check.Vet)
	_, err := executeCmd("go", withArgs("run", ".", "-config", "scene.toml", "-watch"), withDir("cmd/umbrademo"), withStream())
	return err
}
