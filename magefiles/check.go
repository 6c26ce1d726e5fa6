//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Check mg.Namespace

// Test runs the unit tests with the race detector.
func (Check) Test() error {
	_, err := executeCmd("go", withArgs("test", "-race", "-count=1", "./..."), withStream())
	return err
}

// Vet runs go vet over the module.
func (Check) Vet() error {
	_, err := executeCmd("go", withArgs("vet", "./..."), withStream())
	return err
}

// Bench runs the allocator and binning benchmarks.
func (Check) Bench() error {
	_, err := executeCmd("go",
		withArgs("test", "-run=^$", "-bench=.", "-benchmem", "./alloc/...", "./binning/...", "./silhouette/..."),
		withStream())
	return err
}

// All runs vet and then the tests.
func (Check) All() {
	mg.SerialDeps(Check.Vet, Check.Test)
}
