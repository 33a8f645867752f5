/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// crdgen regenerates config/crd/bases/*.yaml from the api/v1beta1 Go
// types by shelling out to controller-gen, the same tool kubebuilder
// projects invoke from their Makefile's "manifests" target. Keeping this
// as a thin cmd/ wrapper rather than vendoring controller-gen's genall
// package as a library dependency means a plain "go install
// sigs.k8s.io/controller-tools/cmd/controller-gen@latest" is the only
// thing this binary requires on PATH; it carries no CRD output of its
// own, since CRD schema generation as a static, committed artifact is
// explicitly out of scope.
package main

import (
	"fmt"
	"os"
	"os/exec"
)

const (
	crdPaths  = "./api/..."
	outputDir = "config/crd/bases"
)

func run() error {
	toolPath, err := exec.LookPath("controller-gen")
	if err != nil {
		return fmt.Errorf("controller-gen not found on PATH: install it with " +
			"'go install sigs.k8s.io/controller-tools/cmd/controller-gen@latest'")
	}

	cmd := exec.Command(toolPath,
		"crd",
		"paths="+crdPaths,
		"output:crd:dir="+outputDir,
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "crdgen:", err)
		os.Exit(1)
	}
}
