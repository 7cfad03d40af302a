// file: main.go
// version: 1.0.0
// guid: 5b0c7f2e-9a4d-4c6b-7e1f-3d8a6b9c2f5e

package main

import (
	"fmt"
	"os"

	"github.com/jdfalk/abs-meta/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
