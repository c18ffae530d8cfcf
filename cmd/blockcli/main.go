package main

import (
	"github.com/robotalks/blocks.go/pkg/cli/sh"

	_ "github.com/robotalks/blocks.go/pkg/cli/cmds/blocks"
)

//go-build: CGO_ENABLED=0

func main() {
	sh.Main()
}
