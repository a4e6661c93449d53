package main

import (
	"github.com/robotalks/meter.go/pkg/cli/sh"
	"github.com/robotalks/meter.go/pkg/env"

	_ "github.com/robotalks/meter.go/pkg/cli/cmds/meter"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
