// Package main is the entry point for the anigrab application.
package main

import (
	"github.com/anigrab/anigrab/cmd"
	"github.com/anigrab/anigrab/config"
	"github.com/anigrab/anigrab/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
