// Package main is the entry point for livetv.
package main

import (
	"github.com/livetv-cli/livetv/cmd"
	"github.com/livetv-cli/livetv/config"
	"github.com/livetv-cli/livetv/internal/cache"
	"github.com/livetv-cli/livetv/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	go cache.CollectGarbage()

	cmd.Execute()
}
