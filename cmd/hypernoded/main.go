package main

import (
	"os"

	"github.com/hypernode-network/hypernode/cmd/hypernoded/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
