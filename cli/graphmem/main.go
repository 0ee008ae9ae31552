package main

import (
	"os"

	graphmemcmder "github.com/graphmemco/graphmem/cmd/graphmem"
)

func main() {
	cmd := graphmemcmder.NewGraphmemCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
