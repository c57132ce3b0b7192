package main

import (
	"github.com/onflow/drand-fulfiller/cmd/fulfiller/cmd"
)

func main() {
	cmd.Execute()
}
