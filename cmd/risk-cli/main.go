// cmd/risk-cli/main.go
package main

import (
	"context"
	"fmt"
	"os"
)

var version = "v0.0.1-default"

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
