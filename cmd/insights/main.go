// Command insights runs the live investment insights dashboard.
package main

import (
	"context"
	"fmt"
	"os"

	"insights-dashboard/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
