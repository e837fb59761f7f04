// protinfer - PSM FDR estimation and protein inference
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/ChrisMcGann/protinfer/cmd/protinfer/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
