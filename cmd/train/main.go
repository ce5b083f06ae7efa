// Command train drives the partial trainer from the command line: it can
// run a full pass over a dataset, expose a running session's metrics over
// HTTP, or dump the decoded top-1 path for one surface for debugging.
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "train",
		Short: "Train and inspect a hashed-perceptron lattice segmenter",
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newInspectFeaturesCmd())
	return root
}
