// Command director is the CLI front end for the narrative event
// director: compiling authored storylet content, inspecting compiled
// libraries and snapshots, and driving a demo world through the step
// loop.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "director",
		Short: "Narrative event director toolkit",
		Long: "director compiles authored storylet content into a runtime\n" +
			"library, inspects compiled libraries and saved snapshots, and\n" +
			"drives the Director step loop against a demo world.",
	}

	root.AddCommand(
		compileCmd(),
		inspectCmd(),
		runCmd(),
		serveCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
