package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/talgya/syn-director/internal/storylet"
	"github.com/talgya/syn-director/internal/storyletio"
)

func compileCmd() *cobra.Command {
	var srcDir, outPath string

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile authored YAML storylets into a .synl library",
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := storylet.LoadDefinitionsDir(srcDir)
			if err != nil {
				return fmt.Errorf("load definitions: %w", err)
			}
			if len(defs) == 0 {
				return fmt.Errorf("no storylet definitions found under %q", srcDir)
			}

			lib, err := storylet.Compile(defs)
			if err != nil {
				return fmt.Errorf("compile: %w", err)
			}

			if err := storyletio.WriteFile(outPath, lib); err != nil {
				return fmt.Errorf("write library: %w", err)
			}

			slog.Info("compiled storylet library",
				"source_dir", srcDir,
				"definitions", len(defs),
				"storylets", lib.TotalCount(),
				"out", outPath,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&srcDir, "src", "storylets", "directory of authored *.yaml storylet definitions")
	cmd.Flags().StringVar(&outPath, "out", "storylets.synl", "path to write the compiled library to")
	return cmd
}
