package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/syn-director/internal/snapshot"
	"github.com/talgya/syn-director/internal/storyletio"
)

func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <path>",
		Short: "Print a summary of a compiled library (.synl) or snapshot (.synd)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			switch strings.ToLower(filepath.Ext(path)) {
			case ".synd":
				return inspectSnapshot(path)
			default:
				return inspectLibrary(path)
			}
		},
	}
	return cmd
}

func inspectLibrary(path string) error {
	lib, err := storyletio.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read library: %w", err)
	}
	fmt.Printf("storylet library: %s\n", path)
	fmt.Printf("  storylets: %s\n", humanize.Comma(int64(lib.TotalCount())))
	for _, key := range lib.IterAll() {
		s, ok := lib.GetByKey(key)
		if !ok {
			continue
		}
		fmt.Printf("  %s  %-30s domain=%-12s life_stage=%-10s heat=%d weight=%.2f\n",
			key, s.Name, s.Domain, s.LifeStage, s.Heat, s.Weight)
	}
	return nil
}

func inspectSnapshot(path string) error {
	snap, err := snapshot.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	fmt.Printf("director snapshot: %s\n", path)
	fmt.Printf("  format version: %d\n", snap.FormatVersion)
	if snap.ConfigVersion != nil {
		fmt.Printf("  config version: %d\n", *snap.ConfigVersion)
	}
	if snap.RunID != nil {
		fmt.Printf("  run id: %s\n", *snap.RunID)
	}
	fmt.Printf("  tick: %s\n", humanize.Comma(int64(snap.State.Tick)))
	fmt.Printf("  phase: %s (started tick %s)\n", snap.State.NarrativePhase, humanize.Comma(int64(snap.State.PhaseStartedAt)))
	fmt.Printf("  narrative heat: %.2f (momentum %.2f)\n", snap.State.NarrativeHeat, snap.State.HeatMomentum)
	fmt.Printf("  queued events: %d\n", snap.State.PendingQueue.Len())
	return nil
}
