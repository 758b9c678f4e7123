package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/talgya/syn-director/internal/demoworld"
	"github.com/talgya/syn-director/internal/director"
	"github.com/talgya/syn-director/internal/ids"
	"github.com/talgya/syn-director/internal/snapshot"
	"github.com/talgya/syn-director/internal/storylet"
	"github.com/talgya/syn-director/internal/storyletio"
	"github.com/talgya/syn-director/internal/tracedb"
	"github.com/talgya/syn-director/internal/worldview"
)

func runCmd() *cobra.Command {
	var libPath, cfgPath, tracePath, snapshotOutPath string
	var ticks int
	var npcCount int
	var seed int64

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drive the Director forward through a demo world and print step results",
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := uuid.New().String()
			logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
			logger = logger.With("run_id", runID)

			var lib *storylet.Library
			var cfg director.Config

			g := new(errgroup.Group)
			g.Go(func() error {
				var err error
				lib, err = storyletio.ReadFile(libPath)
				if err != nil {
					return fmt.Errorf("load library: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				var err error
				cfg, err = director.Load(cfgPath)
				if err != nil {
					logger.Warn("config file not found, using defaults", "path", cfgPath, "error", err)
					cfg = director.New()
				}
				return nil
			})
			if err := g.Wait(); err != nil {
				return err
			}

			logger.Info("loaded storylet library", "path", libPath, "storylets", humanize.Comma(int64(lib.TotalCount())))

			var trace *tracedb.DB
			if tracePath != "" {
				var err error
				trace, err = tracedb.Open(tracePath)
				if err != nil {
					return fmt.Errorf("open trace db: %w", err)
				}
				defer trace.Close()
			}

			d := director.New(ids.WorldSeed(seed), cfg, lib)
			d.Log = logger

			world := demoworld.New(npcCount)
			journal := demoworld.NewJournal(world)

			for i := 0; i < ticks; i++ {
				tick := d.State.Tick + 1
				ctx := &worldview.Context{World: world, Memory: journal, CurrentTick: tick}

				result, err := d.Step(tick, ctx)
				if err != nil {
					return fmt.Errorf("step %d: %w", tick, err)
				}

				if trace != nil {
					if err := trace.RecordStep(result); err != nil {
						logger.Warn("trace record failed", "tick", tick, "error", err)
					}
				}

				printStepResult(result)

				if cfg.Persistence.AutoSaveEnabled && snapshotOutPath != "" &&
					cfg.Persistence.AutoSaveInterval > 0 &&
					uint64(result.Tick)%cfg.Persistence.AutoSaveInterval == 0 {
					if err := saveSnapshot(snapshotOutPath, d, runID); err != nil {
						logger.Warn("snapshot save failed", "tick", tick, "error", err)
					}
				}
			}

			if snapshotOutPath != "" {
				if err := saveSnapshot(snapshotOutPath, d, runID); err != nil {
					return fmt.Errorf("final snapshot save: %w", err)
				}
				logger.Info("wrote final snapshot", "path", snapshotOutPath)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&libPath, "library", "storylets.synl", "compiled storylet library to run against")
	cmd.Flags().StringVar(&cfgPath, "config", "director.yaml", "Director config YAML (falls back to defaults if absent)")
	cmd.Flags().StringVar(&tracePath, "trace", "", "optional SQLite path to record step traces and counters to")
	cmd.Flags().StringVar(&snapshotOutPath, "snapshot", "", "optional path to periodically and finally save a .synd snapshot to")
	cmd.Flags().IntVar(&ticks, "ticks", 24, "number of ticks to step forward")
	cmd.Flags().IntVar(&npcCount, "npcs", 8, "number of demo NPCs to populate the world with")
	cmd.Flags().Int64Var(&seed, "seed", 1, "world seed for deterministic RNG streams")
	return cmd
}

func printStepResult(result director.StepResult) {
	if result.Fired != nil {
		fmt.Printf("tick %s: fired %s (forced=%v source=%s is_from_queue=%v)\n",
			humanize.Comma(int64(result.Tick)), result.Fired.Key, result.Fired.Forced, result.Fired.Source, result.Fired.IsFromQueue)
	} else {
		fmt.Printf("tick %s: no storylet fired\n", humanize.Comma(int64(result.Tick)))
	}
	if result.PhaseChanged {
		fmt.Println("  phase changed")
	}
	for _, soft := range result.SoftErrors {
		fmt.Printf("  soft error: %s\n", soft)
	}
}

func saveSnapshot(path string, d *director.Director, runID string) error {
	cfgVer := uint32(1)
	snap := &snapshot.Snapshot{
		State:         d.State,
		FormatVersion: 1,
		ConfigVersion: &cfgVer,
		RunID:         &runID,
	}
	return snapshot.WriteFile(path, snap)
}
