package main

import (
	"fmt"

	"adaptive-cache-service/internal/bench"
	"adaptive-cache-service/internal/trace"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	synthOutput string
	synthConfig = bench.DefaultSynthConfig()
)

var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Write a synthesized phased workload to a trace file",
	Long: `Write a synthesized workload, one command per line. The file is
compressed by extension (.zst, .gz).

Examples:
  ledis synth --output workload.txt.zst --phases 20 --seed 7`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lines, err := bench.Synthesize(synthConfig)
		if err != nil {
			return err
		}
		if err := trace.WriteFile(synthOutput, lines); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d commands to %s\n", len(lines), synthOutput)
		return nil
	},
}

func init() {
	synthCmd.Flags().StringVarP(&synthOutput, "output", "o", "", "trace file to write")
	_ = synthCmd.MarkFlagRequired("output")
	bindSynthFlags(synthCmd.Flags(), &synthConfig)
	rootCmd.AddCommand(synthCmd)
}

func bindSynthFlags(f *pflag.FlagSet, c *bench.SynthConfig) {
	f.IntVar(&c.Phases, "phases", c.Phases, "number of workload phases")
	f.IntVar(&c.WorkingSetSize, "working-set", c.WorkingSetSize, "hot keys per phase")
	f.IntVar(&c.CommandsPerPhase, "steps", c.CommandsPerPhase, "read steps per phase")
	f.IntVar(&c.Capacity, "synth-capacity", c.Capacity, "live keys tracked by the generator")
	f.Int64Var(&c.Seed, "synth-seed", c.Seed, "generator seed")
}
