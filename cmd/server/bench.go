package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"adaptive-cache-service/internal/bench"
	"adaptive-cache-service/internal/logging"
	"adaptive-cache-service/internal/store/policy"
	"adaptive-cache-service/internal/trace"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	benchTrace      string
	benchPolicies   []string
	benchSeeds      []int64
	benchParallel   int
	benchFormat     string
	benchOutput     string
	benchS3Endpoint string
	benchS3Region   string
	benchSynth      = bench.DefaultSynthConfig()
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Replay a workload against every eviction policy",
	Long: `Replay a command trace, or a synthesized phased workload, against each
policy and seed, then report hit ratio and eviction accuracy.

Traces may be local files, s3://bucket/key or gs://bucket/object, and are
decompressed by extension (.zst, .gz).

Examples:
  ledis bench --window 20
  ledis bench --trace s3://traces/prod.txt.zst --window 500 --seeds 1,2,3,4,5
  ledis bench --policies lru,hybrid --format markdown --output report.md`,
	Args: cobra.NoArgs,
	RunE: runBench,
}

func init() {
	f := benchCmd.Flags()
	f.StringVarP(&benchTrace, "trace", "t", "", "trace location; synthesize a workload when empty")
	f.StringSliceVar(&benchPolicies, "policies", kindNames(), "policies to compare")
	f.Int64SliceVar(&benchSeeds, "seeds", []int64{1}, "seeds; each policy runs once per seed")
	f.IntVar(&benchParallel, "parallel", 0, "concurrent replays (default: GOMAXPROCS)")
	f.StringVarP(&benchFormat, "format", "f", "text", "output format: text, markdown")
	f.StringVarP(&benchOutput, "output", "o", "", "output file (default: stdout)")
	f.StringVar(&benchS3Endpoint, "s3-endpoint", "", "custom S3 endpoint, e.g. a MinIO URL")
	f.StringVar(&benchS3Region, "s3-region", "", "S3 region override")
	bindSynthFlags(f, &benchSynth)
	rootCmd.AddCommand(benchCmd)
}

func kindNames() []string {
	names := make([]string, len(policy.Kinds))
	for i, k := range policy.Kinds {
		names[i] = string(k)
	}
	return names
}

func runBench(cmd *cobra.Command, args []string) error {
	log, err := logging.New(cfg.LogLevel, cfg.Development)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	kinds := make([]policy.Kind, 0, len(benchPolicies))
	for _, name := range benchPolicies {
		k, err := policy.ParseKind(name)
		if err != nil {
			return err
		}
		kinds = append(kinds, k)
	}

	window := cfg.Window
	if window <= 0 {
		window = benchSynth.Capacity
		log.Info("no eviction window set, using synthesizer capacity", zap.Int("window", window))
	}

	commands, err := loadCommands(cmd, log)
	if err != nil {
		return err
	}
	log.Info("replaying workload",
		zap.Int("commands", len(commands)),
		zap.Strings("policies", benchPolicies),
		zap.Int64s("seeds", benchSeeds),
		zap.Int("window", window),
	)

	opts := []policy.Option{
		policy.WithRecentWindow(cfg.Delta),
		policy.WithLearningRate(cfg.LearningRate),
	}
	runs, err := bench.RunAll(cmd.Context(), bench.Config{
		Policies: kinds,
		Seeds:    benchSeeds,
		Window:   window,
		Options:  opts,
		Parallel: benchParallel,
		Logger:   log,
	}, commands)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if benchOutput != "" {
		f, err := os.Create(benchOutput)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	summaries := bench.Summarize(runs)
	switch benchFormat {
	case "markdown", "md":
		r := bench.NewMarkdownReport(out)
		r.WriteHeader("Eviction Policy Benchmark", time.Now())
		r.WriteMethodology(len(commands), window, benchSeeds)
		r.WriteSummaryTable(summaries)
		r.WriteBest(summaries)
		return nil
	case "text":
		return bench.WriteText(out, summaries)
	default:
		return fmt.Errorf("unknown output format %q", benchFormat)
	}
}

func loadCommands(cmd *cobra.Command, log *zap.Logger) ([]string, error) {
	if benchTrace == "" {
		log.Info("synthesizing workload", zap.Int("phases", benchSynth.Phases), zap.Int64("seed", benchSynth.Seed))
		return bench.Synthesize(benchSynth)
	}

	loc, err := trace.ParseLocation(benchTrace)
	if err != nil {
		return nil, err
	}
	var s3opts []trace.S3Option
	if benchS3Endpoint != "" {
		s3opts = append(s3opts, trace.WithEndpoint(benchS3Endpoint))
	}
	if benchS3Region != "" {
		s3opts = append(s3opts, trace.WithRegion(benchS3Region))
	}
	src, err := trace.SourceFor(cmd.Context(), loc, s3opts...)
	if err != nil {
		return nil, err
	}
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}

	commands, err := trace.Load(cmd.Context(), src, benchTrace)
	if err != nil {
		return nil, fmt.Errorf("loading trace: %w", err)
	}
	if len(commands) == 0 {
		return nil, fmt.Errorf("trace %s is empty", benchTrace)
	}
	return commands, nil
}
