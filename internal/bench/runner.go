package bench

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"adaptive-cache-service/internal/core/service"
	"adaptive-cache-service/internal/eviction"
	"adaptive-cache-service/internal/store"
	"adaptive-cache-service/internal/store/policy"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Config selects what to replay and how.
type Config struct {
	Policies []policy.Kind
	Seeds    []int64
	Window   int
	Options  []policy.Option // applied to every run before the seed
	Parallel int             // 0 uses GOMAXPROCS
	Logger   *zap.Logger
}

// Run is the outcome of one replay.
type Run struct {
	Policy   policy.Kind
	Seed     int64
	Metrics  policy.Metrics
	HitRatio float64
	Accuracy float64
	Weights  *policy.Weights
	Commands int
	Errors   int
	Elapsed  time.Duration
}

// Replay runs commands against a fresh store and policy.
func Replay(ctx context.Context, commands []string, kind policy.Kind, seed int64, window int, logger *zap.Logger, opts ...policy.Option) (Run, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	st := store.New()
	opts = append(append([]policy.Option{}, opts...), policy.WithSeed(seed))
	m, err := eviction.NewManager(st, kind, window, logger, opts...)
	if err != nil {
		return Run{}, err
	}
	svc := service.New(st, m, logger)

	run := Run{Policy: kind, Seed: seed, Commands: len(commands)}
	start := time.Now()
	for i, line := range commands {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return Run{}, err
			}
		}
		if res := svc.Execute(ctx, line); isError(res.Text) {
			run.Errors++
		}
	}
	run.Elapsed = time.Since(start)

	report := m.Report()
	run.Metrics = report.Metrics
	run.HitRatio = report.HitRatio
	run.Accuracy = report.Accuracy
	run.Weights = report.Weights
	return run, nil
}

func isError(text string) bool {
	return strings.HasPrefix(text, "ERROR:")
}

// RunAll replays commands once per (policy, seed) pair, in parallel.
// Results are ordered by policy, then seed, as given in cfg.
func RunAll(ctx context.Context, cfg Config, commands []string) ([]Run, error) {
	if len(cfg.Policies) == 0 {
		return nil, fmt.Errorf("no policies to benchmark")
	}
	seeds := cfg.Seeds
	if len(seeds) == 0 {
		seeds = []int64{1}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := cfg.Parallel
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	runs := make([]Run, len(cfg.Policies)*len(seeds))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, kind := range cfg.Policies {
		for j, seed := range seeds {
			idx, kind, seed := i*len(seeds)+j, kind, seed
			g.Go(func() error {
				run, err := Replay(ctx, commands, kind, seed, cfg.Window,
					logger.With(zap.String("policy", string(kind)), zap.Int64("seed", seed)), cfg.Options...)
				if err != nil {
					return fmt.Errorf("replaying %s seed %d: %w", kind, seed, err)
				}
				runs[idx] = run
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return runs, nil
}
