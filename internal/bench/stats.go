package bench

import (
	"time"

	"adaptive-cache-service/internal/store/policy"

	"gonum.org/v1/gonum/stat"
)

// Summary aggregates every run of one policy.
type Summary struct {
	Policy       policy.Kind
	Runs         int
	HitRatio     float64
	HitRatioStd  float64
	Accuracy     float64
	AccuracyStd  float64
	Evictions    float64 // mean per run
	ReuseEvicts  float64 // mean per run
	MeanDuration time.Duration
}

// Summarize groups runs by policy, keeping the order policies first appear in.
func Summarize(runs []Run) []Summary {
	var order []policy.Kind
	groups := make(map[policy.Kind][]Run)
	for _, r := range runs {
		if _, ok := groups[r.Policy]; !ok {
			order = append(order, r.Policy)
		}
		groups[r.Policy] = append(groups[r.Policy], r)
	}

	out := make([]Summary, 0, len(order))
	for _, kind := range order {
		out = append(out, summarize(kind, groups[kind]))
	}
	return out
}

func summarize(kind policy.Kind, runs []Run) Summary {
	n := len(runs)
	hits := make([]float64, n)
	acc := make([]float64, n)
	evicts := make([]float64, n)
	reuse := make([]float64, n)
	var total time.Duration
	for i, r := range runs {
		hits[i] = r.HitRatio
		acc[i] = r.Accuracy
		evicts[i] = float64(r.Metrics.Evictions)
		reuse[i] = float64(r.Metrics.ReuseEvictions)
		total += r.Elapsed
	}

	s := Summary{
		Policy:       kind,
		Runs:         n,
		Evictions:    stat.Mean(evicts, nil),
		ReuseEvicts:  stat.Mean(reuse, nil),
		MeanDuration: total / time.Duration(n),
	}
	s.HitRatio, s.HitRatioStd = meanStd(hits)
	s.Accuracy, s.AccuracyStd = meanStd(acc)
	return s
}

// meanStd returns the mean and the sample standard deviation, 0 for one value.
func meanStd(x []float64) (float64, float64) {
	if len(x) < 2 {
		return stat.Mean(x, nil), 0
	}
	return stat.MeanStdDev(x, nil)
}
