package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"adaptive-cache-service/internal/command"
	"adaptive-cache-service/internal/core/ports"
	"adaptive-cache-service/internal/eviction"
	"adaptive-cache-service/internal/observability"

	"go.uber.org/zap"
)

// ensure implementation
var _ ports.CommandService = (*ServiceImpl)(nil)

// ServiceImpl dispatches commands to the store and reports every
// single-key access to the evictor.
type ServiceImpl struct {
	// mu spans a store operation and its eviction update so the policy
	// always observes the store right after the mutation it is told about.
	mu      sync.Mutex
	store   ports.Storage
	evictor ports.Evictor
	logger  *zap.Logger
}

func New(store ports.Storage, evictor ports.Evictor, logger *zap.Logger) *ServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	observability.CacheEvictionWindow.Set(float64(evictor.Window()))
	return &ServiceImpl{
		store:   store,
		evictor: evictor,
		logger:  logger,
	}
}

// access classifies data commands for the eviction policy. Commands not
// listed here never reach the evictor.
var access = map[command.Kind]bool{
	command.Set:    true,
	command.RPush:  true,
	command.Get:    false,
	command.LLen:   false,
	command.LRange: false,
	command.LPop:   false,
}

func (s *ServiceImpl) Do(ctx context.Context, cmd command.Command) (ports.Result, error) {
	if err := ctx.Err(); err != nil {
		return ports.Result{}, err
	}

	op := strings.ToLower(cmd.Kind.String())
	start := time.Now()
	defer func() {
		observability.CacheDurationSeconds.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	s.mu.Lock()
	isSet, tracked := access[cmd.Kind]
	if tracked && !isSet {
		if s.store.Exists(cmd.Key()) {
			observability.CacheHitsTotal.Inc()
		} else {
			observability.CacheMissesTotal.Inc()
		}
	}

	text, err := s.dispatch(cmd)
	var evicted []string
	if err == nil && tracked {
		evicted = s.evictor.Evict(cmd.Key(), isSet)
		s.reportEvictions(evicted)
	}
	s.mu.Unlock()

	if err != nil {
		observability.CacheOperationsTotal.WithLabelValues(op, "error").Inc()
		return ports.Result{}, err
	}
	observability.CacheOperationsTotal.WithLabelValues(op, "success").Inc()
	return ports.Result{Text: text, Evicted: evicted}, nil
}

// dispatch runs one command against the store and renders the reply.
// Callers must hold s.mu.
func (s *ServiceImpl) dispatch(cmd command.Command) (string, error) {
	args := cmd.Args
	switch cmd.Kind {
	case command.Set:
		if err := s.store.Set(args[0], args[1]); err != nil {
			return "", err
		}
		return "OK", nil

	case command.Get:
		val, found, err := s.store.Get(args[0])
		if err != nil {
			return "", err
		}
		return bulk(val, found), nil

	case command.LLen:
		n, err := s.store.Len(args[0])
		if err != nil {
			return "", err
		}
		return integer(n), nil

	case command.RPush:
		n, err := s.store.RPush(args[0], args[1:]...)
		if err != nil {
			return "", err
		}
		return integer(n), nil

	case command.LPop:
		val, found, err := s.store.LPop(args[0])
		if err != nil {
			return "", err
		}
		return bulk(val, found), nil

	case command.LRange:
		start, _ := cmd.Int(1)
		stop, _ := cmd.Int(2)
		items, err := s.store.Range(args[0], start, stop)
		if err != nil {
			return "", err
		}
		return joined(items), nil

	case command.Keys:
		return joined(s.store.Keys()), nil

	case command.Del:
		if s.store.Delete(args[0]) {
			return integer(1), nil
		}
		return integer(0), nil

	case command.FlushDB:
		s.store.Flush()
		return "OK", nil

	case command.Expire:
		seconds, _ := cmd.Int(1)
		remaining, installed, err := s.store.Expire(args[0], seconds)
		if err != nil {
			return "", err
		}
		if installed {
			return integer(1), nil
		}
		return integer(remaining), nil

	case command.TTL:
		return integer(s.store.TTL(args[0])), nil

	case command.SmartEviction:
		n, _ := cmd.Int(0)
		if err := s.evictor.SetWindow(n); err != nil {
			return "", err
		}
		observability.CacheEvictionWindow.Set(float64(s.evictor.Window()))
		return "OK", nil

	case command.EvictionPolicy:
		if err := s.evictor.SelectAlgorithm(args[0]); err != nil {
			return "", err
		}
		s.reportWeights()
		return "OK", nil

	default:
		return "", fmt.Errorf("%w: unsupported command %s", command.ErrParse, cmd.Kind)
	}
}

// reportEvictions logs and counts victims. Callers must hold s.mu.
func (s *ServiceImpl) reportEvictions(evicted []string) {
	s.reportWeights()
	if len(evicted) == 0 {
		return
	}
	algo := string(s.evictor.Algorithm())
	limit := s.evictor.Window()
	for _, key := range evicted {
		s.logger.Info("smart eviction",
			zap.Int("limit", limit),
			zap.String("key", key),
			zap.String("policy", algo),
		)
	}
	observability.CacheEvictionsTotal.WithLabelValues(algo).Add(float64(len(evicted)))
}

func (s *ServiceImpl) reportWeights() {
	if w, ok := s.evictor.Weights(); ok {
		observability.CachePolicyWeight.WithLabelValues("lru").Set(w.LRU)
		observability.CachePolicyWeight.WithLabelValues("lfu").Set(w.LFU)
	}
}

// Execute parses and runs line. It never fails: errors become the reply text.
func (s *ServiceImpl) Execute(ctx context.Context, line string) ports.Result {
	cmd, err := command.Parse(line)
	if err != nil {
		observability.CacheOperationsTotal.WithLabelValues("parse", "error").Inc()
		return ports.Result{Text: Render(err)}
	}
	res, err := s.Do(ctx, cmd)
	if err != nil {
		return ports.Result{Text: Render(err)}
	}
	return res
}

func (s *ServiceImpl) Configure(ctx context.Context, name string, window *int) (eviction.Report, error) {
	if err := ctx.Err(); err != nil {
		return eviction.Report{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if name != "" {
		if err := s.evictor.SelectAlgorithm(name); err != nil {
			return eviction.Report{}, err
		}
	}
	if window != nil {
		if err := s.evictor.SetWindow(*window); err != nil {
			return eviction.Report{}, err
		}
	}
	observability.CacheEvictionWindow.Set(float64(s.evictor.Window()))
	s.reportWeights()
	return s.evictor.Report(), nil
}

func (s *ServiceImpl) Stats() eviction.Report {
	return s.evictor.Report()
}

// Render formats an error the way every front end reports it.
func Render(err error) string {
	return "ERROR: " + err.Error()
}

func bulk(val string, found bool) string {
	if !found {
		return "(nil)"
	}
	return val
}

func integer(n int) string {
	return "(integer) " + strconv.Itoa(n)
}

func joined(items []string) string {
	if len(items) == 0 {
		return "(empty)"
	}
	return strings.Join(items, " ")
}
