package ports

import (
	"context"

	"adaptive-cache-service/internal/command"
	"adaptive-cache-service/internal/eviction"
	"adaptive-cache-service/internal/store/policy"
)

// Result is the rendered reply to one command plus the keys the eviction
// policy removed while serving it.
type Result struct {
	Text    string
	Evicted []string
}

// CommandService maps incoming requests to business logic
type CommandService interface {
	// Do runs a parsed command. Failures are returned, not rendered.
	Do(ctx context.Context, cmd command.Command) (Result, error)

	// Execute parses and runs a command line, rendering errors as "ERROR: <message>".
	Execute(ctx context.Context, line string) Result

	// Configure switches the eviction policy and/or window. Empty name or
	// nil window leaves that setting unchanged.
	Configure(ctx context.Context, name string, window *int) (eviction.Report, error)

	// Stats reports the active eviction policy.
	Stats() eviction.Report
}

// Storage defines the key space operations the service dispatches to
type Storage interface {
	Set(key, value string) error
	Get(key string) (string, bool, error)
	Len(key string) (int, error)
	RPush(key string, values ...string) (int, error)
	LPop(key string) (string, bool, error)
	Range(key string, start, stop int) ([]string, error)
	Keys() []string
	Exists(key string) bool
	Delete(key string) bool
	Flush()
	Expire(key string, seconds int) (remaining int, installed bool, err error)
	TTL(key string) int
}

// Evictor is the eviction side the service notifies after each access
type Evictor interface {
	Evict(key string, isSet bool) []string
	SelectAlgorithm(name string) error
	SetWindow(n int) error
	Algorithm() policy.Kind
	Window() int
	Weights() (policy.Weights, bool)
	Report() eviction.Report
}
