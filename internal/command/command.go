// Package command turns a text command line into a typed Command.
package command

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrParse is returned for empty, unknown or malformed commands.
var ErrParse = errors.New("parse error")

// Kind is the closed set of commands the server understands.
type Kind int

const (
	Set Kind = iota + 1
	Get
	LLen
	RPush
	LPop
	LRange
	Keys
	Del
	FlushDB
	Expire
	TTL
	SmartEviction
	EvictionPolicy
)

type signature struct {
	name     string
	min, max int // max < 0 means unbounded
}

var signatures = map[Kind]signature{
	Set:            {"set", 2, 2},
	Get:            {"get", 1, 1},
	LLen:           {"llen", 1, 1},
	RPush:          {"rpush", 2, -1},
	LPop:           {"lpop", 1, 1},
	LRange:         {"lrange", 3, 3},
	Keys:           {"keys", 0, 0},
	Del:            {"del", 1, 1},
	FlushDB:        {"flushdb", 0, 0},
	Expire:         {"expire", 2, 2},
	TTL:            {"ttl", 1, 1},
	SmartEviction:  {"smart_eviction", 1, 1},
	EvictionPolicy: {"eviction_policy", 1, 1},
}

var byName = func() map[string]Kind {
	m := make(map[string]Kind, len(signatures))
	for k, s := range signatures {
		m[s.name] = k
	}
	return m
}()

func (k Kind) String() string {
	if s, ok := signatures[k]; ok {
		return strings.ToUpper(s.name)
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Command is a parsed command line.
type Command struct {
	Kind Kind
	Args []string
}

// Key returns the key a single-key command targets, or "" for KEYS,
// FLUSHDB and the eviction admin commands.
func (c Command) Key() string {
	switch c.Kind {
	case Keys, FlushDB, SmartEviction, EvictionPolicy:
		return ""
	}
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[0]
}

// Int parses argument i as an integer.
func (c Command) Int(i int) (int, error) {
	if i >= len(c.Args) {
		return 0, fmt.Errorf("%w: missing argument %d for %s", ErrParse, i, c.Kind)
	}
	n, err := strconv.Atoi(c.Args[i])
	if err != nil {
		return 0, fmt.Errorf("%w: value is not an integer: %s", ErrParse, c.Args[i])
	}
	return n, nil
}

var tokenPattern = regexp.MustCompile(`"([^"]*)"|'([^']*)'|(\S+)`)

// Tokenize splits a line on whitespace, keeping double- or single-quoted
// runs together with the quotes removed.
func Tokenize(line string) []string {
	matches := tokenPattern.FindAllStringSubmatch(line, -1)
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		switch {
		case m[1] != "":
			parts = append(parts, m[1])
		case m[2] != "":
			parts = append(parts, m[2])
		default:
			parts = append(parts, m[3])
		}
	}
	return parts
}

// Parse tokenizes line and validates the command name, arity and integer
// arguments.
func Parse(line string) (Command, error) {
	parts := Tokenize(line)
	if len(parts) == 0 {
		return Command{}, fmt.Errorf("%w: empty command", ErrParse)
	}

	name := strings.ToLower(parts[0])
	kind, ok := byName[name]
	if !ok {
		return Command{}, fmt.Errorf("%w: unknown command: %s", ErrParse, name)
	}

	s := signatures[kind]
	args := parts[1:]
	if len(args) < s.min || (s.max >= 0 && len(args) > s.max) {
		return Command{}, fmt.Errorf("%w: invalid number of arguments for %s: expected %s, got %d",
			ErrParse, name, arity(s), len(args))
	}

	cmd := Command{Kind: kind, Args: args}
	for _, i := range intArgs(kind) {
		if _, err := cmd.Int(i); err != nil {
			return Command{}, err
		}
	}
	return cmd, nil
}

func arity(s signature) string {
	switch {
	case s.max < 0:
		return fmt.Sprintf("at least %d", s.min)
	case s.min == s.max:
		return strconv.Itoa(s.min)
	default:
		return fmt.Sprintf("%d-%d", s.min, s.max)
	}
}

func intArgs(k Kind) []int {
	switch k {
	case LRange:
		return []int{1, 2}
	case Expire:
		return []int{1}
	case SmartEviction:
		return []int{0}
	}
	return nil
}
