package store

import "time"

// Kind tags the shape of a stored value
type Kind int

const (
	KindString Kind = iota
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a tagged union over a string and an ordered list of strings
type Value struct {
	kind Kind
	str  string
	list []string
}

// StringValue wraps s as a string value
func StringValue(s string) Value {
	return Value{kind: KindString, str: s}
}

// ListValue wraps items as a list value. The slice is copied.
func ListValue(items ...string) Value {
	l := make([]string, len(items))
	copy(l, items)
	return Value{kind: KindList, list: l}
}

// Kind returns the shape of the value
func (v Value) Kind() Kind { return v.kind }

// Item is a single key slot: the value plus an optional expiration.
// A zero ExpiresAt means the key never expires.
type Item struct {
	Value     Value
	ExpiresAt time.Time
}

func (it *Item) expired(now time.Time) bool {
	return !it.ExpiresAt.IsZero() && now.After(it.ExpiresAt)
}
