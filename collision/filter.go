package collision

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Filter is the set of body pairs that are expected to touch, such as adjacent links, and must not
// be reported as collisions. A Filter is immutable once built and may be shared between
// goroutines. A nil *Filter contains nothing.
type Filter struct {
	pairs map[BodyPair]struct{}
}

// NewFilter builds a filter from pairs. Pairs of a body with itself are ignored since a body is
// never reported against itself.
func NewFilter(pairs ...BodyPair) *Filter {
	f := &Filter{pairs: make(map[BodyPair]struct{}, len(pairs))}
	for _, p := range pairs {
		if p.A == p.B {
			continue
		}
		f.pairs[NewBodyPair(p.A, p.B)] = struct{}{}
	}
	return f
}

// NewFilterFromNames builds a filter from name pairs as they appear in configuration.
func NewFilterFromNames(names [][2]string) (*Filter, error) {
	pairs := make([]BodyPair, 0, len(names))
	for i, n := range names {
		if n[0] == "" || n[1] == "" {
			return nil, errors.Errorf("allowed collision %d has an empty body name", i)
		}
		if n[0] == n[1] {
			return nil, errors.Errorf("allowed collision %d pairs body %q with itself", i, n[0])
		}
		pairs = append(pairs, NewBodyPair(BodyID(n[0]), BodyID(n[1])))
	}
	return NewFilter(pairs...), nil
}

// Contains reports whether the unordered pair (a, b) is exempt from reporting.
func (f *Filter) Contains(a, b BodyID) bool {
	if f == nil {
		return false
	}
	_, ok := f.pairs[NewBodyPair(a, b)]
	return ok
}

// Len returns the number of exempt pairs.
func (f *Filter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.pairs)
}

// Pairs returns the exempt pairs in sorted order.
func (f *Filter) Pairs() []BodyPair {
	if f == nil {
		return nil
	}
	pairs := lo.Keys(f.pairs)
	SortPairs(pairs)
	return pairs
}
