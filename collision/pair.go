// Package collision contains the body pair bookkeeping that sits between a broadphase collision
// query and its consumer: the filter of pairs that are allowed to touch, the single use collector
// that deduplicates reported pairs, and a world of convex bodies that implements the query.
package collision

import (
	"fmt"
	"sort"
)

// BodyID identifies a collidable body. IDs are ordered by string comparison.
type BodyID string

// BodyPair is an unordered pair of distinct bodies, stored with A < B so that equal pairs compare
// equal regardless of discovery order. Build pairs with NewBodyPair.
type BodyPair struct {
	A BodyID `json:"a"`
	B BodyID `json:"b"`
}

// NewBodyPair returns the canonical pair for a and b.
func NewBodyPair(a, b BodyID) BodyPair {
	if b < a {
		a, b = b, a
	}
	return BodyPair{A: a, B: b}
}

// Has reports whether id is one of the two bodies of the pair.
func (p BodyPair) Has(id BodyID) bool {
	return p.A == id || p.B == id
}

func (p BodyPair) String() string {
	return fmt.Sprintf("%s:%s", p.A, p.B)
}

// SortPairs orders pairs by A then B.
func SortPairs(pairs []BodyPair) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
}
