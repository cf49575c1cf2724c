package referenceframe

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
)

// Limit represents the limits of motion for a referenceframe.
type Limit struct {
	Min float64
	Max float64
}

// Contains reports whether v lies within the limit, inclusive.
func (l Limit) Contains(v float64) bool {
	return v >= l.Min && v <= l.Max
}

// Clamp returns v limited to the range.
func (l Limit) Clamp(v float64) float64 {
	return math.Max(l.Min, math.Min(l.Max, v))
}

// ValidateInputs returns an error naming the first input that is outside its limit.
func ValidateInputs(limits []Limit, inputs []Input) error {
	if len(limits) != len(inputs) {
		return NewIncorrectDoFError(len(inputs), len(limits))
	}
	for i, lim := range limits {
		if !lim.Contains(inputs[i].Value) {
			return errors.Errorf("input %d value %.5f outside limits [%.5f, %.5f]", i, inputs[i].Value, lim.Min, lim.Max)
		}
	}
	return nil
}

// NewIncorrectDoFError is returned when the number of inputs does not match the degrees of freedom.
func NewIncorrectDoFError(actual, expected int) error {
	return errors.Errorf("number of inputs does not match frame DoF, expected %d but got %d", expected, actual)
}

// RandomInputs will produce a list of valid, in-bounds inputs for the limits.
func RandomInputs(limits []Limit, rSeed *rand.Rand) []Input {
	if rSeed == nil {
		//nolint:gosec
		rSeed = rand.New(rand.NewSource(1))
	}
	pos := make([]Input, 0, len(limits))
	for _, lim := range limits {
		l, u := lim.Min, lim.Max

		// Default to [-999,999] as range if limits are infinite
		if l == math.Inf(-1) {
			l = -999
		}
		if u == math.Inf(1) {
			u = 999
		}

		pos = append(pos, Input{rSeed.Float64()*math.Abs(u-l) + l})
	}
	return pos
}
