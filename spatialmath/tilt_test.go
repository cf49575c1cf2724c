package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func tiltSamples() []float64 {
	samples := []float64{0, 0.3, -0.3, 1.2, -1.2, 1.5, -1.5}
	for _, edge := range []float64{math.Pi / 2, -math.Pi / 2} {
		for _, off := range []float64{-0.02, -0.011, -0.01, -0.005, -0.001, 0, 0.001, 0.005, 0.01, 0.011, 0.02} {
			samples = append(samples, edge+off)
		}
	}
	return samples
}

func TestTiltRotationIsProperRotation(t *testing.T) {
	for _, side := range tiltSamples() {
		for _, forward := range tiltSamples() {
			rm := TiltRotation(side, forward)
			test.That(t, rm.IsOrthonormal(1e-9), test.ShouldBeTrue)
			test.That(t, rm.Determinant(), test.ShouldAlmostEqual, 1, 1e-9)
		}
	}
}

func TestTiltRotationGeneralCase(t *testing.T) {
	test.That(t, OrientationAlmostEqual(TiltRotation(0, 0), NewZeroOrientation()), test.ShouldBeTrue)

	// A forward tilt leans the tool z axis toward the path tangent.
	rm := TiltRotation(0, 0.4)
	test.That(t, rm.Col(2).Distance(r3.Vector{X: math.Sin(0.4), Z: math.Cos(0.4)}), test.ShouldBeLessThan, 1e-12)
	test.That(t, rm.Col(1).Distance(r3.Vector{Y: 1}), test.ShouldBeLessThan, 1e-12)

	// A side tilt leans it toward the binormal.
	rm = TiltRotation(0.4, 0)
	test.That(t, rm.Col(2).Distance(r3.Vector{Y: math.Sin(0.4), Z: math.Cos(0.4)}), test.ShouldBeLessThan, 1e-12)
	test.That(t, rm.Col(0).Distance(r3.Vector{X: 1}), test.ShouldBeLessThan, 1e-12)

	rm = TiltRotation(0.2, -0.7)
	z := r3.Vector{X: math.Tan(-0.7), Y: math.Tan(0.2), Z: 1}.Normalize()
	test.That(t, rm.Col(2).Distance(z), test.ShouldBeLessThan, 1e-12)
}

func TestTiltRotationOrthogonalCases(t *testing.T) {
	// both orthogonal: determined by the signs alone
	rm := TiltRotation(math.Pi/2, math.Pi/2+0.004)
	test.That(t, rm.Col(0), test.ShouldResemble, r3.Vector{Z: -1})
	test.That(t, rm.Col(1), test.ShouldResemble, r3.Vector{X: -1})
	test.That(t, rm.Col(2), test.ShouldResemble, r3.Vector{Y: 1})
	rm = TiltRotation(-math.Pi/2-0.009, math.Pi/2)
	test.That(t, rm.Col(1), test.ShouldResemble, r3.Vector{X: 1})
	test.That(t, rm.Col(2), test.ShouldResemble, r3.Vector{Y: -1})

	// side orthogonal: the tool lies along the binormal and the forward tilt spins it about that axis
	rm = TiltRotation(math.Pi/2, 0.3)
	test.That(t, rm.Col(2), test.ShouldResemble, r3.Vector{Y: 1})
	test.That(t, rm.Col(0).Distance(r3.Vector{X: math.Cos(0.3), Z: -math.Sin(0.3)}), test.ShouldBeLessThan, 1e-12)

	// forward orthogonal: the tool lies along the tangent whatever the side tilt
	for _, side := range []float64{0, 0.3, -1.2} {
		rm = TiltRotation(side, -math.Pi/2)
		test.That(t, rm.Col(0), test.ShouldResemble, r3.Vector{Z: 1})
		test.That(t, rm.Col(1), test.ShouldResemble, r3.Vector{Y: 1})
		test.That(t, rm.Col(2), test.ShouldResemble, r3.Vector{X: -1})
	}
	rm = TiltRotation(0.8, math.Pi/2+0.006)
	test.That(t, rm.Col(0), test.ShouldResemble, r3.Vector{Z: -1})
	test.That(t, rm.Col(2), test.ShouldResemble, r3.Vector{X: 1})
}

func rotationAngleBetween(a, b *RotationMatrix) float64 {
	return OrientationBetween(a, b).AxisAngles().Theta
}

func TestTiltRotationContinuityAtSnap(t *testing.T) {
	for _, forward := range []float64{0, 0.3, -0.6} {
		below := TiltRotation(math.Pi/2-0.005, forward)
		above := TiltRotation(math.Pi/2+0.005, forward)
		test.That(t, rotationAngleBetween(below, above), test.ShouldAlmostEqual, 0, 1e-9)

		// Just outside the snap band the general formula agrees with the snapped result to within
		// roughly the distance to the band edge.
		outside := TiltRotation(math.Pi/2-0.011, forward)
		test.That(t, rotationAngleBetween(outside, below), test.ShouldBeLessThan, 0.05)
		outside = TiltRotation(-math.Pi/2+0.011, forward)
		test.That(t, rotationAngleBetween(outside, TiltRotation(-math.Pi/2, forward)), test.ShouldBeLessThan, 0.05)
	}

	// The same holds across the forward band, whatever the side tilt.
	for _, side := range []float64{0, 0.3, 0.5, 1.0, -0.8} {
		below := TiltRotation(side, math.Pi/2-0.011)
		above := TiltRotation(side, math.Pi/2-0.009)
		test.That(t, rotationAngleBetween(below, above), test.ShouldBeLessThan, 0.05)
		below = TiltRotation(side, -math.Pi/2+0.011)
		above = TiltRotation(side, -math.Pi/2+0.009)
		test.That(t, rotationAngleBetween(below, above), test.ShouldBeLessThan, 0.05)
	}
}
