package collisionmap

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/samber/lo"

	"go.viam.com/collisionmap/collision"
)

// CellState is the outcome of one grid cell.
type CellState uint8

const (
	// CellUnreachable means inverse kinematics found no configuration, so nothing was checked.
	CellUnreachable CellState = iota
	// CellClear means the configuration was checked and nothing unexpected touched.
	CellClear
	// CellCollided means at least one pair outside the filter touched.
	CellCollided
)

func (s CellState) String() string {
	switch s {
	case CellUnreachable:
		return "unreachable"
	case CellClear:
		return "clear"
	case CellCollided:
		return "collided"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s CellState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Grid is the result of a sweep: Resolution rows of swept rotation by PointCount columns of path
// samples. Cell (i, j) is stored at i*PointCount+j. A cell that is not collided has no pairs.
type Grid struct {
	Resolution int                    `json:"resolution"`
	PointCount int                    `json:"point_count"`
	StepAngle  float64                `json:"step_angle"`
	Collided   []bool                 `json:"collided"`
	Pairs      [][]collision.BodyPair `json:"pairs"`
	States     []CellState            `json:"states"`
}

func newGrid(resolution, pointCount int, step float64) *Grid {
	cells := resolution * pointCount
	return &Grid{
		Resolution: resolution,
		PointCount: pointCount,
		StepAngle:  step,
		Collided:   make([]bool, cells),
		Pairs:      make([][]collision.BodyPair, cells),
		States:     make([]CellState, cells),
	}
}

// Len returns the number of cells.
func (g *Grid) Len() int {
	return len(g.States)
}

// Index returns the storage index of cell (i, j).
func (g *Grid) Index(i, j int) int {
	return i*g.PointCount + j
}

// Angle returns the swept rotation of row i.
func (g *Grid) Angle(i int) float64 {
	return g.StepAngle * float64(i)
}

// At returns the state and pairs of cell (i, j).
func (g *Grid) At(i, j int) (CellState, []collision.BodyPair) {
	k := g.Index(i, j)
	return g.States[k], g.Pairs[k]
}

func (g *Grid) record(k int, sample collision.Sample) {
	if !sample.Collided {
		g.States[k] = CellClear
		return
	}
	g.States[k] = CellCollided
	g.Collided[k] = true
	g.Pairs[k] = sample.Pairs
}

// CollisionResult returns a copy of the per cell collision flags.
func (g *Grid) CollisionResult() []bool {
	return append([]bool(nil), g.Collided...)
}

// CollidedPairsResult returns a copy of the per cell collided pairs.
func (g *Grid) CollidedPairsResult() [][]collision.BodyPair {
	out := make([][]collision.BodyPair, len(g.Pairs))
	for k, pairs := range g.Pairs {
		if len(pairs) != 0 {
			out[k] = append([]collision.BodyPair(nil), pairs...)
		}
	}
	return out
}

// PairCount is how many cells a pair collided in.
type PairCount struct {
	Pair  collision.BodyPair `json:"pair"`
	Cells int                `json:"cells"`
}

// Summary tallies a grid.
type Summary struct {
	Cells       int         `json:"cells"`
	Unreachable int         `json:"unreachable"`
	Clear       int         `json:"clear"`
	Collided    int         `json:"collided"`
	Pairs       []PairCount `json:"pairs"`
}

// Summary counts cells by state and pairs by the number of cells they collided in, most frequent
// pair first.
func (g *Grid) Summary() Summary {
	states := lo.CountValues(g.States)
	counts := lo.CountValues(lo.Flatten(g.Pairs))
	pairs := lo.MapToSlice(counts, func(pair collision.BodyPair, n int) PairCount {
		return PairCount{Pair: pair, Cells: n}
	})
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Cells != pairs[j].Cells {
			return pairs[i].Cells > pairs[j].Cells
		}
		return pairs[i].Pair.String() < pairs[j].Pair.String()
	})
	return Summary{
		Cells:       g.Len(),
		Unreachable: states[CellUnreachable],
		Clear:       states[CellClear],
		Collided:    states[CellCollided],
		Pairs:       pairs,
	}
}

// Fingerprint hashes the shape, states and pairs of the grid. Equal grids have equal
// fingerprints, so two sweeps can be compared without keeping both grids.
func (g *Grid) Fingerprint() uint64 {
	digest := xxhash.New()
	var buf [8]byte
	writeUint := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = digest.Write(buf[:])
	}
	writeUint(uint64(g.Resolution))
	writeUint(uint64(g.PointCount))
	writeUint(math.Float64bits(g.StepAngle))
	for k, state := range g.States {
		writeUint(uint64(state))
		writeUint(uint64(len(g.Pairs[k])))
		for _, pair := range g.Pairs[k] {
			_, _ = digest.WriteString(string(pair.A) + "\x00" + string(pair.B) + "\x00")
		}
	}
	return digest.Sum64()
}
