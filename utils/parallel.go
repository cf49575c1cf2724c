package utils

import (
	"fmt"
	"runtime"
)

// ParallelFactor controls the max level of parallelization. This might be useful
// to set in tests where too much parallelism actually slows tests down in
// aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
	quarterProcs := float64(ParallelFactor) * .25
	if quarterProcs > 8 {
		ParallelFactor = int(quarterProcs)
	}
}

// WorkRange is a half open range [From, To) of work item indices.
type WorkRange struct {
	From, To int
}

// Len returns the number of items in the range.
func (wr WorkRange) Len() int {
	return wr.To - wr.From
}

// PartitionWork splits totalSize items into at most numGroups contiguous ranges whose sizes
// differ by at most one. Empty ranges are never returned.
func PartitionWork(totalSize, numGroups int) []WorkRange {
	if totalSize <= 0 {
		return nil
	}
	if numGroups <= 0 {
		numGroups = 1
	}
	if numGroups > totalSize {
		numGroups = totalSize
	}
	groupSize := totalSize / numGroups
	extra := totalSize % numGroups

	ranges := make([]WorkRange, 0, numGroups)
	from := 0
	for groupNum := 0; groupNum < numGroups; groupNum++ {
		to := from + groupSize
		if groupNum < extra {
			to++
		}
		ranges = append(ranges, WorkRange{From: from, To: to})
		from = to
	}
	return ranges
}

// RecoverToError runs f and converts a panic into an error so a worker goroutine can report it
// through its error return.
func RecoverToError(f func() error) (err error) {
	defer func() {
		if thePanic := recover(); thePanic != nil {
			err = fmt.Errorf("got panic running something in parallel: %v", thePanic)
		}
	}()
	return f()
}
