// Package schedule picks the largest set of non-overlapping checker shifts
// from a list of candidates.
package schedule

import (
	"math"
	"sort"

	"transit/pkg/domain"
)

// MaxNonOverlapping returns the maximum number of shifts that can run
// without overlap. Shifts are half-open intervals, so a shift starting
// exactly when the previous one ends does not overlap it.
//
// Greedy by earliest finish time; the input slice is not modified.
func MaxNonOverlapping(shifts []domain.CheckerShift) int {
	if len(shifts) == 0 {
		return 0
	}

	sorted := make([]domain.CheckerShift, len(shifts))
	copy(sorted, shifts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].End < sorted[j].End })

	count := 0
	lastEnd := int64(math.MinInt64)
	for _, s := range sorted {
		if s.Start >= lastEnd {
			count++
			lastEnd = s.End
		}
	}
	return count
}
