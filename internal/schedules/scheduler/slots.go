package scheduler

import (
	"slices"

	"fleetsched/pkg/model"
)

type TimeSlot = model.TimeSlot

// Overlap returns the intersection of a and b. Slots that only touch do not overlap.
func Overlap(a, b TimeSlot) (TimeSlot, bool) {
	start := a.Start
	if b.Start.After(start) {
		start = b.Start
	}
	end := a.End
	if b.End.Before(end) {
		end = b.End
	}
	if !start.Before(end) {
		return TimeSlot{}, false
	}
	return TimeSlot{Start: start, End: end}, true
}

// MergeOverlappingSlots sorts slots by start and folds overlapping or touching
// slots together. The input is left untouched.
func MergeOverlappingSlots(slots []TimeSlot) []TimeSlot {
	if len(slots) == 0 {
		return []TimeSlot{}
	}

	sorted := slices.Clone(slots)
	slices.SortFunc(sorted, func(a, b TimeSlot) int {
		return a.Start.Compare(b.Start)
	})

	merged := []TimeSlot{sorted[0]}
	for _, current := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !current.Start.After(last.End) {
			if current.End.After(last.End) {
				last.End = current.End
			}
			continue
		}
		merged = append(merged, current)
	}
	return merged
}
