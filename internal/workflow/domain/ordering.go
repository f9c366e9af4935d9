package domain

import "math"

const (
	// OrderGap is the spacing between order indices after a renumber.
	OrderGap = 10
	// MaxOrderIndex is the largest order index the store can hold.
	MaxOrderIndex = math.MaxInt32
)

// ValidOrderIndex reports whether index fits the order index column.
func ValidOrderIndex(index int) bool {
	return index >= 0 && index <= MaxOrderIndex
}

// OrderIndexTaken reports whether another active template already uses index.
func OrderIndexTaken(templates []StepTemplate, index int, except *StepTemplate) bool {
	for _, t := range templates {
		if !t.IsActive || t.OrderIndex != index {
			continue
		}
		if except != nil && t.ID == except.ID {
			continue
		}
		return true
	}
	return false
}

// OrderIndexAfter picks an order index for a template placed directly after
// position in the ordered active list (position -1 means first). ok is false
// when no free integer exists between the neighbours and a renumber is needed.
func OrderIndexAfter(active []StepTemplate, position int) (int, bool) {
	lower := 0
	if position >= 0 && position < len(active) {
		lower = active[position].OrderIndex
	}

	next := position + 1
	if next >= len(active) {
		if len(active) == 0 {
			return OrderGap, true
		}
		last := active[len(active)-1].OrderIndex
		if last <= MaxOrderIndex-OrderGap {
			return last + OrderGap, true
		}
		if last >= MaxOrderIndex {
			return 0, false
		}
		return last + (MaxOrderIndex-last+1)/2, true
	}

	upper := active[next].OrderIndex
	if upper-lower < 2 {
		return 0, false
	}
	return lower + (upper-lower)/2, true
}

// RenumberedIndex is the order index given to the template at zero-based
// position by a renumber.
func RenumberedIndex(position int) int {
	return (position + 1) * OrderGap
}
