package cycle

import (
	"fmt"
	"time"
)

// ComputeEndDate derives the cycle end from its type: one year, six months
// or three months after the start, inclusive of the start day.
func ComputeEndDate(cycleType string, start time.Time) time.Time {
	switch cycleType {
	case TypeSemiAnnual:
		return start.AddDate(0, 6, -1)
	case TypeProbation:
		return start.AddDate(0, 3, -1)
	default:
		return start.AddDate(1, 0, -1)
	}
}

// ComputePlanningDeadline is the last day of the planning window.
func ComputePlanningDeadline(start time.Time, planningDays int) time.Time {
	return start.AddDate(0, 0, planningDays)
}

// SequenceName formats the running cycle sequence, e.g. PMS/0007.
func SequenceName(n int) string {
	return fmt.Sprintf("PMS/%04d", n)
}
