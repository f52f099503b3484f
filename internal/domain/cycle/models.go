package cycle

import "time"

// Cycle is one time-boxed performance period. Dates, type and the employee
// set are set while in draft and frozen for good once the cycle activates.
type Cycle struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Sequence             string    `json:"sequence"`
	Type                 string    `json:"type"`
	StartDate            time.Time `json:"startDate"`
	EndDate              time.Time `json:"endDate"`
	PlanningDurationDays int       `json:"planningDurationDays"`
	PlanningDeadline     time.Time `json:"planningDeadline"`
	ResubmissionDays     int       `json:"resubmissionDays"`
	ApplyTo              string    `json:"applyTo"`
	EmployeeIDs          []string  `json:"employeeIds,omitempty"`
	State                string    `json:"state"`
	CreatedAt            time.Time `json:"createdAt"`
}

// ActivationResult summarizes one activation run. Skipped counts employees
// that already had an appraisal for this cycle; reruns are repeatable.
type ActivationResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// Progress is the cycle-wide appraisal state breakdown used by the
// planning dashboard.
type Progress struct {
	Total     int            `json:"total"`
	ByState   map[string]int `json:"byState"`
	Completed int            `json:"completed"`
}
