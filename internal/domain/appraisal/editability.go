package appraisal

import "time"

// CanEmployeeEdit derives whether the owning employee may still edit the
// plan. The flag is recomputed on every read and never stored: it depends
// on the cycle phase, the planning deadline, and (after a rejection) the
// resubmission window.
func CanEmployeeEdit(a *Appraisal, cy CycleInfo, now time.Time) bool {
	if a.State == StateApproved {
		return false
	}
	if !cy.InPlanning {
		return false
	}

	if pastPlanningDeadline(cy, now) {
		// Past the deadline only a rejected plan inside its resubmission
		// window stays editable.
		if a.State != StateRejected {
			return false
		}
		deadline, ok := a.ResubmissionDeadline(cy.ResubmissionDays)
		return ok && !now.After(deadline)
	}

	switch a.State {
	case StateDraft:
		return true
	case StateRejected:
		deadline, ok := a.ResubmissionDeadline(cy.ResubmissionDays)
		if !ok {
			return true
		}
		return !now.After(deadline)
	}
	return false
}

// pastPlanningDeadline uses date granularity: the deadline day itself still
// counts as within the window.
func pastPlanningDeadline(cy CycleInfo, now time.Time) bool {
	if cy.PlanningDeadline.IsZero() {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return cy.PlanningDeadline.Before(today)
}
