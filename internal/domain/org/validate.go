package org

import "pms/internal/domain/faults"

// ValidateHierarchy enforces the structural constraints on one employee's
// hierarchy references. lookup resolves another employee by id and may be
// nil when that record is not loaded (the check is then skipped, matching
// how partial updates behave).
func ValidateHierarchy(e Employee, lookup func(id string) *Employee) error {
	if e.ManagerID != "" && e.ManagerID == e.ID {
		return faults.Validationf("an employee cannot be their own manager")
	}
	if e.ReviewerID != "" && e.ReviewerID == e.ID {
		return faults.Validationf("an employee cannot be their own reviewer")
	}
	if e.SecondaryManagerID != "" && e.SecondaryManagerID == e.ManagerID {
		return faults.Validationf("primary and secondary manager cannot be the same person")
	}
	if e.SecondaryManagerID != "" && e.SecondaryManagerID == e.ReviewerID {
		return faults.Validationf("secondary manager and reviewer cannot be the same person")
	}
	if e.ReviewerID != "" && lookup != nil {
		if reviewer := lookup(e.ReviewerID); reviewer != nil && reviewer.ManagerID == e.ID {
			return faults.Validationf("reviewer cannot report to the employee")
		}
	}
	return nil
}
