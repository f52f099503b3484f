package appraisal

import (
	"time"

	"pms/internal/domain/faults"
)

// Actor identifies the caller of a transition. Admin marks the HR/system
// administrative path, which may act in an approver's stead but never
// submits on behalf of an employee.
type Actor struct {
	EmployeeID string
	Admin      bool
}

// ValidateSubmit checks every submit guard against a loaded appraisal. The
// chain always restarts at pending_supervisor, also after a later-stage
// rejection.
func ValidateSubmit(a *Appraisal, actor Actor, cy CycleInfo, templateTotal float64, now time.Time) error {
	if actor.EmployeeID == "" || actor.EmployeeID != a.EmployeeID {
		return faults.Permissionf("only the appraisal's employee can submit it")
	}
	if a.State != StateDraft && a.State != StateRejected {
		return faults.Validationf("only draft or rejected plans can be submitted")
	}
	if !CanEmployeeEdit(a, cy, now) {
		return faults.Permissionf("plan is locked: the cycle is not in planning or the edit window has lapsed")
	}

	selected := a.SelectedKPIs()
	if len(selected) == 0 {
		return faults.Validationf("select at least one KPI before submitting")
	}
	for _, kpi := range selected {
		if kpi.Target == "" {
			return faults.Validationf("selected KPI %q has no target", kpi.Name)
		}
	}

	total := a.CurrentTotalScore()
	if delta := total - templateTotal; delta > WeightTolerance || delta < -WeightTolerance {
		return faults.Validationf("selected KPI weight total %.2f must equal the template total %.2f (off by %+.2f)",
			total, templateTotal, delta)
	}
	return nil
}

// ValidateStageAction checks that the caller may approve or reject in the
// appraisal's current state. Coarse role membership is not enough: the
// appraisal's own approver reference is authoritative, with only the
// administrative path allowed to stand in.
func ValidateStageAction(a *Appraisal, actor Actor) (stage string, err error) {
	stage, ok := a.CurrentStage()
	if !ok {
		return "", faults.Validationf("no approval is pending in state %q", a.State)
	}
	approver := a.CurrentApproverID()
	if actor.Admin {
		return stage, nil
	}
	if actor.EmployeeID == "" || actor.EmployeeID != approver {
		return "", faults.Permissionf("only the assigned %s can act on this plan", stage)
	}
	return stage, nil
}

// NextStateOnApprove routes an approval from the current pending state to
// the next configured stage, skipping the stages this appraisal has no
// approver for.
func NextStateOnApprove(a *Appraisal) string {
	switch a.State {
	case StatePendingSupervisor:
		if a.SecondarySupervisorID != "" {
			return StatePendingSecondarySupervisor
		}
		if a.ReviewerID != "" {
			return StatePendingReviewer
		}
		return StateApproved
	case StatePendingSecondarySupervisor:
		if a.ReviewerID != "" {
			return StatePendingReviewer
		}
		return StateApproved
	case StatePendingReviewer:
		return StateApproved
	}
	return a.State
}

// StampField names the transition timestamp column touched alongside a
// state change. The store only accepts these values.
type StampField string

const (
	StampSubmitted          StampField = "submitted_at"
	StampSupervisorReviewed StampField = "supervisor_reviewed_at"
	StampSecondaryReviewed  StampField = "secondary_reviewed_at"
	StampReviewerApproved   StampField = "reviewer_approved_at"
	StampRejected           StampField = "rejected_at"
)

// approveStamp picks the timestamp recorded when the given stage approves.
func approveStamp(stage string) StampField {
	switch stage {
	case StageSecondarySupervisor:
		return StampSecondaryReviewed
	case StageReviewer:
		return StampReviewerApproved
	}
	return StampSupervisorReviewed
}

// applyTransition mutates the in-memory appraisal to mirror what the store
// committed, so callers see a consistent snapshot without re-reading.
func applyTransition(a *Appraisal, toState string, stamp StampField, at time.Time) {
	a.State = toState
	switch stamp {
	case StampSubmitted:
		a.SubmittedAt = &at
	case StampSupervisorReviewed:
		a.SupervisorReviewedAt = &at
	case StampSecondaryReviewed:
		a.SecondaryReviewedAt = &at
	case StampReviewerApproved:
		a.ReviewerApprovedAt = &at
	case StampRejected:
		a.RejectedAt = &at
	}
}
