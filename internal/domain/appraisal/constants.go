package appraisal

// Appraisal lifecycle states. The approval chain is strictly sequential;
// the only back-edge is rejected -> pending_supervisor via resubmission.
const (
	StateDraft                      = "draft"
	StatePendingSupervisor          = "pending_supervisor"
	StatePendingSecondarySupervisor = "pending_secondary_supervisor"
	StatePendingReviewer            = "pending_reviewer"
	StateApproved                   = "approved"
	StateRejected                   = "rejected"
)

// Approval chain stages, in order.
const (
	StageSupervisor          = "supervisor"
	StageSecondarySupervisor = "secondary_supervisor"
	StageReviewer            = "reviewer"
)

// WeightTolerance is the allowed deviation between the selected-KPI weight
// sum and the template total at submission.
const WeightTolerance = 0.01
