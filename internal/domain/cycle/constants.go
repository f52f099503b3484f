package cycle

const (
	StateDraft      = "draft"
	StatePlanning   = "planning"
	StateMonitoring = "monitoring"
	StateAppraisal  = "appraisal"
	StateCompleted  = "completed"
	StateCancelled  = "cancelled"
)

const (
	TypeAnnual     = "annual"
	TypeSemiAnnual = "semi_annual"
	TypeProbation  = "probation"
)

const (
	ApplyToAll      = "all"
	ApplyToSelected = "selected"
)

// phaseTransitions maps each manual transition target to its required
// source states. Activation (draft to planning) runs through Activate, not
// here.
var phaseTransitions = map[string][]string{
	StateMonitoring: {StatePlanning},
	StateAppraisal:  {StateMonitoring},
	StateCompleted:  {StatePlanning, StateAppraisal},
	StateCancelled:  {StateDraft, StatePlanning, StateMonitoring, StateAppraisal},
}
