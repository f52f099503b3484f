package appraisal

import "time"

// Appraisal is one employee's instance of a template for one cycle. The KRA
// and KPI rows are deep copies taken at creation; later template edits never
// flow back in.
type Appraisal struct {
	ID                    string     `json:"id"`
	CycleID               string     `json:"cycleId"`
	EmployeeID            string     `json:"employeeId"`
	EmployeeName          string     `json:"employeeName,omitempty"`
	TemplateID            string     `json:"templateId"`
	SupervisorID          string     `json:"supervisorId,omitempty"`
	SecondarySupervisorID string     `json:"secondarySupervisorId,omitempty"`
	ReviewerID            string     `json:"reviewerId,omitempty"`
	State                 string     `json:"state"`
	SubmittedAt           *time.Time `json:"submittedAt,omitempty"`
	SupervisorReviewedAt  *time.Time `json:"supervisorReviewedAt,omitempty"`
	SecondaryReviewedAt   *time.Time `json:"secondaryReviewedAt,omitempty"`
	ReviewerApprovedAt    *time.Time `json:"reviewerApprovedAt,omitempty"`
	RejectedAt            *time.Time `json:"rejectedAt,omitempty"`
	Active                bool       `json:"active"`
	CreatedAt             time.Time  `json:"createdAt"`
	KRAs                  []KRA      `json:"kras,omitempty"`
}

type KRA struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Sequence      int    `json:"sequence"`
	TemplateKRAID string `json:"templateKraId,omitempty"`
	KPIs          []KPI  `json:"kpis,omitempty"`
}

type KPI struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Criteria      string `json:"criteria"`
	TemplateKPIID string `json:"templateKpiId,omitempty"`

	// Planning phase, employee-authored.
	Weightage       float64 `json:"weightage"`
	IsSelected      bool    `json:"isSelected"`
	Target          string  `json:"target"`
	PlanningRemarks string  `json:"planningRemarks"`

	// Appraisal phase scoring. Inert during planning but present so the
	// access filter allow-lists can govern them.
	SelfScore                  float64 `json:"selfScore"`
	SelfRemarks                string  `json:"selfRemarks"`
	SupervisorScore            float64 `json:"supervisorScore"`
	SupervisorRemarks          string  `json:"supervisorRemarks"`
	SecondarySupervisorScore   float64 `json:"secondarySupervisorScore"`
	SecondarySupervisorRemarks string  `json:"secondarySupervisorRemarks"`
	ReviewerScore              float64 `json:"reviewerScore"`
	ReviewerRemarks            string  `json:"reviewerRemarks"`
}

// CycleInfo is the slice of the owning cycle the appraisal logic needs.
// The store materializes it so this package stays free of a cycle import.
type CycleInfo struct {
	InPlanning       bool
	PlanningDeadline time.Time
	ResubmissionDays int
}

// IsPlanningComplete reports whether this KPI is fully planned: selected
// with both target and remarks filled.
func (k *KPI) IsPlanningComplete() bool {
	return k.IsSelected && k.Target != "" && k.PlanningRemarks != ""
}

// FinalScore is the reviewer's score when present, else the supervisor's,
// else zero.
func (k *KPI) FinalScore() float64 {
	if k.ReviewerScore != 0 {
		return k.ReviewerScore
	}
	if k.SupervisorScore != 0 {
		return k.SupervisorScore
	}
	return 0
}

// SelectedKPIs flattens the KRA tree to the selected KPI rows.
func (a *Appraisal) SelectedKPIs() []*KPI {
	var out []*KPI
	for i := range a.KRAs {
		for j := range a.KRAs[i].KPIs {
			if a.KRAs[i].KPIs[j].IsSelected {
				out = append(out, &a.KRAs[i].KPIs[j])
			}
		}
	}
	return out
}

// CurrentTotalScore sums the weightage of the selected KPIs.
func (a *Appraisal) CurrentTotalScore() float64 {
	var total float64
	for _, kpi := range a.SelectedKPIs() {
		total += kpi.Weightage
	}
	return total
}

// PlanningProgress is the share of selected KPIs that are fully planned,
// as a percentage.
func (a *Appraisal) PlanningProgress() float64 {
	selected := a.SelectedKPIs()
	if len(selected) == 0 {
		return 0
	}
	completed := 0
	for _, kpi := range selected {
		if kpi.IsPlanningComplete() {
			completed++
		}
	}
	return float64(completed) / float64(len(selected)) * 100
}

// ResubmissionDeadline derives the rejection grace deadline. The second
// return is false when the appraisal was never rejected or the cycle grants
// no resubmission window.
func (a *Appraisal) ResubmissionDeadline(resubmissionDays int) (time.Time, bool) {
	if a.RejectedAt == nil || resubmissionDays <= 0 {
		return time.Time{}, false
	}
	return a.RejectedAt.Add(time.Duration(resubmissionDays) * 24 * time.Hour), true
}

// CurrentApproverID returns the employee expected to act in the current
// state, or empty when no approval is pending.
func (a *Appraisal) CurrentApproverID() string {
	switch a.State {
	case StatePendingSupervisor:
		return a.SupervisorID
	case StatePendingSecondarySupervisor:
		return a.SecondarySupervisorID
	case StatePendingReviewer:
		return a.ReviewerID
	}
	return ""
}

// CurrentStage maps the pending state to its chain stage.
func (a *Appraisal) CurrentStage() (string, bool) {
	switch a.State {
	case StatePendingSupervisor:
		return StageSupervisor, true
	case StatePendingSecondarySupervisor:
		return StageSecondarySupervisor, true
	case StatePendingReviewer:
		return StageReviewer, true
	}
	return "", false
}
