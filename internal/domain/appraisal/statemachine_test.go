package appraisal

import (
	"testing"
	"time"

	"pms/internal/domain/faults"
)

func plannedAppraisal() *Appraisal {
	return &Appraisal{
		ID:           "a1",
		CycleID:      "c1",
		EmployeeID:   "emp",
		TemplateID:   "t1",
		SupervisorID: "sup",
		State:        StateDraft,
		Active:       true,
		KRAs: []KRA{{
			ID: "kra1", Name: "Delivery",
			KPIs: []KPI{
				{ID: "kpi1", Name: "Ship features", Weightage: 60, IsSelected: true, Target: "4 releases", PlanningRemarks: "quarterly"},
				{ID: "kpi2", Name: "Reduce defects", Weightage: 40, IsSelected: true, Target: "under 5 open", PlanningRemarks: "triage weekly"},
				{ID: "kpi3", Name: "Stretch goal", Weightage: 25, IsSelected: false},
			},
		}},
	}
}

func planningCycle() CycleInfo {
	return CycleInfo{InPlanning: true, ResubmissionDays: 7}
}

func TestValidateSubmit(t *testing.T) {
	now := time.Now()

	t.Run("valid draft", func(t *testing.T) {
		a := plannedAppraisal()
		if err := ValidateSubmit(a, Actor{EmployeeID: "emp"}, planningCycle(), 100, now); err != nil {
			t.Fatalf("expected submit to pass, got %v", err)
		}
	})

	t.Run("only the employee may submit", func(t *testing.T) {
		a := plannedAppraisal()
		err := ValidateSubmit(a, Actor{EmployeeID: "sup"}, planningCycle(), 100, now)
		if !faults.IsPermission(err) {
			t.Fatalf("expected permission error, got %v", err)
		}
	})

	t.Run("admin cannot submit in the employee's stead", func(t *testing.T) {
		a := plannedAppraisal()
		err := ValidateSubmit(a, Actor{EmployeeID: "hr", Admin: true}, planningCycle(), 100, now)
		if !faults.IsPermission(err) {
			t.Fatalf("expected permission error, got %v", err)
		}
	})

	t.Run("no selected KPIs", func(t *testing.T) {
		a := plannedAppraisal()
		for i := range a.KRAs[0].KPIs {
			a.KRAs[0].KPIs[i].IsSelected = false
		}
		err := ValidateSubmit(a, Actor{EmployeeID: "emp"}, planningCycle(), 100, now)
		if !faults.IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("missing target", func(t *testing.T) {
		a := plannedAppraisal()
		a.KRAs[0].KPIs[1].Target = ""
		err := ValidateSubmit(a, Actor{EmployeeID: "emp"}, planningCycle(), 100, now)
		if !faults.IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("weight total off by more than tolerance", func(t *testing.T) {
		a := plannedAppraisal()
		a.KRAs[0].KPIs[0].Weightage = 55
		err := ValidateSubmit(a, Actor{EmployeeID: "emp"}, planningCycle(), 100, now)
		if !faults.IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("weight total within tolerance", func(t *testing.T) {
		a := plannedAppraisal()
		a.KRAs[0].KPIs[0].Weightage = 60.005
		if err := ValidateSubmit(a, Actor{EmployeeID: "emp"}, planningCycle(), 100.0, now); err != nil {
			t.Fatalf("expected tolerance to absorb the delta, got %v", err)
		}
	})

	t.Run("approved plan cannot be resubmitted", func(t *testing.T) {
		a := plannedAppraisal()
		a.State = StateApproved
		err := ValidateSubmit(a, Actor{EmployeeID: "emp"}, planningCycle(), 100, now)
		if err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("cycle past planning locks the draft", func(t *testing.T) {
		a := plannedAppraisal()
		cy := planningCycle()
		cy.InPlanning = false
		err := ValidateSubmit(a, Actor{EmployeeID: "emp"}, cy, 100, now)
		if !faults.IsPermission(err) {
			t.Fatalf("expected permission error, got %v", err)
		}
	})
}

// Single-approver chain: the supervisor's approval finalizes the plan
// directly because no later stage is configured.
func TestApprovalChainSupervisorOnly(t *testing.T) {
	a := plannedAppraisal()
	a.State = StatePendingSupervisor

	stage, err := ValidateStageAction(a, Actor{EmployeeID: "sup"})
	if err != nil {
		t.Fatalf("supervisor should be allowed to act: %v", err)
	}
	if stage != StageSupervisor {
		t.Fatalf("expected supervisor stage, got %q", stage)
	}
	if next := NextStateOnApprove(a); next != StateApproved {
		t.Fatalf("expected direct approval, got %q", next)
	}
}

// Full chain with a secondary-stage rejection: resubmission restarts at
// pending_supervisor, never at the stage that rejected.
func TestApprovalChainWithRejectionRestart(t *testing.T) {
	a := plannedAppraisal()
	a.SecondarySupervisorID = "sup2"
	a.ReviewerID = "rev"
	now := time.Now()

	if err := ValidateSubmit(a, Actor{EmployeeID: "emp"}, planningCycle(), 100, now); err != nil {
		t.Fatalf("submit: %v", err)
	}
	applyTransition(a, StatePendingSupervisor, StampSubmitted, now)

	if _, err := ValidateStageAction(a, Actor{EmployeeID: "sup2"}); !faults.IsPermission(err) {
		t.Fatalf("secondary supervisor must not act at the first stage, got %v", err)
	}
	if next := NextStateOnApprove(a); next != StatePendingSecondarySupervisor {
		t.Fatalf("expected secondary stage next, got %q", next)
	}
	applyTransition(a, StatePendingSecondarySupervisor, StampSupervisorReviewed, now)

	// Secondary supervisor rejects.
	if _, err := ValidateStageAction(a, Actor{EmployeeID: "sup2"}); err != nil {
		t.Fatalf("secondary supervisor should act at their stage: %v", err)
	}
	applyTransition(a, StateRejected, StampRejected, now)
	if a.RejectedAt == nil {
		t.Fatal("rejection timestamp missing")
	}

	// Resubmission goes back through the full chain.
	if err := ValidateSubmit(a, Actor{EmployeeID: "emp"}, planningCycle(), 100, now.Add(time.Hour)); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	applyTransition(a, StatePendingSupervisor, StampSubmitted, now.Add(time.Hour))
	if a.State != StatePendingSupervisor {
		t.Fatalf("chain must restart at the supervisor, got %q", a.State)
	}

	applyTransition(a, NextStateOnApprove(a), StampSupervisorReviewed, now)
	applyTransition(a, NextStateOnApprove(a), StampSecondaryReviewed, now)
	if a.State != StatePendingReviewer {
		t.Fatalf("expected reviewer stage, got %q", a.State)
	}
	applyTransition(a, NextStateOnApprove(a), StampReviewerApproved, now)
	if a.State != StateApproved {
		t.Fatalf("expected approved, got %q", a.State)
	}
}

func TestNextStateSkipsUnsetStages(t *testing.T) {
	a := plannedAppraisal()
	a.ReviewerID = "rev"
	a.State = StatePendingSupervisor
	if next := NextStateOnApprove(a); next != StatePendingReviewer {
		t.Fatalf("expected the unset secondary stage to be skipped, got %q", next)
	}
}

func TestAdminMayStandInForApprover(t *testing.T) {
	a := plannedAppraisal()
	a.State = StatePendingSupervisor
	if _, err := ValidateStageAction(a, Actor{EmployeeID: "hr", Admin: true}); err != nil {
		t.Fatalf("admin stand-in should pass: %v", err)
	}
}

func TestStageActionRequiresPendingState(t *testing.T) {
	a := plannedAppraisal()
	a.State = StateDraft
	if _, err := ValidateStageAction(a, Actor{EmployeeID: "sup"}); !faults.IsValidation(err) {
		t.Fatalf("expected validation error on draft, got %v", err)
	}
}
