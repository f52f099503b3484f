package cycle

import (
	"testing"

	"pms/internal/domain/appraisal"
	"pms/internal/domain/org"
	"pms/internal/domain/template"
)

func sampleTemplate() *template.Template {
	return &template.Template{
		ID:            "t1",
		Name:          "Engineering",
		TotalKPIScore: 100,
		KRAs: []template.TemplateKRA{
			{ID: "tk1", Name: "Delivery", Sequence: 1, KPIs: []template.TemplateKPI{
				{ID: "tp1", Name: "Ship features", Description: "desc", Criteria: "count", Score: 60},
				{ID: "tp2", Name: "Reduce defects", Score: 40},
			}},
			{ID: "tk2", Name: "Growth", Sequence: 2, KPIs: []template.TemplateKPI{
				{ID: "tp3", Name: "Mentoring", Score: 20},
			}},
		},
	}
}

func TestCloneTemplate(t *testing.T) {
	e := &org.Employee{
		ID: "emp", Name: "Jo Doe",
		ManagerID: "m1", SecondaryManagerID: "m2", ReviewerID: "r1",
	}
	a := CloneTemplate(sampleTemplate(), e, "c1")

	if a.State != appraisal.StateDraft {
		t.Fatalf("clone must start in draft, got %q", a.State)
	}
	if a.CycleID != "c1" || a.EmployeeID != "emp" || a.TemplateID != "t1" {
		t.Fatalf("references wrong: %+v", a)
	}
	if a.SupervisorID != "m1" || a.SecondarySupervisorID != "m2" || a.ReviewerID != "r1" {
		t.Fatal("approver references must come from the employee hierarchy")
	}
	if len(a.KRAs) != 2 {
		t.Fatalf("got %d KRAs", len(a.KRAs))
	}
	if a.KRAs[0].TemplateKRAID != "tk1" {
		t.Fatal("KRA back-reference missing")
	}

	kpi := a.KRAs[0].KPIs[0]
	if !kpi.IsSelected {
		t.Fatal("clones start selected")
	}
	if kpi.Weightage != 60 {
		t.Fatalf("weightage not copied, got %v", kpi.Weightage)
	}
	if kpi.Target != "" || kpi.PlanningRemarks != "" {
		t.Fatal("planning fields must start empty")
	}
	if kpi.TemplateKPIID != "tp1" {
		t.Fatal("KPI back-reference missing")
	}
}

func TestCloneOmitsOptionalApprovers(t *testing.T) {
	e := &org.Employee{ID: "emp", Name: "Solo", ManagerID: "m1"}
	a := CloneTemplate(sampleTemplate(), e, "c1")
	if a.SecondarySupervisorID != "" || a.ReviewerID != "" {
		t.Fatal("unset hierarchy references must stay empty")
	}
}
