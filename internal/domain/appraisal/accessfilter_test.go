package appraisal

import (
	"testing"
	"time"

	"pms/internal/domain/faults"
)

func TestResolveWriteRole(t *testing.T) {
	now := time.Now()
	cy := CycleInfo{InPlanning: true}

	a := plannedAppraisal()
	a.SecondarySupervisorID = "sup2"
	a.ReviewerID = "rev"

	tests := []struct {
		name  string
		state string
		actor Actor
		want  WriteRole
	}{
		{"owner on draft", StateDraft, Actor{EmployeeID: "emp"}, WriteRoleEmployee},
		{"admin always", StateApproved, Actor{Admin: true}, WriteRoleAdmin},
		{"supervisor at their stage", StatePendingSupervisor, Actor{EmployeeID: "sup"}, WriteRoleSupervisor},
		{"supervisor off stage", StatePendingReviewer, Actor{EmployeeID: "sup"}, WriteRoleNone},
		{"secondary at their stage", StatePendingSecondarySupervisor, Actor{EmployeeID: "sup2"}, WriteRoleSecondarySupervisor},
		{"reviewer at their stage", StatePendingReviewer, Actor{EmployeeID: "rev"}, WriteRoleReviewer},
		{"owner after approval", StateApproved, Actor{EmployeeID: "emp"}, WriteRoleNone},
		{"stranger", StatePendingSupervisor, Actor{EmployeeID: "other"}, WriteRoleNone},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a.State = tc.state
			if got := ResolveWriteRole(a, cy, tc.actor, now); got != tc.want {
				t.Fatalf("got role %d, want %d", got, tc.want)
			}
		})
	}

	t.Run("approver roles die outside planning", func(t *testing.T) {
		a.State = StatePendingSupervisor
		closed := CycleInfo{InPlanning: false}
		if got := ResolveWriteRole(a, closed, Actor{EmployeeID: "sup"}, now); got != WriteRoleNone {
			t.Fatalf("got role %d, want none", got)
		}
	})
}

func TestFilterWriteEmployee(t *testing.T) {
	payload := WritePayload{
		Fields: map[string]any{"state": StateApproved},
		KRAs: []KRAChange{
			{Op: OpUpdate, KRAID: "kra1", KPIs: []KPIChange{
				{Op: OpUpdate, KPIID: "kpi1", Fields: map[string]any{
					"target":          "new target",
					"supervisorScore": 10.0,
				}},
				{Op: OpInsert, Fields: map[string]any{"name": "New KPI", "weightage": 10.0}},
			}},
			{Op: OpDelete, KRAID: "kra2"},
		},
	}

	out, err := FilterWrite(WriteRoleEmployee, payload)
	if err != nil {
		t.Fatalf("employee write should pass: %v", err)
	}
	if len(out.Fields) != 0 {
		t.Fatalf("system fields must be stripped, got %v", out.Fields)
	}
	if len(out.KRAs) != 2 {
		t.Fatalf("expected both KRA changes to survive, got %d", len(out.KRAs))
	}
	kpis := out.KRAs[0].KPIs
	if len(kpis) != 2 {
		t.Fatalf("expected update and insert to survive, got %d", len(kpis))
	}
	if _, ok := kpis[0].Fields["supervisorScore"]; ok {
		t.Fatal("employee must not set supervisor scores")
	}
	if kpis[0].Fields["target"] != "new target" {
		t.Fatal("allowed field was lost")
	}
}

func TestFilterWriteSupervisorDropsStructuralOps(t *testing.T) {
	payload := WritePayload{
		KRAs: []KRAChange{
			{Op: OpUpdate, KRAID: "kra1", KPIs: []KPIChange{
				{Op: OpUpdate, KPIID: "kpi1", Fields: map[string]any{
					"supervisorScore":   8.0,
					"supervisorRemarks": "good",
					"target":            "tampered",
				}},
				{Op: OpDelete, KPIID: "kpi2"},
				{Op: OpInsert, Fields: map[string]any{"name": "sneaky"}},
			}},
			{Op: OpDelete, KRAID: "kra2"},
		},
	}

	out, err := FilterWrite(WriteRoleSupervisor, payload)
	if err != nil {
		t.Fatalf("supervisor write should pass: %v", err)
	}
	if len(out.KRAs) != 1 {
		t.Fatalf("structural KRA ops must be dropped, got %d changes", len(out.KRAs))
	}
	kpis := out.KRAs[0].KPIs
	if len(kpis) != 1 {
		t.Fatalf("only the score update should survive, got %d", len(kpis))
	}
	if _, ok := kpis[0].Fields["target"]; ok {
		t.Fatal("supervisor must not touch planning fields")
	}
	if kpis[0].Fields["supervisorScore"] != 8.0 {
		t.Fatal("supervisor score update was lost")
	}
}

func TestFilterWriteEmployeeKeepsRelink(t *testing.T) {
	payload := WritePayload{
		KRAs: []KRAChange{
			{Op: OpRelink, IDs: []string{"kra-9"}},
			{Op: OpUpdate, KRAID: "kra1", KPIs: []KPIChange{
				{Op: OpRelink, IDs: []string{"kpi-9"}},
			}},
		},
	}

	out, err := FilterWrite(WriteRoleEmployee, payload)
	if err != nil {
		t.Fatalf("employee write should pass: %v", err)
	}
	if len(out.KRAs) != 2 {
		t.Fatalf("expected both relink changes to survive, got %d", len(out.KRAs))
	}
	if out.KRAs[0].Op != OpRelink || len(out.KRAs[0].IDs) != 1 {
		t.Fatalf("KRA relink was mangled: %+v", out.KRAs[0])
	}
	if len(out.KRAs[1].KPIs) != 1 || out.KRAs[1].KPIs[0].Op != OpRelink {
		t.Fatalf("KPI relink was mangled: %+v", out.KRAs[1].KPIs)
	}

	out, err = FilterWrite(WriteRoleSupervisor, payload)
	if err != nil {
		t.Fatalf("supervisor write should pass: %v", err)
	}
	if len(out.KRAs) != 0 {
		t.Fatalf("relink is structural and must be dropped for approvers, got %d", len(out.KRAs))
	}
}

func TestFilterWriteRejectsUnknownOp(t *testing.T) {
	payload := WritePayload{KRAs: []KRAChange{{Op: OpCode("merge"), KRAID: "kra1"}}}
	if _, err := FilterWrite(WriteRoleEmployee, payload); !faults.IsValidation(err) {
		t.Fatalf("expected validation error for unknown KRA op, got %v", err)
	}

	nested := WritePayload{KRAs: []KRAChange{
		{Op: OpUpdate, KRAID: "kra1", KPIs: []KPIChange{{Op: OpCode("merge"), KPIID: "kpi1"}}},
	}}
	if _, err := FilterWrite(WriteRoleEmployee, nested); !faults.IsValidation(err) {
		t.Fatalf("expected validation error for unknown KPI op, got %v", err)
	}
}

func TestFilterWriteReviewerDropsEverything(t *testing.T) {
	payload := WritePayload{
		KRAs: []KRAChange{
			{Op: OpUpdate, KRAID: "kra1", KPIs: []KPIChange{
				{Op: OpUpdate, KPIID: "kpi1", Fields: map[string]any{"reviewerScore": 9.0}},
			}},
		},
	}
	out, err := FilterWrite(WriteRoleReviewer, payload)
	if err != nil {
		t.Fatalf("reviewer write should not error: %v", err)
	}
	if len(out.KRAs) != 0 {
		t.Fatalf("reviewer edits nothing, got %d changes", len(out.KRAs))
	}
}

func TestFilterWriteRejectsUnknownTopLevelField(t *testing.T) {
	payload := WritePayload{Fields: map[string]any{"employeeId": "someone-else"}}
	_, err := FilterWrite(WriteRoleEmployee, payload)
	if !faults.IsPermission(err) {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestFilterWriteNoRole(t *testing.T) {
	_, err := FilterWrite(WriteRoleNone, WritePayload{})
	if !faults.IsPermission(err) {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestFilterWriteAdminPassThrough(t *testing.T) {
	payload := WritePayload{Fields: map[string]any{"active": false}}
	out, err := FilterWrite(WriteRoleAdmin, payload)
	if err != nil {
		t.Fatalf("admin write should pass: %v", err)
	}
	if out.Fields["active"] != false {
		t.Fatal("admin payload must pass through unchanged")
	}
}
