package org

import "testing"

func TestValidateHierarchy(t *testing.T) {
	cases := []struct {
		name    string
		e       Employee
		wantErr bool
	}{
		{"valid", Employee{ID: "e1", ManagerID: "m1", SecondaryManagerID: "m2", ReviewerID: "r1"}, false},
		{"own manager", Employee{ID: "e1", ManagerID: "e1"}, true},
		{"own reviewer", Employee{ID: "e1", ReviewerID: "e1"}, true},
		{"same managers", Employee{ID: "e1", ManagerID: "m1", SecondaryManagerID: "m1"}, true},
		{"secondary is reviewer", Employee{ID: "e1", SecondaryManagerID: "m2", ReviewerID: "m2"}, true},
	}
	for _, tc := range cases {
		err := ValidateHierarchy(tc.e, nil)
		if tc.wantErr && err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
	}
}

func TestValidateHierarchyReviewerReportsToEmployee(t *testing.T) {
	reviewer := Employee{ID: "r1", ManagerID: "e1"}
	lookup := func(id string) *Employee {
		if id == "r1" {
			return &reviewer
		}
		return nil
	}

	err := ValidateHierarchy(Employee{ID: "e1", ReviewerID: "r1"}, lookup)
	if err == nil {
		t.Fatal("expected error when reviewer reports to the employee")
	}
}
