package appraisal

import (
	"time"

	"pms/internal/domain/faults"
)

// The UI layer always sends the full nested KRA/KPI payload on save, not
// just the changed fields, so the write guard has to filter payload
// contents per role instead of checking which attributes look dirty.

type OpCode string

const (
	OpInsert  OpCode = "insert"
	OpUpdate  OpCode = "update"
	OpDelete  OpCode = "delete"
	OpRelink  OpCode = "relink"
	OpClear   OpCode = "clear"
	OpReplace OpCode = "replace"
)

var knownOps = map[OpCode]bool{
	OpInsert:  true,
	OpUpdate:  true,
	OpDelete:  true,
	OpRelink:  true,
	OpClear:   true,
	OpReplace: true,
}

type KPIChange struct {
	Op     OpCode         `json:"op"`
	KPIID  string         `json:"kpiId,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
	IDs    []string       `json:"ids,omitempty"`
}

type KRAChange struct {
	Op     OpCode         `json:"op"`
	KRAID  string         `json:"kraId,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
	KPIs   []KPIChange    `json:"kpis,omitempty"`
	IDs    []string       `json:"ids,omitempty"`
}

type WritePayload struct {
	Fields map[string]any `json:"fields,omitempty"`
	KRAs   []KRAChange    `json:"kras,omitempty"`
}

// WriteRole is the caller's resolved role relative to one appraisal.
type WriteRole int

const (
	WriteRoleNone WriteRole = iota
	WriteRoleEmployee
	WriteRoleSupervisor
	WriteRoleSecondarySupervisor
	WriteRoleReviewer
	WriteRoleAdmin
)

// Per-role KPI field allow-lists. Each approver stage may only touch its
// own scoring fields; the reviewer edits nothing and acts purely through
// approve/reject.
var (
	employeeKPIFields = map[string]bool{
		"isSelected":      true,
		"target":          true,
		"planningRemarks": true,
		"weightage":       true,
	}
	supervisorKPIFields = map[string]bool{
		"supervisorScore":   true,
		"supervisorRemarks": true,
	}
	secondaryKPIFields = map[string]bool{
		"secondarySupervisorScore":   true,
		"secondarySupervisorRemarks": true,
	}
	reviewerKPIFields = map[string]bool{}

	// Top-level fields owned by the state machine. Caller-sent values are
	// never applied; anything else at the top level is an outright
	// permission error.
	systemFields = map[string]bool{
		"state":                true,
		"submittedAt":          true,
		"supervisorReviewedAt": true,
		"secondaryReviewedAt":  true,
		"reviewerApprovedAt":   true,
		"rejectedAt":           true,
		"active":               true,
	}
)

func kpiFieldsFor(role WriteRole) map[string]bool {
	switch role {
	case WriteRoleEmployee:
		return employeeKPIFields
	case WriteRoleSupervisor:
		return supervisorKPIFields
	case WriteRoleSecondarySupervisor:
		return secondaryKPIFields
	case WriteRoleReviewer:
		return reviewerKPIFields
	}
	return nil
}

// ResolveWriteRole decides which filter branch applies for this caller on
// this appraisal right now. Approver roles are only live while their stage
// is pending and the cycle is still in planning.
func ResolveWriteRole(a *Appraisal, cy CycleInfo, actor Actor, now time.Time) WriteRole {
	if actor.Admin {
		return WriteRoleAdmin
	}
	if actor.EmployeeID == "" {
		return WriteRoleNone
	}
	if actor.EmployeeID == a.EmployeeID && CanEmployeeEdit(a, cy, now) {
		return WriteRoleEmployee
	}
	if !cy.InPlanning {
		return WriteRoleNone
	}
	switch a.State {
	case StatePendingSupervisor:
		if actor.EmployeeID == a.SupervisorID {
			return WriteRoleSupervisor
		}
	case StatePendingSecondarySupervisor:
		if actor.EmployeeID == a.SecondarySupervisorID {
			return WriteRoleSecondarySupervisor
		}
	case StatePendingReviewer:
		if actor.EmployeeID == a.ReviewerID {
			return WriteRoleReviewer
		}
	}
	return WriteRoleNone
}

// FilterWrite strips a write payload down to what the role may touch.
//
//   - Updates keep only allow-listed fields and are dropped entirely when
//     nothing survives.
//   - Structural operations (insert, delete, relink, clear, replace) pass
//     through for the employee editor and are dropped silently for every
//     approver role.
//   - Top-level fields outside the system set are a hard permission error;
//     system fields are stripped (the state machine writes those itself).
//   - Op codes outside the declared set are a validation error.
func FilterWrite(role WriteRole, p WritePayload) (WritePayload, error) {
	switch role {
	case WriteRoleNone:
		return WritePayload{}, faults.Permissionf("you do not have permission to edit this plan at this stage")
	case WriteRoleAdmin:
		return p, nil
	}

	out := WritePayload{}
	for field := range p.Fields {
		if !systemFields[field] {
			return WritePayload{}, faults.Permissionf("field %q may not be modified on a performance plan", field)
		}
	}

	allowed := kpiFieldsFor(role)
	structural := role == WriteRoleEmployee

	for _, kra := range p.KRAs {
		if !knownOps[kra.Op] {
			return WritePayload{}, faults.Validationf("unsupported line operation %q", kra.Op)
		}
		for _, kpi := range kra.KPIs {
			if !knownOps[kpi.Op] {
				return WritePayload{}, faults.Validationf("unsupported line operation %q", kpi.Op)
			}
		}
		switch kra.Op {
		case OpUpdate:
			filtered := KRAChange{Op: OpUpdate, KRAID: kra.KRAID}
			if structural && len(kra.Fields) > 0 {
				filtered.Fields = kra.Fields
			}
			for _, kpi := range kra.KPIs {
				if next, keep := filterKPIChange(kpi, allowed, structural); keep {
					filtered.KPIs = append(filtered.KPIs, next)
				}
			}
			if len(filtered.KPIs) > 0 || len(filtered.Fields) > 0 {
				out.KRAs = append(out.KRAs, filtered)
			}
		default:
			// KRA-level structural change.
			if structural {
				out.KRAs = append(out.KRAs, kra)
			}
		}
	}
	return out, nil
}

func filterKPIChange(kpi KPIChange, allowed map[string]bool, structural bool) (KPIChange, bool) {
	switch kpi.Op {
	case OpUpdate:
		fields := map[string]any{}
		for field, value := range kpi.Fields {
			if allowed[field] {
				fields[field] = value
			}
		}
		if len(fields) == 0 {
			// Nothing survived the allow-list; drop the whole operation.
			return KPIChange{}, false
		}
		return KPIChange{Op: OpUpdate, KPIID: kpi.KPIID, Fields: fields}, true
	default:
		if !structural {
			return KPIChange{}, false
		}
		return kpi, true
	}
}
