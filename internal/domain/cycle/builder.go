package cycle

import (
	"pms/internal/domain/appraisal"
	"pms/internal/domain/org"
	"pms/internal/domain/template"
)

// CloneTemplate builds a draft appraisal from the employee's template. Every
// KRA and KPI is deep-copied with a back-reference to its template row;
// later template edits never reach the clone. KPIs start selected with the
// template weight and empty planning fields.
func CloneTemplate(t *template.Template, e *org.Employee, cycleID string) *appraisal.Appraisal {
	a := &appraisal.Appraisal{
		CycleID:               cycleID,
		EmployeeID:            e.ID,
		EmployeeName:          e.Name,
		TemplateID:            t.ID,
		SupervisorID:          e.ManagerID,
		SecondarySupervisorID: e.SecondaryManagerID,
		ReviewerID:            e.ReviewerID,
		State:                 appraisal.StateDraft,
		Active:                true,
	}
	for _, kra := range t.KRAs {
		clone := appraisal.KRA{
			Name:          kra.Name,
			Sequence:      kra.Sequence,
			TemplateKRAID: kra.ID,
		}
		for _, kpi := range kra.KPIs {
			clone.KPIs = append(clone.KPIs, appraisal.KPI{
				Name:          kpi.Name,
				Description:   kpi.Description,
				Criteria:      kpi.Criteria,
				TemplateKPIID: kpi.ID,
				Weightage:     kpi.Score,
				IsSelected:    true,
			})
		}
		a.KRAs = append(a.KRAs, clone)
	}
	return a
}
