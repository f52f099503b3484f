package template

// Template is the reusable KRA/KPI definition for one evaluation group. It
// is configuration data: the workflow core reads it to seed appraisals and
// never mutates it.
type Template struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	EvaluationGroupID string        `json:"evaluationGroupId"`
	Active            bool          `json:"active"`
	TotalKPIScore     float64       `json:"totalKpiScore"`
	KRAs              []TemplateKRA `json:"kras"`
}

type TemplateKRA struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Sequence int           `json:"sequence"`
	KPIs     []TemplateKPI `json:"kpis"`
}

type TemplateKPI struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Criteria    string  `json:"criteria"`
	Score       float64 `json:"score"`
}

// Total sums every KPI score across all KRAs. Stored totals are derived
// from this at write time; the clone path recomputes it as a guard.
func (t *Template) Total() float64 {
	var total float64
	for _, kra := range t.KRAs {
		for _, kpi := range kra.KPIs {
			total += kpi.Score
		}
	}
	return total
}
