package reports

import (
	"context"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"pms/internal/domain/appraisal"
	"pms/internal/domain/cycle"
)

// CycleReport is the planning progress summary for one cycle.
type CycleReport struct {
	Cycle    cycle.Cycle    `json:"cycle"`
	Progress cycle.Progress `json:"progress"`
	Rows     []ReportRow    `json:"rows"`
}

type ReportRow struct {
	AppraisalID      string  `json:"appraisalId"`
	EmployeeName     string  `json:"employeeName"`
	State            string  `json:"state"`
	PlanningProgress float64 `json:"planningProgress"`
	TotalWeight      float64 `json:"totalWeight"`
}

type Service struct {
	cycles     cycle.StoreAPI
	appraisals appraisal.StoreAPI
}

func NewService(cycles cycle.StoreAPI, appraisals appraisal.StoreAPI) *Service {
	return &Service{cycles: cycles, appraisals: appraisals}
}

func (s *Service) CycleReport(ctx context.Context, cycleID string) (*CycleReport, error) {
	c, err := s.cycles.Get(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	progress, err := s.cycles.Progress(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	list, err := s.appraisals.ListByCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}

	report := &CycleReport{Cycle: c, Progress: progress}
	for i := range list {
		full, err := s.appraisals.Get(ctx, list[i].ID)
		if err != nil {
			return nil, err
		}
		report.Rows = append(report.Rows, ReportRow{
			AppraisalID:      full.ID,
			EmployeeName:     full.EmployeeName,
			State:            full.State,
			PlanningProgress: full.PlanningProgress(),
			TotalWeight:      full.CurrentTotalScore(),
		})
	}
	return report, nil
}

// AppraisalPDF renders one appraisal as a printable plan document.
func (s *Service) AppraisalPDF(ctx context.Context, id string, w io.Writer) error {
	a, err := s.appraisals.Get(ctx, id)
	if err != nil {
		return err
	}
	c, err := s.cycles.Get(ctx, a.CycleID)
	if err != nil {
		return err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Performance Plan")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", a.EmployeeName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Cycle: %s (%s to %s)", c.Name,
		c.StartDate.Format("2006-01-02"), c.EndDate.Format("2006-01-02")))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("State: %s", a.State))
	pdf.Ln(10)

	for _, kra := range a.KRAs {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, kra.Name)
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		for _, kpi := range kra.KPIs {
			if !kpi.IsSelected {
				continue
			}
			pdf.Cell(0, 7, fmt.Sprintf("%s (weight %.2f)", kpi.Name, kpi.Weightage))
			pdf.Ln(6)
			if kpi.Target != "" {
				pdf.Cell(0, 6, fmt.Sprintf("  Target: %s", kpi.Target))
				pdf.Ln(6)
			}
			if kpi.PlanningRemarks != "" {
				pdf.Cell(0, 6, fmt.Sprintf("  Remarks: %s", kpi.PlanningRemarks))
				pdf.Ln(6)
			}
		}
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Total selected weight: %.2f", a.CurrentTotalScore()))

	return pdf.Output(w)
}
