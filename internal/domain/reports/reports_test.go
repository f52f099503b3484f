package reports

import (
	"bytes"
	"context"
	"testing"
	"time"

	"pms/internal/domain/appraisal"
	"pms/internal/domain/cycle"
	"pms/internal/domain/faults"
)

type fakeCycleStore struct {
	cycle.StoreAPI
	cycles   map[string]cycle.Cycle
	progress cycle.Progress
}

func (f *fakeCycleStore) Get(_ context.Context, id string) (cycle.Cycle, error) {
	c, ok := f.cycles[id]
	if !ok {
		return cycle.Cycle{}, faults.ErrNotFound
	}
	return c, nil
}

func (f *fakeCycleStore) Progress(_ context.Context, _ string) (cycle.Progress, error) {
	return f.progress, nil
}

type fakeAppraisalStore struct {
	appraisal.StoreAPI
	appraisals map[string]*appraisal.Appraisal
}

func (f *fakeAppraisalStore) Get(_ context.Context, id string) (*appraisal.Appraisal, error) {
	a, ok := f.appraisals[id]
	if !ok {
		return nil, faults.ErrNotFound
	}
	return a, nil
}

func (f *fakeAppraisalStore) ListByCycle(_ context.Context, cycleID string) ([]appraisal.Appraisal, error) {
	var out []appraisal.Appraisal
	for _, a := range f.appraisals {
		if a.CycleID == cycleID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func reportFixture() *Service {
	cycles := &fakeCycleStore{
		cycles: map[string]cycle.Cycle{"c1": {
			ID: "c1", Name: "PMS/0001", State: cycle.StatePlanning,
			StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		}},
		progress: cycle.Progress{Total: 1, ByState: map[string]int{"draft": 1}},
	}
	appraisals := &fakeAppraisalStore{appraisals: map[string]*appraisal.Appraisal{
		"a1": {
			ID: "a1", CycleID: "c1", EmployeeName: "Jo Doe", State: appraisal.StateDraft,
			KRAs: []appraisal.KRA{{Name: "Delivery", KPIs: []appraisal.KPI{
				{Name: "Ship features", Weightage: 60, IsSelected: true, Target: "4 releases", PlanningRemarks: "quarterly"},
				{Name: "Unpicked", Weightage: 40},
			}}},
		},
	}}
	return NewService(cycles, appraisals)
}

func TestCycleReport(t *testing.T) {
	svc := reportFixture()

	report, err := svc.CycleReport(context.Background(), "c1")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.Cycle.Name != "PMS/0001" {
		t.Fatalf("got cycle %q", report.Cycle.Name)
	}
	if len(report.Rows) != 1 {
		t.Fatalf("got %d rows", len(report.Rows))
	}
	row := report.Rows[0]
	if row.EmployeeName != "Jo Doe" || row.State != appraisal.StateDraft {
		t.Fatalf("row wrong: %+v", row)
	}
	if row.PlanningProgress != 100 {
		t.Fatalf("got progress %v", row.PlanningProgress)
	}
	if row.TotalWeight != 60 {
		t.Fatalf("got weight %v", row.TotalWeight)
	}
}

func TestAppraisalPDF(t *testing.T) {
	svc := reportFixture()

	var buf bytes.Buffer
	if err := svc.AppraisalPDF(context.Background(), "a1", &buf); err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("empty document")
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatal("output is not a PDF")
	}
}

func TestCycleReportUnknownCycle(t *testing.T) {
	svc := reportFixture()
	if _, err := svc.CycleReport(context.Background(), "nope"); err == nil {
		t.Fatal("expected error")
	}
}
