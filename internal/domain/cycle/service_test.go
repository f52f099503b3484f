package cycle

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"pms/internal/domain/appraisal"
	"pms/internal/domain/faults"
	"pms/internal/domain/org"
	"pms/internal/domain/template"
)

type fakeCycleStore struct {
	cycles      map[string]*Cycle
	seq         int
	transitions []string
	deleted     []string
}

func (f *fakeCycleStore) Get(_ context.Context, id string) (Cycle, error) {
	c, ok := f.cycles[id]
	if !ok {
		return Cycle{}, faults.ErrNotFound
	}
	return *c, nil
}

func (f *fakeCycleStore) List(_ context.Context) ([]Cycle, error) {
	var out []Cycle
	for _, c := range f.cycles {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCycleStore) Create(_ context.Context, c Cycle) (string, error) {
	c.ID = "generated"
	f.cycles[c.ID] = &c
	return c.ID, nil
}

func (f *fakeCycleStore) UpdateDraft(_ context.Context, c Cycle) error {
	existing, ok := f.cycles[c.ID]
	if !ok || existing.State != StateDraft {
		return faults.ErrConflict
	}
	c.CreatedAt = existing.CreatedAt
	f.cycles[c.ID] = &c
	return nil
}

func (f *fakeCycleStore) TransitionState(_ context.Context, id, fromState, toState string) error {
	c, ok := f.cycles[id]
	if !ok {
		return faults.ErrNotFound
	}
	if c.State != fromState {
		return faults.ErrConflict
	}
	c.State = toState
	f.transitions = append(f.transitions, fromState+">"+toState)
	return nil
}

func (f *fakeCycleStore) Delete(_ context.Context, id string) error {
	delete(f.cycles, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeCycleStore) NextSequence(_ context.Context) (int, error) {
	f.seq++
	return f.seq, nil
}

func (f *fakeCycleStore) Progress(_ context.Context, _ string) (Progress, error) {
	return Progress{}, nil
}

type fakeEmployeeStore struct {
	org.StoreAPI
	employees []org.Employee
}

func (f *fakeEmployeeStore) ListActiveWithGroup(_ context.Context) ([]org.Employee, error) {
	var out []org.Employee
	for _, e := range f.employees {
		if e.Active && e.EvaluationGroupID != "" {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEmployeeStore) ListByIDs(_ context.Context, ids []string) ([]org.Employee, error) {
	var out []org.Employee
	for _, e := range f.employees {
		for _, id := range ids {
			if e.ID == id {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

type fakeTemplateStore struct {
	template.StoreAPI
	templates map[string]*template.Template
}

func (f *fakeTemplateStore) FindByEvaluationGroup(_ context.Context, groupID string) (*template.Template, error) {
	t, ok := f.templates[groupID]
	if !ok {
		return nil, faults.ErrNotFound
	}
	return t, nil
}

func (f *fakeTemplateStore) MissingForGroups(_ context.Context, groupIDs []string) (map[string]bool, error) {
	missing := map[string]bool{}
	for _, g := range groupIDs {
		if _, ok := f.templates[g]; !ok {
			missing[g] = true
		}
	}
	return missing, nil
}

type fakeAppraisalStore struct {
	appraisal.StoreAPI
	created []*appraisal.Appraisal
	users   map[string]string
}

func (f *fakeAppraisalStore) Create(_ context.Context, a *appraisal.Appraisal) (string, error) {
	for _, existing := range f.created {
		if existing.CycleID == a.CycleID && existing.EmployeeID == a.EmployeeID {
			return "", appraisal.ErrDuplicate
		}
	}
	f.created = append(f.created, a)
	return "new", nil
}

func (f *fakeAppraisalStore) UserIDForEmployee(_ context.Context, employeeID string) (string, error) {
	return f.users[employeeID], nil
}

type recordingNotifier struct {
	sent []string
}

func (r *recordingNotifier) Create(_ context.Context, userID, ntype, _, _ string) error {
	r.sent = append(r.sent, userID+":"+ntype)
	return nil
}

func cycleFixture() (*Service, *fakeCycleStore, *fakeAppraisalStore, *recordingNotifier) {
	store := &fakeCycleStore{cycles: map[string]*Cycle{}}
	store.cycles["c1"] = &Cycle{
		ID: "c1", Name: "PMS/0001", Sequence: "PMS/0001",
		Type: TypeAnnual, State: StateDraft, ApplyTo: ApplyToAll,
		StartDate:        time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:          time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		PlanningDeadline: time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	}
	employees := &fakeEmployeeStore{employees: []org.Employee{
		{ID: "e1", Name: "One", Active: true, ManagerID: "m1", EvaluationGroupID: "g1"},
		{ID: "e2", Name: "Two", Active: true, ManagerID: "m1", EvaluationGroupID: "g1"},
		{ID: "e3", Name: "Inactive", Active: false, ManagerID: "m1", EvaluationGroupID: "g1"},
	}}
	templates := &fakeTemplateStore{templates: map[string]*template.Template{
		"g1": sampleTemplate(),
	}}
	appraisals := &fakeAppraisalStore{users: map[string]string{"e1": "u1", "e2": "u2"}}
	notify := &recordingNotifier{}
	return NewService(store, employees, templates, appraisals, notify), store, appraisals, notify
}

func TestActivateCreatesOnePerEmployee(t *testing.T) {
	svc, store, appraisals, notify := cycleFixture()

	result, err := svc.Activate(context.Background(), "c1")
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if result.Created != 2 || result.Skipped != 0 {
		t.Fatalf("got %+v", result)
	}
	if len(appraisals.created) != 2 {
		t.Fatalf("got %d appraisals", len(appraisals.created))
	}
	if store.cycles["c1"].State != StatePlanning {
		t.Fatalf("cycle should be planning, got %q", store.cycles["c1"].State)
	}
	if len(notify.sent) != 2 {
		t.Fatalf("each employee gets a notification, got %v", notify.sent)
	}
}

func TestActivateIsRepeatable(t *testing.T) {
	svc, store, appraisals, _ := cycleFixture()

	if _, err := svc.Activate(context.Background(), "c1"); err != nil {
		t.Fatalf("first activate: %v", err)
	}
	// Back the state out to simulate a retried activation.
	store.cycles["c1"].State = StateDraft

	result, err := svc.Activate(context.Background(), "c1")
	if err != nil {
		t.Fatalf("second activate: %v", err)
	}
	if result.Created != 0 || result.Skipped != 2 {
		t.Fatalf("got %+v", result)
	}
	if len(appraisals.created) != 2 {
		t.Fatal("duplicates must never be created")
	}
}

func TestActivateAggregatesConfigurationProblems(t *testing.T) {
	svc, store, appraisals, _ := cycleFixture()
	employees := &fakeEmployeeStore{employees: []org.Employee{
		{ID: "e1", Name: "NoManager", Active: true, EvaluationGroupID: "g1"},
		{ID: "e2", Name: "NoGroup", Active: true, ManagerID: "m1"},
		{ID: "e3", Name: "NoTemplate", Active: true, ManagerID: "m1", EvaluationGroupID: "g404"},
	}}
	svc.employees = employees
	store.cycles["c1"].ApplyTo = ApplyToSelected
	store.cycles["c1"].EmployeeIDs = []string{"e1", "e2", "e3"}

	_, err := svc.Activate(context.Background(), "c1")
	if !faults.IsConfiguration(err) {
		t.Fatalf("expected aggregated configuration error, got %v", err)
	}
	var ce *faults.ConfigurationError
	if !errors.As(err, &ce) || len(ce.Problems) != 3 {
		t.Fatalf("expected all three problems listed, got %v", err)
	}
	if len(appraisals.created) != 0 {
		t.Fatal("no appraisal may be created when validation fails")
	}
	if store.cycles["c1"].State != StateDraft {
		t.Fatal("cycle must stay in draft on aborted activation")
	}
	if !strings.Contains(ce.Problems[0], "NoManager") {
		t.Fatalf("problems should name the offender, got %v", ce.Problems)
	}
}

func TestActivateRequiresDraft(t *testing.T) {
	svc, store, _, _ := cycleFixture()
	store.cycles["c1"].State = StatePlanning

	_, err := svc.Activate(context.Background(), "c1")
	if !faults.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAdvancePhaseGuards(t *testing.T) {
	svc, store, _, _ := cycleFixture()
	store.cycles["c1"].State = StatePlanning

	c, err := svc.AdvancePhase(context.Background(), "c1", StateMonitoring)
	if err != nil {
		t.Fatalf("planning to monitoring: %v", err)
	}
	if c.State != StateMonitoring {
		t.Fatalf("got %q", c.State)
	}

	if _, err := svc.AdvancePhase(context.Background(), "c1", StateCompleted); !faults.IsValidation(err) {
		t.Fatalf("monitoring to completed must be refused, got %v", err)
	}

	if _, err := svc.AdvancePhase(context.Background(), "c1", StateAppraisal); err != nil {
		t.Fatalf("monitoring to appraisal: %v", err)
	}
	if _, err := svc.AdvancePhase(context.Background(), "c1", StateCompleted); err != nil {
		t.Fatalf("appraisal to completed: %v", err)
	}
	if _, err := svc.AdvancePhase(context.Background(), "c1", StateCancelled); !faults.IsValidation(err) {
		t.Fatalf("completed cycles cannot be cancelled, got %v", err)
	}
}

func TestUpdateDraftFrozenAfterActivation(t *testing.T) {
	svc, store, _, _ := cycleFixture()
	store.cycles["c1"].State = StatePlanning

	_, err := svc.UpdateDraft(context.Background(), Cycle{
		ID: "c1", Type: TypeAnnual, ApplyTo: ApplyToAll,
		StartDate: time.Now(), PlanningDurationDays: 30,
	})
	if !faults.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteOnlyInDraft(t *testing.T) {
	svc, store, _, _ := cycleFixture()

	if err := svc.Delete(context.Background(), "c1"); err != nil {
		t.Fatalf("draft delete: %v", err)
	}

	store.cycles["c2"] = &Cycle{ID: "c2", Name: "PMS/0002", State: StatePlanning}
	if err := svc.Delete(context.Background(), "c2"); !faults.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateDerivesDatesAndSequence(t *testing.T) {
	svc, _, _, _ := cycleFixture()

	c, err := svc.Create(context.Background(), Cycle{
		Type:                 TypeSemiAnnual,
		StartDate:            time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		PlanningDurationDays: 14,
		ApplyTo:              ApplyToAll,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Sequence != "PMS/0001" {
		t.Fatalf("got sequence %q", c.Sequence)
	}
	if want := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC); !c.EndDate.Equal(want) {
		t.Fatalf("got end %v, want %v", c.EndDate, want)
	}
	if want := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC); !c.PlanningDeadline.Equal(want) {
		t.Fatalf("got deadline %v, want %v", c.PlanningDeadline, want)
	}
	if c.State != StateDraft {
		t.Fatalf("got state %q", c.State)
	}
}
