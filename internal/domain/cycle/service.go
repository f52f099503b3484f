package cycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"pms/internal/domain/appraisal"
	"pms/internal/domain/faults"
	"pms/internal/domain/org"
	"pms/internal/domain/template"
)

type Notifier interface {
	Create(ctx context.Context, userID, ntype, title, body string) error
}

// Service coordinates cycles: creation, activation (the batch clone of
// template structures into per-employee appraisals) and the manual phase
// transitions.
type Service struct {
	store      StoreAPI
	employees  org.StoreAPI
	templates  template.StoreAPI
	appraisals appraisal.StoreAPI
	notify     Notifier
}

func NewService(store StoreAPI, employees org.StoreAPI, templates template.StoreAPI, appraisals appraisal.StoreAPI, notify Notifier) *Service {
	return &Service{
		store:      store,
		employees:  employees,
		templates:  templates,
		appraisals: appraisals,
		notify:     notify,
	}
}

func (s *Service) Get(ctx context.Context, id string) (Cycle, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Cycle, error) {
	return s.store.List(ctx)
}

func (s *Service) Progress(ctx context.Context, id string) (Progress, error) {
	return s.store.Progress(ctx, id)
}

// Create validates the draft, derives the computed dates and claims the
// next name in the cycle sequence.
func (s *Service) Create(ctx context.Context, c Cycle) (Cycle, error) {
	if err := validateDraft(&c); err != nil {
		return Cycle{}, err
	}
	c.EndDate = ComputeEndDate(c.Type, c.StartDate)
	c.PlanningDeadline = ComputePlanningDeadline(c.StartDate, c.PlanningDurationDays)
	c.State = StateDraft

	seq, err := s.store.NextSequence(ctx)
	if err != nil {
		return Cycle{}, err
	}
	c.Sequence = SequenceName(seq)
	if c.Name == "" {
		c.Name = c.Sequence
	}

	id, err := s.store.Create(ctx, c)
	if err != nil {
		return Cycle{}, err
	}
	c.ID = id
	return c, nil
}

// UpdateDraft edits a cycle's configuration. Dates, type and the employee
// set are frozen once the cycle has left draft.
func (s *Service) UpdateDraft(ctx context.Context, c Cycle) (Cycle, error) {
	current, err := s.store.Get(ctx, c.ID)
	if err != nil {
		return Cycle{}, err
	}
	if current.State != StateDraft {
		return Cycle{}, faults.Validationf("cycle %s has been activated: dates, type and employee set can no longer change", current.Name)
	}
	if err := validateDraft(&c); err != nil {
		return Cycle{}, err
	}
	c.EndDate = ComputeEndDate(c.Type, c.StartDate)
	c.PlanningDeadline = ComputePlanningDeadline(c.StartDate, c.PlanningDurationDays)
	c.State = StateDraft
	c.Sequence = current.Sequence
	if err := s.store.UpdateDraft(ctx, c); err != nil {
		return Cycle{}, err
	}
	return c, nil
}

// Delete is only allowed while the cycle is still in draft; activated
// cycles own live appraisals and can only be cancelled.
func (s *Service) Delete(ctx context.Context, id string) error {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.State != StateDraft {
		return faults.Validationf("cycle %s is not in draft and cannot be deleted", current.Name)
	}
	return s.store.Delete(ctx, id)
}

func validateDraft(c *Cycle) error {
	switch c.Type {
	case TypeAnnual, TypeSemiAnnual, TypeProbation:
	default:
		return faults.Validationf("unknown cycle type %q", c.Type)
	}
	if c.StartDate.IsZero() {
		return faults.Validationf("cycle start date is required")
	}
	if c.PlanningDurationDays <= 0 {
		return faults.Validationf("planning duration must be positive")
	}
	if c.ResubmissionDays < 0 {
		return faults.Validationf("resubmission window cannot be negative")
	}
	switch c.ApplyTo {
	case ApplyToAll:
	case ApplyToSelected:
		if len(c.EmployeeIDs) == 0 {
			return faults.Validationf("select at least one employee or apply the cycle to everyone")
		}
	default:
		return faults.Validationf("unknown employee scope %q", c.ApplyTo)
	}
	return nil
}

// Activate resolves the employee set, pre-validates the whole batch, then
// clones one appraisal per employee and moves the cycle into planning.
// Validation is all-or-nothing: any configuration problem aborts before a
// single appraisal is created, with every offender listed.
func (s *Service) Activate(ctx context.Context, id string) (ActivationResult, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return ActivationResult{}, err
	}
	if c.State != StateDraft {
		return ActivationResult{}, faults.Validationf("cycle %s is not in draft", c.Name)
	}
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return ActivationResult{}, faults.Validationf("cycle %s has no dates set", c.Name)
	}

	members, err := s.resolveEmployees(ctx, c)
	if err != nil {
		return ActivationResult{}, err
	}
	if err := s.prevalidate(ctx, members); err != nil {
		return ActivationResult{}, err
	}

	// Templates per evaluation group, loaded once per group.
	byGroup := map[string]*template.Template{}
	var result ActivationResult
	for i := range members {
		e := &members[i]
		t, ok := byGroup[e.EvaluationGroupID]
		if !ok {
			t, err = s.templates.FindByEvaluationGroup(ctx, e.EvaluationGroupID)
			if err != nil {
				return result, fmt.Errorf("template for group %s: %w", e.EvaluationGroupID, err)
			}
			byGroup[e.EvaluationGroupID] = t
		}

		a := CloneTemplate(t, e, c.ID)
		if _, err := s.appraisals.Create(ctx, a); err != nil {
			if errors.Is(err, appraisal.ErrDuplicate) {
				result.Skipped++
				continue
			}
			return result, err
		}
		result.Created++
		s.notifyEmployee(ctx, e.ID, "cycle_activated",
			"A new performance cycle has started",
			fmt.Sprintf("Cycle %s is open for planning. Select your KPIs and submit your plan before %s.",
				c.Name, c.PlanningDeadline.Format("2006-01-02")))
	}

	if err := s.store.TransitionState(ctx, c.ID, StateDraft, StatePlanning); err != nil {
		return result, err
	}
	slog.Info("cycle activated", "cycle", c.Name, "created", result.Created, "skipped", result.Skipped)
	return result, nil
}

func (s *Service) resolveEmployees(ctx context.Context, c Cycle) ([]org.Employee, error) {
	if c.ApplyTo == ApplyToSelected {
		return s.employees.ListByIDs(ctx, c.EmployeeIDs)
	}
	return s.employees.ListActiveWithGroup(ctx)
}

// prevalidate checks the whole batch before anything is created: every
// member needs a primary manager and an evaluation group whose template
// exists and is active.
func (s *Service) prevalidate(ctx context.Context, members []org.Employee) error {
	var problems []string
	groups := map[string]bool{}
	for _, e := range members {
		if e.ManagerID == "" {
			problems = append(problems, fmt.Sprintf("employee %s has no primary manager", e.Name))
		}
		if e.EvaluationGroupID == "" {
			problems = append(problems, fmt.Sprintf("employee %s has no evaluation group", e.Name))
			continue
		}
		groups[e.EvaluationGroupID] = true
	}

	ids := make([]string, 0, len(groups))
	for g := range groups {
		ids = append(ids, g)
	}
	missing, err := s.templates.MissingForGroups(ctx, ids)
	if err != nil {
		return err
	}
	for _, e := range members {
		if e.EvaluationGroupID != "" && missing[e.EvaluationGroupID] {
			problems = append(problems, fmt.Sprintf("no active template for the evaluation group of %s", e.Name))
		}
	}

	if len(problems) > 0 {
		return &faults.ConfigurationError{Problems: problems}
	}
	return nil
}

// AdvancePhase performs one of the guarded manual transitions. The source
// state must match the target's requirement exactly.
func (s *Service) AdvancePhase(ctx context.Context, id, target string) (Cycle, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return Cycle{}, err
	}
	sources, ok := phaseTransitions[target]
	if !ok {
		return Cycle{}, faults.Validationf("unknown cycle phase %q", target)
	}
	allowed := false
	for _, from := range sources {
		if c.State == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return Cycle{}, faults.Validationf("cycle %s cannot move from %s to %s", c.Name, c.State, target)
	}
	if err := s.store.TransitionState(ctx, c.ID, c.State, target); err != nil {
		return Cycle{}, err
	}
	c.State = target
	return c, nil
}

func (s *Service) notifyEmployee(ctx context.Context, employeeID, ntype, title, body string) {
	if s.notify == nil {
		return
	}
	userID, err := s.appraisals.UserIDForEmployee(ctx, employeeID)
	if err != nil || userID == "" {
		return
	}
	if err := s.notify.Create(ctx, userID, ntype, title, body); err != nil {
		slog.Warn("cycle notification failed", "employeeId", employeeID, "err", err)
	}
}
