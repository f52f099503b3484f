package appraisal

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Notifier delivers workflow notifications to user accounts. Delivery is
// best-effort: a failed notification never fails the transition.
type Notifier interface {
	Create(ctx context.Context, userID, ntype, title, body string) error
}

type Service struct {
	store  StoreAPI
	notify Notifier
	now    func() time.Time
}

func NewService(store StoreAPI, notify Notifier) *Service {
	return &Service{store: store, notify: notify, now: time.Now}
}

// View is an appraisal plus its caller-relative computed flags, rebuilt on
// every read.
type View struct {
	Appraisal
	CanEmployeeEdit   bool       `json:"canEmployeeEdit"`
	IsOwnAppraisal    bool       `json:"isOwnAppraisal"`
	IsCurrentApprover bool       `json:"isCurrentApprover"`
	PlanningProgress  float64    `json:"planningProgress"`
	CurrentTotalScore float64    `json:"currentTotalScore"`
	ResubmissionDue   *time.Time `json:"resubmissionDeadline,omitempty"`
}

func (s *Service) Get(ctx context.Context, id string, actor Actor) (*View, error) {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cy, err := s.store.CycleInfo(ctx, a.CycleID)
	if err != nil {
		return nil, err
	}
	return s.buildView(a, cy, actor), nil
}

func (s *Service) buildView(a *Appraisal, cy CycleInfo, actor Actor) *View {
	now := s.now()
	v := &View{
		Appraisal:         *a,
		IsOwnAppraisal:    actor.EmployeeID != "" && actor.EmployeeID == a.EmployeeID,
		IsCurrentApprover: actor.EmployeeID != "" && actor.EmployeeID == a.CurrentApproverID(),
		PlanningProgress:  a.PlanningProgress(),
		CurrentTotalScore: a.CurrentTotalScore(),
	}
	if v.IsOwnAppraisal {
		v.CanEmployeeEdit = CanEmployeeEdit(a, cy, now)
	}
	if due, ok := a.ResubmissionDeadline(cy.ResubmissionDays); ok {
		v.ResubmissionDue = &due
	}
	return v
}

func (s *Service) ListByCycle(ctx context.Context, cycleID string) ([]Appraisal, error) {
	return s.store.ListByCycle(ctx, cycleID)
}

func (s *Service) ListForEmployee(ctx context.Context, employeeID string) ([]Appraisal, error) {
	return s.store.ListForEmployee(ctx, employeeID)
}

// Submit moves a draft or rejected plan into the approval chain. The chain
// always starts at pending_supervisor, regardless of which stage rejected
// it before.
func (s *Service) Submit(ctx context.Context, id string, actor Actor) (*Appraisal, error) {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cy, err := s.store.CycleInfo(ctx, a.CycleID)
	if err != nil {
		return nil, err
	}
	total, err := s.store.TemplateTotal(ctx, a.TemplateID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := ValidateSubmit(a, actor, cy, total, now); err != nil {
		return nil, err
	}

	if err := s.store.TransitionState(ctx, a.ID, a.State, StatePendingSupervisor, StampSubmitted); err != nil {
		return nil, err
	}
	applyTransition(a, StatePendingSupervisor, StampSubmitted, now)

	s.notifyEmployee(ctx, a.SupervisorID, "appraisal_review",
		"Performance plan submitted for your review",
		fmt.Sprintf("%s has submitted their performance plan for review.", a.EmployeeName))
	return a, nil
}

// Approve advances the chain from the current pending stage, skipping the
// stages without an assigned approver.
func (s *Service) Approve(ctx context.Context, id string, actor Actor) (*Appraisal, error) {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	stage, err := ValidateStageAction(a, actor)
	if err != nil {
		return nil, err
	}

	next := NextStateOnApprove(a)
	stamp := approveStamp(stage)
	if err := s.store.TransitionState(ctx, a.ID, a.State, next, stamp); err != nil {
		return nil, err
	}
	applyTransition(a, next, stamp, s.now())

	if next == StateApproved {
		s.notifyEmployee(ctx, a.EmployeeID, "appraisal_approved",
			"Your performance plan has been approved",
			"Your performance plan has completed the approval chain.")
	} else {
		s.notifyEmployee(ctx, a.CurrentApproverID(), "appraisal_review",
			"Performance plan awaiting your review",
			fmt.Sprintf("The performance plan of %s is awaiting your review.", a.EmployeeName))
	}
	return a, nil
}

// Reject sends the plan back to the employee from any pending stage. The
// resubmission window starts at the rejection timestamp.
func (s *Service) Reject(ctx context.Context, id string, actor Actor) (*Appraisal, error) {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := ValidateStageAction(a, actor); err != nil {
		return nil, err
	}

	if err := s.store.TransitionState(ctx, a.ID, a.State, StateRejected, StampRejected); err != nil {
		return nil, err
	}
	applyTransition(a, StateRejected, StampRejected, s.now())

	s.notifyEmployee(ctx, a.EmployeeID, "appraisal_rejected",
		"Your performance plan needs revision",
		"Your performance plan was rejected. Revise and resubmit within the resubmission window.")
	return a, nil
}

// Write applies a caller payload through the access filter. When a KPI is
// deselected its planning fields are cleared alongside.
func (s *Service) Write(ctx context.Context, id string, actor Actor, payload WritePayload) error {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	cy, err := s.store.CycleInfo(ctx, a.CycleID)
	if err != nil {
		return err
	}

	role := ResolveWriteRole(a, cy, actor, s.now())
	filtered, err := FilterWrite(role, payload)
	if err != nil {
		return err
	}
	clearDeselectedFields(&filtered)

	return s.store.ApplyChanges(ctx, a.ID, a.State, filtered)
}

// clearDeselectedFields mirrors the form behavior: deselecting a KPI wipes
// its target and planning remarks.
func clearDeselectedFields(p *WritePayload) {
	for i := range p.KRAs {
		for j := range p.KRAs[i].KPIs {
			change := &p.KRAs[i].KPIs[j]
			if change.Op != OpUpdate {
				continue
			}
			if selected, ok := change.Fields["isSelected"].(bool); ok && !selected {
				change.Fields["target"] = ""
				change.Fields["planningRemarks"] = ""
			}
		}
	}
}

func (s *Service) notifyEmployee(ctx context.Context, employeeID, ntype, title, body string) {
	if s.notify == nil || employeeID == "" {
		return
	}
	userID, err := s.store.UserIDForEmployee(ctx, employeeID)
	if err != nil || userID == "" {
		return
	}
	if err := s.notify.Create(ctx, userID, ntype, title, body); err != nil {
		slog.Warn("appraisal notification failed", "employeeId", employeeID, "type", ntype, "err", err)
	}
}
