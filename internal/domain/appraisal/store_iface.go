package appraisal

import (
	"context"
	"errors"
)

// ErrDuplicate is returned by Create when an appraisal already exists for
// the same (employee, cycle) pair. The instance builder treats it as a
// skip, keeping activation idempotent under concurrency.
var ErrDuplicate = errors.New("appraisal already exists for this employee and cycle")

type StoreAPI interface {
	// Get loads the appraisal with its full KRA/KPI tree.
	Get(ctx context.Context, id string) (*Appraisal, error)
	ListByCycle(ctx context.Context, cycleID string) ([]Appraisal, error)
	ListForEmployee(ctx context.Context, employeeID string) ([]Appraisal, error)

	// Create performs the deep insert for a cloned appraisal atomically.
	Create(ctx context.Context, a *Appraisal) (string, error)

	// CycleInfo materializes the owning cycle's phase and deadlines.
	CycleInfo(ctx context.Context, cycleID string) (CycleInfo, error)
	TemplateTotal(ctx context.Context, templateID string) (float64, error)

	// TransitionState commits a guarded state change: it only succeeds when
	// the stored state still equals fromState, otherwise faults.ErrConflict.
	TransitionState(ctx context.Context, id, fromState, toState string, stamp StampField) error

	// ApplyChanges persists a filtered write payload, verifying inside the
	// transaction that the state observed at guard time has not moved.
	ApplyChanges(ctx context.Context, id, observedState string, p WritePayload) error

	// UserIDForEmployee resolves the notification target account.
	UserIDForEmployee(ctx context.Context, employeeID string) (string, error)
}
