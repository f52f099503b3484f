package cycle

import "context"

type StoreAPI interface {
	Get(ctx context.Context, id string) (Cycle, error)
	List(ctx context.Context) ([]Cycle, error)
	Create(ctx context.Context, c Cycle) (string, error)
	UpdateDraft(ctx context.Context, c Cycle) error

	// TransitionState succeeds only when the stored state still equals
	// fromState, otherwise faults.ErrConflict.
	TransitionState(ctx context.Context, id, fromState, toState string) error

	// Delete removes the cycle and cascades to its appraisals. Callers must
	// have verified the draft guard first.
	Delete(ctx context.Context, id string) error

	// NextSequence claims the next number of the cycle naming sequence.
	NextSequence(ctx context.Context) (int, error)

	// Progress aggregates the appraisal state counts for one cycle.
	Progress(ctx context.Context, id string) (Progress, error)
}
