package cycle

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pms/internal/domain/faults"
)

type Store struct {
	DB *pgxpool.Pool
}

const cycleColumns = `id, name, sequence, cycle_type, start_date, end_date,
	planning_duration_days, planning_deadline, resubmission_days,
	apply_to, employee_ids, state, created_at`

func scanCycle(row pgx.Row) (Cycle, error) {
	var c Cycle
	err := row.Scan(&c.ID, &c.Name, &c.Sequence, &c.Type, &c.StartDate, &c.EndDate,
		&c.PlanningDurationDays, &c.PlanningDeadline, &c.ResubmissionDays,
		&c.ApplyTo, &c.EmployeeIDs, &c.State, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cycle{}, faults.ErrNotFound
		}
		return Cycle{}, err
	}
	return c, nil
}

func (s *Store) Get(ctx context.Context, id string) (Cycle, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+cycleColumns+` FROM cycles WHERE id = $1`, id)
	return scanCycle(row)
}

func (s *Store) List(ctx context.Context) ([]Cycle, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+cycleColumns+` FROM cycles ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Cycle
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) Create(ctx context.Context, c Cycle) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO cycles
      (name, sequence, cycle_type, start_date, end_date,
       planning_duration_days, planning_deadline, resubmission_days,
       apply_to, employee_ids, state)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    RETURNING id`,
		c.Name, c.Sequence, c.Type, c.StartDate, c.EndDate,
		c.PlanningDurationDays, c.PlanningDeadline, c.ResubmissionDays,
		c.ApplyTo, c.EmployeeIDs, c.State).Scan(&id)
	return id, err
}

func (s *Store) UpdateDraft(ctx context.Context, c Cycle) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE cycles SET
      name = $1, cycle_type = $2, start_date = $3, end_date = $4,
      planning_duration_days = $5, planning_deadline = $6,
      resubmission_days = $7, apply_to = $8, employee_ids = $9
    WHERE id = $10 AND state = 'draft'`,
		c.Name, c.Type, c.StartDate, c.EndDate,
		c.PlanningDurationDays, c.PlanningDeadline,
		c.ResubmissionDays, c.ApplyTo, c.EmployeeIDs, c.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return faults.ErrConflict
	}
	return nil
}

func (s *Store) TransitionState(ctx context.Context, id, fromState, toState string) error {
	tag, err := s.DB.Exec(ctx,
		`UPDATE cycles SET state = $1 WHERE id = $2 AND state = $3`,
		toState, id, fromState)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return faults.ErrConflict
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM cycles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return faults.ErrNotFound
	}
	return nil
}

func (s *Store) NextSequence(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRow(ctx, `SELECT nextval('cycle_sequence')`).Scan(&n)
	return n, err
}

func (s *Store) Progress(ctx context.Context, id string) (Progress, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT state, count(*) FROM appraisals WHERE cycle_id = $1 GROUP BY state`, id)
	if err != nil {
		return Progress{}, err
	}
	defer rows.Close()

	p := Progress{ByState: map[string]int{}}
	for rows.Next() {
		var state string
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return Progress{}, err
		}
		p.ByState[state] = count
		p.Total += count
		if state == "approved" {
			p.Completed = count
		}
	}
	return p, rows.Err()
}
