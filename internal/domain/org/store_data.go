package org

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

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const employeeColumns = `
  id, COALESCE(user_id::text, ''), name, COALESCE(email, ''), active,
  COALESCE(manager_id::text, ''), COALESCE(secondary_manager_id::text, ''),
  COALESCE(reviewer_id::text, ''), COALESCE(evaluation_group_id::text, ''), created_at
`

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.UserID, &e.Name, &e.Email, &e.Active,
		&e.ManagerID, &e.SecondaryManagerID, &e.ReviewerID, &e.EvaluationGroupID, &e.CreatedAt)
	return e, err
}

func (s *Store) GetEmployee(ctx context.Context, id string) (Employee, error) {
	e, err := scanEmployee(s.DB.QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, faults.ErrNotFound
	}
	return e, err
}

func (s *Store) listQuery(ctx context.Context, query string, args ...any) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) ListEmployees(ctx context.Context) ([]Employee, error) {
	return s.listQuery(ctx, "SELECT "+employeeColumns+" FROM employees ORDER BY name")
}

func (s *Store) ListActiveWithGroup(ctx context.Context) ([]Employee, error) {
	return s.listQuery(ctx, `
    SELECT `+employeeColumns+`
    FROM employees
    WHERE active AND evaluation_group_id IS NOT NULL
    ORDER BY name
  `)
}

func (s *Store) ListByIDs(ctx context.Context, ids []string) ([]Employee, error) {
	return s.listQuery(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = ANY($1)", ids)
}

func (s *Store) CreateEmployee(ctx context.Context, e Employee) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO employees (user_id, name, email, active, manager_id, secondary_manager_id, reviewer_id, evaluation_group_id)
    VALUES (NULLIF($1,'')::uuid, $2, $3, $4, NULLIF($5,'')::uuid, NULLIF($6,'')::uuid, NULLIF($7,'')::uuid, NULLIF($8,'')::uuid)
    RETURNING id
  `, e.UserID, e.Name, e.Email, e.Active, e.ManagerID, e.SecondaryManagerID, e.ReviewerID, e.EvaluationGroupID).Scan(&id)
	return id, err
}

func (s *Store) UpdateEmployee(ctx context.Context, e Employee) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE employees
    SET user_id = NULLIF($2,'')::uuid, name = $3, email = $4, active = $5,
        manager_id = NULLIF($6,'')::uuid, secondary_manager_id = NULLIF($7,'')::uuid,
        reviewer_id = NULLIF($8,'')::uuid, evaluation_group_id = NULLIF($9,'')::uuid
    WHERE id = $1
  `, e.ID, e.UserID, e.Name, e.Email, e.Active, e.ManagerID, e.SecondaryManagerID, e.ReviewerID, e.EvaluationGroupID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return faults.ErrNotFound
	}
	return nil
}

func (s *Store) ListGroups(ctx context.Context) ([]EvaluationGroup, error) {
	rows, err := s.DB.Query(ctx, "SELECT id, name, COALESCE(code, ''), active FROM evaluation_groups ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EvaluationGroup
	for rows.Next() {
		var g EvaluationGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.Code, &g.Active); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
