package org

import (
	"context"
	"log/slog"
)

// Service owns employee hierarchy edits and keeps the derived role
// memberships in sync after every change.
type Service struct {
	store StoreAPI
	roles RoleStore
}

func NewService(store StoreAPI, roles RoleStore) *Service {
	return &Service{store: store, roles: roles}
}

func (s *Service) GetEmployee(ctx context.Context, id string) (Employee, error) {
	return s.store.GetEmployee(ctx, id)
}

func (s *Service) ListEmployees(ctx context.Context) ([]Employee, error) {
	return s.store.ListEmployees(ctx)
}

func (s *Service) ListGroups(ctx context.Context) ([]EvaluationGroup, error) {
	return s.store.ListGroups(ctx)
}

func (s *Service) CreateEmployee(ctx context.Context, e Employee) (string, error) {
	employees, err := s.store.ListEmployees(ctx)
	if err != nil {
		return "", err
	}
	if err := ValidateHierarchy(e, lookupIn(employees)); err != nil {
		return "", err
	}

	id, err := s.store.CreateEmployee(ctx, e)
	if err != nil {
		return "", err
	}
	e.ID = id

	if err := s.RecomputePermissions(ctx, AffectedAccounts(employees, Employee{}, e)); err != nil {
		slog.Warn("permission recompute after employee create failed", "employeeId", id, "err", err)
	}
	return id, nil
}

func (s *Service) UpdateEmployee(ctx context.Context, e Employee) error {
	before, err := s.store.GetEmployee(ctx, e.ID)
	if err != nil {
		return err
	}
	employees, err := s.store.ListEmployees(ctx)
	if err != nil {
		return err
	}
	if err := ValidateHierarchy(e, lookupIn(employees)); err != nil {
		return err
	}

	if err := s.store.UpdateEmployee(ctx, e); err != nil {
		return err
	}

	// Accounts referenced before AND after the change are affected: old
	// references may lose a role, new ones may gain one.
	if err := s.RecomputePermissions(ctx, AffectedAccounts(employees, before, e)); err != nil {
		slog.Warn("permission recompute after employee update failed", "employeeId", e.ID, "err", err)
	}
	return nil
}

// RecomputePermissions rescans the employee population for each account and
// applies the grant/revoke ladder.
func (s *Service) RecomputePermissions(ctx context.Context, accountIDs []string) error {
	if len(accountIDs) == 0 {
		return nil
	}
	employees, err := s.store.ListEmployees(ctx)
	if err != nil {
		return err
	}
	for _, userID := range accountIDs {
		m := ComputeMembership(userID, employees)
		if err := applyMembership(ctx, s.roles, userID, m); err != nil {
			return err
		}
	}
	return nil
}

func lookupIn(employees []Employee) func(id string) *Employee {
	byID := map[string]*Employee{}
	for i := range employees {
		byID[employees[i].ID] = &employees[i]
	}
	return func(id string) *Employee {
		return byID[id]
	}
}
