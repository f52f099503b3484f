package org

import "context"

type StoreAPI interface {
	GetEmployee(ctx context.Context, id string) (Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
	ListActiveWithGroup(ctx context.Context) ([]Employee, error)
	ListByIDs(ctx context.Context, ids []string) ([]Employee, error)
	CreateEmployee(ctx context.Context, e Employee) (string, error)
	UpdateEmployee(ctx context.Context, e Employee) error
	ListGroups(ctx context.Context) ([]EvaluationGroup, error)
}
