package org

import (
	"context"

	"pms/internal/domain/auth"
)

// ComputeMembership derives the coarse role flags for one user account by
// scanning the employee population.
func ComputeMembership(userID string, employees []Employee) Membership {
	var m Membership
	if userID == "" {
		return m
	}

	byID := map[string]Employee{}
	for _, e := range employees {
		byID[e.ID] = e
	}
	userOf := func(employeeID string) string {
		if employeeID == "" {
			return ""
		}
		return byID[employeeID].UserID
	}

	for _, e := range employees {
		if e.Active && e.UserID == userID {
			m.IsEmployee = true
		}
		if userOf(e.ManagerID) == userID || userOf(e.SecondaryManagerID) == userID {
			m.IsSupervisor = true
		}
		if userOf(e.ReviewerID) == userID {
			m.IsReviewer = true
		}
	}
	return m
}

// AffectedAccounts collects the user accounts whose memberships may change
// when an employee record moves from before to after. Both sides of the
// change are included so stale grants on the old references get cleaned up.
func AffectedAccounts(employees []Employee, before, after Employee) []string {
	byID := map[string]Employee{}
	for _, e := range employees {
		byID[e.ID] = e
	}

	seen := map[string]bool{}
	var accounts []string
	add := func(userID string) {
		if userID != "" && !seen[userID] {
			seen[userID] = true
			accounts = append(accounts, userID)
		}
	}
	addRefs := func(e Employee) {
		add(e.UserID)
		for _, ref := range []string{e.ManagerID, e.SecondaryManagerID, e.ReviewerID} {
			if ref != "" {
				add(byID[ref].UserID)
			}
		}
	}
	addRefs(before)
	addRefs(after)
	return accounts
}

// applyMembership pushes one account's computed flags into the role store.
//
// Granting is always safe. Revoking is not: in the authorization model the
// reviewer role implies supervisor, and supervisor implies employee, so a
// lower role may only be revoked when no still-held higher role implies it.
// Ordering is therefore reviewer first, then supervisor, then employee.
func applyMembership(ctx context.Context, store RoleStore, userID string, m Membership) error {
	if m.IsReviewer {
		if err := store.GrantRole(ctx, userID, auth.RoleReviewer); err != nil {
			return err
		}
	} else if err := store.RevokeRole(ctx, userID, auth.RoleReviewer); err != nil {
		return err
	}

	if m.IsSupervisor {
		if err := store.GrantRole(ctx, userID, auth.RoleSupervisor); err != nil {
			return err
		}
	} else if !m.IsReviewer {
		// Revoking supervisor while the account is still a reviewer would
		// fight the implied-role expansion and oscillate.
		if err := store.RevokeRole(ctx, userID, auth.RoleSupervisor); err != nil {
			return err
		}
	}

	if m.IsEmployee {
		if err := store.GrantRole(ctx, userID, auth.RoleEmployee); err != nil {
			return err
		}
	} else if !m.IsSupervisor && !m.IsReviewer {
		if err := store.RevokeRole(ctx, userID, auth.RoleEmployee); err != nil {
			return err
		}
	}
	return nil
}

// RoleStore is the membership side of the authorization store. Grants are
// idempotent; revokes remove the row outright.
type RoleStore interface {
	GrantRole(ctx context.Context, userID, role string) error
	RevokeRole(ctx context.Context, userID, role string) error
}
