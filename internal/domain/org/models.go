package org

import "time"

// Employee is one row of the reporting hierarchy. Manager, secondary manager
// and reviewer references drive both appraisal routing and the derived role
// memberships of the linked user accounts.
type Employee struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"userId,omitempty"`
	Name               string    `json:"name"`
	Email              string    `json:"email,omitempty"`
	Active             bool      `json:"active"`
	ManagerID          string    `json:"managerId,omitempty"`
	SecondaryManagerID string    `json:"secondaryManagerId,omitempty"`
	ReviewerID         string    `json:"reviewerId,omitempty"`
	EvaluationGroupID  string    `json:"evaluationGroupId,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

type EvaluationGroup struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Code   string `json:"code,omitempty"`
	Active bool   `json:"active"`
}

// Membership is the derived coarse role set of one user account. The flags
// are organization-wide capability bits, computed by scanning the whole
// employee population, and layered under per-appraisal checks.
type Membership struct {
	IsEmployee   bool `json:"isEmployee"`
	IsSupervisor bool `json:"isSupervisor"`
	IsReviewer   bool `json:"isReviewer"`
}
