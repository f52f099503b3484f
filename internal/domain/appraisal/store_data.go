package appraisal

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"pms/internal/domain/faults"
)

type Store struct {
	DB *pgxpool.Pool
}

const appraisalColumns = `id, cycle_id, employee_id,
	COALESCE((SELECT name FROM employees e WHERE e.id = a.employee_id), ''),
	template_id,
	COALESCE(supervisor_id::text, ''), COALESCE(secondary_supervisor_id::text, ''),
	COALESCE(reviewer_id::text, ''),
	state, submitted_at, supervisor_reviewed_at, secondary_reviewed_at,
	reviewer_approved_at, rejected_at, active, created_at`

func scanAppraisal(row pgx.Row) (*Appraisal, error) {
	var a Appraisal
	err := row.Scan(&a.ID, &a.CycleID, &a.EmployeeID, &a.EmployeeName,
		&a.TemplateID, &a.SupervisorID, &a.SecondarySupervisorID, &a.ReviewerID,
		&a.State, &a.SubmittedAt, &a.SupervisorReviewedAt, &a.SecondaryReviewedAt,
		&a.ReviewerApprovedAt, &a.RejectedAt, &a.Active, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, faults.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *Store) Get(ctx context.Context, id string) (*Appraisal, error) {
	row := s.DB.QueryRow(ctx,
		`SELECT `+appraisalColumns+` FROM appraisals a WHERE id = $1`, id)
	a, err := scanAppraisal(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadTree(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Store) loadTree(ctx context.Context, a *Appraisal) error {
	rows, err := s.DB.Query(ctx,
		`SELECT id, name, sequence, COALESCE(template_kra_id::text, '')
		 FROM appraisal_kras WHERE appraisal_id = $1 ORDER BY sequence, id`, a.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	index := map[string]int{}
	for rows.Next() {
		var kra KRA
		if err := rows.Scan(&kra.ID, &kra.Name, &kra.Sequence, &kra.TemplateKRAID); err != nil {
			return err
		}
		index[kra.ID] = len(a.KRAs)
		a.KRAs = append(a.KRAs, kra)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	kpiRows, err := s.DB.Query(ctx,
		`SELECT k.id, k.kra_id, k.name, k.description, k.criteria,
		        COALESCE(k.template_kpi_id::text, ''),
		        k.weightage, k.is_selected, k.target, k.planning_remarks,
		        k.self_score, k.self_remarks,
		        k.supervisor_score, k.supervisor_remarks,
		        k.secondary_supervisor_score, k.secondary_supervisor_remarks,
		        k.reviewer_score, k.reviewer_remarks
		 FROM appraisal_kpis k
		 JOIN appraisal_kras r ON r.id = k.kra_id
		 WHERE r.appraisal_id = $1 ORDER BY k.id`, a.ID)
	if err != nil {
		return err
	}
	defer kpiRows.Close()

	for kpiRows.Next() {
		var kpi KPI
		var kraID string
		if err := kpiRows.Scan(&kpi.ID, &kraID, &kpi.Name, &kpi.Description,
			&kpi.Criteria, &kpi.TemplateKPIID,
			&kpi.Weightage, &kpi.IsSelected, &kpi.Target, &kpi.PlanningRemarks,
			&kpi.SelfScore, &kpi.SelfRemarks,
			&kpi.SupervisorScore, &kpi.SupervisorRemarks,
			&kpi.SecondarySupervisorScore, &kpi.SecondarySupervisorRemarks,
			&kpi.ReviewerScore, &kpi.ReviewerRemarks); err != nil {
			return err
		}
		if i, ok := index[kraID]; ok {
			a.KRAs[i].KPIs = append(a.KRAs[i].KPIs, kpi)
		}
	}
	return kpiRows.Err()
}

func (s *Store) ListByCycle(ctx context.Context, cycleID string) ([]Appraisal, error) {
	return s.list(ctx,
		`SELECT `+appraisalColumns+` FROM appraisals a WHERE cycle_id = $1 ORDER BY created_at`, cycleID)
}

func (s *Store) ListForEmployee(ctx context.Context, employeeID string) ([]Appraisal, error) {
	return s.list(ctx,
		`SELECT `+appraisalColumns+` FROM appraisals a WHERE employee_id = $1 ORDER BY created_at DESC`, employeeID)
}

func (s *Store) list(ctx context.Context, query string, arg any) ([]Appraisal, error) {
	rows, err := s.DB.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Appraisal
	for rows.Next() {
		a, err := scanAppraisal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// Create inserts the appraisal and its cloned tree in one transaction. A
// unique index on (cycle_id, employee_id) turns duplicates into
// ErrDuplicate, which activation treats as an idempotent skip.
func (s *Store) Create(ctx context.Context, a *Appraisal) (string, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	var id string
	err = tx.QueryRow(ctx,
		`INSERT INTO appraisals
		   (cycle_id, employee_id, template_id, supervisor_id,
		    secondary_supervisor_id, reviewer_id, state, active)
		 VALUES ($1, $2, $3, NULLIF($4,'')::uuid, NULLIF($5,'')::uuid,
		         NULLIF($6,'')::uuid, $7, true)
		 RETURNING id`,
		a.CycleID, a.EmployeeID, a.TemplateID, a.SupervisorID,
		a.SecondarySupervisorID, a.ReviewerID, a.State).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", ErrDuplicate
		}
		return "", err
	}

	for i := range a.KRAs {
		kra := &a.KRAs[i]
		var kraID string
		err = tx.QueryRow(ctx,
			`INSERT INTO appraisal_kras (appraisal_id, name, sequence, template_kra_id)
			 VALUES ($1, $2, $3, NULLIF($4,'')::uuid) RETURNING id`,
			id, kra.Name, kra.Sequence, kra.TemplateKRAID).Scan(&kraID)
		if err != nil {
			return "", err
		}
		for j := range kra.KPIs {
			kpi := &kra.KPIs[j]
			_, err = tx.Exec(ctx,
				`INSERT INTO appraisal_kpis
				   (kra_id, name, description, criteria, template_kpi_id, weightage)
				 VALUES ($1, $2, $3, $4, NULLIF($5,'')::uuid, $6)`,
				kraID, kpi.Name, kpi.Description, kpi.Criteria, kpi.TemplateKPIID, kpi.Weightage)
			if err != nil {
				return "", err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	a.ID = id
	return id, nil
}

func (s *Store) CycleInfo(ctx context.Context, cycleID string) (CycleInfo, error) {
	var (
		ci    CycleInfo
		state string
	)
	err := s.DB.QueryRow(ctx,
		`SELECT state, planning_deadline, resubmission_days FROM cycles WHERE id = $1`,
		cycleID).Scan(&state, &ci.PlanningDeadline, &ci.ResubmissionDays)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CycleInfo{}, faults.ErrNotFound
		}
		return CycleInfo{}, err
	}
	ci.InPlanning = state == "planning"
	return ci, nil
}

func (s *Store) TemplateTotal(ctx context.Context, templateID string) (float64, error) {
	var total float64
	err := s.DB.QueryRow(ctx,
		`SELECT total_kpi_score FROM appraisal_templates WHERE id = $1`, templateID).Scan(&total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, faults.ErrNotFound
		}
		return 0, err
	}
	return total, nil
}

func (s *Store) UserIDForEmployee(ctx context.Context, employeeID string) (string, error) {
	var userID string
	err := s.DB.QueryRow(ctx,
		`SELECT COALESCE(user_id::text, '') FROM employees WHERE id = $1`, employeeID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", faults.ErrNotFound
		}
		return "", err
	}
	return userID, nil
}

// Valid stamp columns. TransitionState interpolates the column name into
// SQL, so anything outside this set is refused outright.
var stampColumns = map[StampField]bool{
	StampSubmitted:          true,
	StampSupervisorReviewed: true,
	StampSecondaryReviewed:  true,
	StampReviewerApproved:   true,
	StampRejected:           true,
}

// TransitionState commits a guarded state change. Zero rows updated means
// another actor moved the appraisal first.
func (s *Store) TransitionState(ctx context.Context, id, fromState, toState string, stamp StampField) error {
	if !stampColumns[stamp] {
		return fmt.Errorf("unknown stamp column %q", stamp)
	}
	tag, err := s.DB.Exec(ctx,
		`UPDATE appraisals SET state = $1, `+string(stamp)+` = now()
		 WHERE id = $2 AND state = $3`,
		toState, id, fromState)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return faults.ErrConflict
	}
	return nil
}

var kpiColumns = map[string]string{
	"isSelected":                 "is_selected",
	"target":                     "target",
	"planningRemarks":            "planning_remarks",
	"weightage":                  "weightage",
	"selfScore":                  "self_score",
	"selfRemarks":                "self_remarks",
	"supervisorScore":            "supervisor_score",
	"supervisorRemarks":          "supervisor_remarks",
	"secondarySupervisorScore":   "secondary_supervisor_score",
	"secondarySupervisorRemarks": "secondary_supervisor_remarks",
	"reviewerScore":              "reviewer_score",
	"reviewerRemarks":            "reviewer_remarks",
}

var kraColumns = map[string]string{
	"name":     "name",
	"sequence": "sequence",
}

// ApplyChanges persists a filtered write payload. The appraisal row is
// locked and its state re-checked inside the transaction, so a submit or
// approval racing this write loses cleanly on one side.
func (s *Store) ApplyChanges(ctx context.Context, id, observedState string, p WritePayload) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var current string
	err = tx.QueryRow(ctx,
		`SELECT state FROM appraisals WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return faults.ErrNotFound
		}
		return err
	}
	if current != observedState {
		return faults.ErrConflict
	}

	for _, kra := range p.KRAs {
		if err := s.applyKRAChange(ctx, tx, id, kra); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) applyKRAChange(ctx context.Context, tx pgx.Tx, appraisalID string, kra KRAChange) error {
	switch kra.Op {
	case OpInsert:
		var kraID string
		err := tx.QueryRow(ctx,
			`INSERT INTO appraisal_kras (appraisal_id, name, sequence)
			 VALUES ($1, $2, $3) RETURNING id`,
			appraisalID, stringField(kra.Fields, "name"), intField(kra.Fields, "sequence")).Scan(&kraID)
		if err != nil {
			return err
		}
		for _, kpi := range kra.KPIs {
			if err := applyKPIChange(ctx, tx, kraID, kpi); err != nil {
				return err
			}
		}
	case OpUpdate:
		if len(kra.Fields) > 0 {
			if err := updateByMap(ctx, tx, "appraisal_kras", kra.KRAID, kra.Fields, kraColumns); err != nil {
				return err
			}
		}
		for _, kpi := range kra.KPIs {
			if err := applyKPIChange(ctx, tx, kra.KRAID, kpi); err != nil {
				return err
			}
		}
	case OpDelete:
		_, err := tx.Exec(ctx,
			`DELETE FROM appraisal_kras WHERE id = $1 AND appraisal_id = $2`,
			kra.KRAID, appraisalID)
		return err
	case OpRelink:
		return relinkKRAs(ctx, tx, appraisalID, kra.IDs)
	case OpClear:
		_, err := tx.Exec(ctx,
			`DELETE FROM appraisal_kras WHERE appraisal_id = $1`, appraisalID)
		return err
	case OpReplace:
		if _, err := tx.Exec(ctx,
			`DELETE FROM appraisal_kras WHERE appraisal_id = $1 AND NOT (id = ANY($2))`,
			appraisalID, kra.IDs); err != nil {
			return err
		}
		return relinkKRAs(ctx, tx, appraisalID, kra.IDs)
	default:
		return faults.Validationf("unsupported line operation %q", kra.Op)
	}
	return nil
}

func relinkKRAs(ctx context.Context, tx pgx.Tx, appraisalID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx,
		`UPDATE appraisal_kras SET appraisal_id = $1 WHERE id = ANY($2)`,
		appraisalID, ids)
	return err
}

func applyKPIChange(ctx context.Context, tx pgx.Tx, kraID string, kpi KPIChange) error {
	switch kpi.Op {
	case OpInsert:
		_, err := tx.Exec(ctx,
			`INSERT INTO appraisal_kpis (kra_id, name, description, criteria, weightage)
			 VALUES ($1, $2, $3, $4, $5)`,
			kraID, stringField(kpi.Fields, "name"), stringField(kpi.Fields, "description"),
			stringField(kpi.Fields, "criteria"), floatField(kpi.Fields, "weightage"))
		return err
	case OpUpdate:
		return updateByMap(ctx, tx, "appraisal_kpis", kpi.KPIID, kpi.Fields, kpiColumns)
	case OpDelete:
		_, err := tx.Exec(ctx,
			`DELETE FROM appraisal_kpis WHERE id = $1 AND kra_id = $2`, kpi.KPIID, kraID)
		return err
	case OpRelink:
		return relinkKPIs(ctx, tx, kraID, kpi.IDs)
	case OpClear:
		_, err := tx.Exec(ctx, `DELETE FROM appraisal_kpis WHERE kra_id = $1`, kraID)
		return err
	case OpReplace:
		if _, err := tx.Exec(ctx,
			`DELETE FROM appraisal_kpis WHERE kra_id = $1 AND NOT (id = ANY($2))`,
			kraID, kpi.IDs); err != nil {
			return err
		}
		return relinkKPIs(ctx, tx, kraID, kpi.IDs)
	default:
		return faults.Validationf("unsupported line operation %q", kpi.Op)
	}
}

func relinkKPIs(ctx context.Context, tx pgx.Tx, kraID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx,
		`UPDATE appraisal_kpis SET kra_id = $1 WHERE id = ANY($2)`,
		kraID, ids)
	return err
}

// updateByMap builds a single UPDATE from the surviving payload fields.
// Only mapped column names ever reach the SQL text.
func updateByMap(ctx context.Context, tx pgx.Tx, table, id string, fields map[string]any, columns map[string]string) error {
	set := ""
	args := []any{id}
	for field, value := range fields {
		col, ok := columns[field]
		if !ok {
			continue
		}
		if set != "" {
			set += ", "
		}
		args = append(args, value)
		set += fmt.Sprintf("%s = $%d", col, len(args))
	}
	if set == "" {
		return nil
	}
	_, err := tx.Exec(ctx, `UPDATE `+table+` SET `+set+` WHERE id = $1`, args...)
	return err
}

func stringField(fields map[string]any, key string) string {
	v, _ := fields[key].(string)
	return v
}

func intField(fields map[string]any, key string) int {
	switch v := fields[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func floatField(fields map[string]any, key string) float64 {
	switch v := fields[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}
