package template

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pms/internal/domain/faults"
)

// StoreAPI is the read-only template surface the workflow core consumes.
type StoreAPI interface {
	FindByEvaluationGroup(ctx context.Context, groupID string) (*Template, error)
	MissingForGroups(ctx context.Context, groupIDs []string) (map[string]bool, error)
	TotalKPIScore(ctx context.Context, templateID string) (float64, error)
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// FindByEvaluationGroup loads the active template for the group with its
// full KRA/KPI tree, or faults.ErrNotFound when the group has none.
func (s *Store) FindByEvaluationGroup(ctx context.Context, groupID string) (*Template, error) {
	var t Template
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, evaluation_group_id, active, total_kpi_score
    FROM appraisal_templates
    WHERE evaluation_group_id = $1 AND active
  `, groupID).Scan(&t.ID, &t.Name, &t.EvaluationGroupID, &t.Active, &t.TotalKPIScore)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, faults.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadKRAs(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) loadKRAs(ctx context.Context, t *Template) error {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, sequence
    FROM template_kras
    WHERE template_id = $1
    ORDER BY sequence, id
  `, t.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	index := map[string]int{}
	for rows.Next() {
		var kra TemplateKRA
		if err := rows.Scan(&kra.ID, &kra.Name, &kra.Sequence); err != nil {
			return err
		}
		index[kra.ID] = len(t.KRAs)
		t.KRAs = append(t.KRAs, kra)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	kpiRows, err := s.DB.Query(ctx, `
    SELECT k.id, k.kra_id, k.name, COALESCE(k.description, ''), COALESCE(k.criteria, ''), k.score
    FROM template_kpis k
    JOIN template_kras r ON k.kra_id = r.id
    WHERE r.template_id = $1
    ORDER BY r.sequence, k.id
  `, t.ID)
	if err != nil {
		return err
	}
	defer kpiRows.Close()

	for kpiRows.Next() {
		var kpi TemplateKPI
		var kraID string
		if err := kpiRows.Scan(&kpi.ID, &kraID, &kpi.Name, &kpi.Description, &kpi.Criteria, &kpi.Score); err != nil {
			return err
		}
		if i, ok := index[kraID]; ok {
			t.KRAs[i].KPIs = append(t.KRAs[i].KPIs, kpi)
		}
	}
	return kpiRows.Err()
}

// MissingForGroups reports which of the given evaluation groups lack an
// active template. Used by cycle activation pre-validation.
func (s *Store) MissingForGroups(ctx context.Context, groupIDs []string) (map[string]bool, error) {
	missing := map[string]bool{}
	if len(groupIDs) == 0 {
		return missing, nil
	}
	for _, id := range groupIDs {
		missing[id] = true
	}

	rows, err := s.DB.Query(ctx, `
    SELECT evaluation_group_id
    FROM appraisal_templates
    WHERE active AND evaluation_group_id = ANY($1)
  `, groupIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var groupID string
		if err := rows.Scan(&groupID); err != nil {
			return nil, err
		}
		delete(missing, groupID)
	}
	return missing, rows.Err()
}

func (s *Store) TotalKPIScore(ctx context.Context, templateID string) (float64, error) {
	var total float64
	err := s.DB.QueryRow(ctx, "SELECT total_kpi_score FROM appraisal_templates WHERE id = $1", templateID).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, faults.ErrNotFound
	}
	return total, err
}
