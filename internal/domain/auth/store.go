package auth

import (
	"context"
	"errors"
	"time"

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

type AuthUser struct {
	ID           string
	EmployeeID   string
	Password     string
	MFAEnabled   bool
	MFASecretEnc []byte
}

func (s *Store) FindActiveUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	var out AuthUser
	err := s.DB.QueryRow(ctx, `
    SELECT u.id, COALESCE(e.id::text, ''), u.password_hash, u.mfa_enabled, u.mfa_secret_enc
    FROM users u
    LEFT JOIN employees e ON e.user_id = u.id AND e.active
    WHERE u.email = $1 AND u.active
  `, email).Scan(&out.ID, &out.EmployeeID, &out.Password, &out.MFAEnabled, &out.MFASecretEnc)
	if errors.Is(err, pgx.ErrNoRows) {
		return AuthUser{}, faults.ErrNotFound
	}
	return out, err
}

// PrimaryRole returns the highest-privilege role held by the user, for the
// coarse role claim in the token. Fine-grained appraisal checks never rely
// on this value alone.
func (s *Store) PrimaryRole(ctx context.Context, userID string) (string, error) {
	rows, err := s.DB.Query(ctx, "SELECT role FROM user_roles WHERE user_id = $1", userID)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	held := map[string]bool{}
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return "", err
		}
		held[role] = true
	}
	for _, role := range []string{RoleSystemAdmin, RoleHRManager, RoleReviewer, RoleSupervisor, RoleEmployee} {
		if held[role] {
			return role, nil
		}
	}
	return RoleEmployee, nil
}

// HasPermission reports whether any role held by the user grants the
// permission. The catalog lives in code; the store only keeps memberships.
func (s *Store) HasPermission(ctx context.Context, userID, permission string) (bool, error) {
	rows, err := s.DB.Query(ctx, "SELECT role FROM user_roles WHERE user_id = $1", userID)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return false, err
		}
		for _, perm := range RolePermissions[role] {
			if perm == permission {
				return true, nil
			}
		}
	}
	return false, rows.Err()
}

func (s *Store) HasRole(ctx context.Context, userID, role string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM user_roles WHERE user_id = $1 AND role = $2
  `, userID, role).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) GrantRole(ctx context.Context, userID, role string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO user_roles (user_id, role)
    VALUES ($1, $2)
    ON CONFLICT (user_id, role) DO NOTHING
  `, userID, role)
	return err
}

func (s *Store) RevokeRole(ctx context.Context, userID, role string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM user_roles WHERE user_id = $1 AND role = $2", userID, role)
	return err
}

func (s *Store) CreateSession(ctx context.Context, userID, tokenHash string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO sessions (user_id, refresh_token, expires_at)
    VALUES ($1, $2, $3)
  `, userID, tokenHash, expires)
	return err
}

func (s *Store) RevokeSession(ctx context.Context, userID, tokenHash string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE sessions SET revoked_at = now() WHERE user_id = $1 AND refresh_token = $2
  `, userID, tokenHash)
	return err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}
