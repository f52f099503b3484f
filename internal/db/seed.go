package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"pms/internal/domain/auth"
	"pms/internal/platform/config"
)

// Seed creates the bootstrap HR admin account when configured. Roles live
// in code, so only the account and its role grant are stored.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	email := strings.TrimSpace(cfg.SeedAdminEmail)
	if email == "" || cfg.SeedAdminPassword == "" {
		return nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	if err == nil {
		return nil
	}

	hash, err := auth.HashPassword(cfg.SeedAdminPassword)
	if err != nil {
		return err
	}

	err = pool.QueryRow(ctx,
		"INSERT INTO users (email, password_hash, active) VALUES ($1, $2, true) RETURNING id",
		email, hash).Scan(&id)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx,
		"INSERT INTO user_roles (user_id, role) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		id, auth.RoleHRManager)
	return err
}
