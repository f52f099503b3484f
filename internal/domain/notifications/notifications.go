package notifications

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"pms/internal/domain/faults"
)

type Notification struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Mailer mirrors a notification out by email. The in-app record is the
// source of truth; mail failures are logged and swallowed.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type Store struct {
	DB *pgxpool.Pool
}

func (s *Store) Insert(ctx context.Context, n Notification) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO notifications (user_id, ntype, title, body)
    VALUES ($1, $2, $3, $4) RETURNING id`,
		n.UserID, n.Type, n.Title, n.Body).Scan(&id)
	return id, err
}

func (s *Store) ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error) {
	query := `
    SELECT id, user_id, ntype, title, body, read_at, created_at
    FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY created_at DESC LIMIT 100`

	rows, err := s.DB.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) MarkRead(ctx context.Context, id, userID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE notifications SET read_at = now()
    WHERE id = $1 AND user_id = $2 AND read_at IS NULL`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return faults.ErrNotFound
	}
	return nil
}

func (s *Store) EmailForUser(ctx context.Context, userID string) (string, error) {
	var email string
	err := s.DB.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, userID).Scan(&email)
	if err != nil {
		return "", err
	}
	return email, nil
}

type StoreAPI interface {
	Insert(ctx context.Context, n Notification) (string, error)
	ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
	EmailForUser(ctx context.Context, userID string) (string, error)
}

type Service struct {
	store  StoreAPI
	mailer Mailer
}

func NewService(store StoreAPI, mailer Mailer) *Service {
	return &Service{store: store, mailer: mailer}
}

// Create records an in-app notification and mirrors it by email when a
// mailer is configured.
func (s *Service) Create(ctx context.Context, userID, ntype, title, body string) error {
	_, err := s.store.Insert(ctx, Notification{
		UserID: userID, Type: ntype, Title: title, Body: body,
	})
	if err != nil {
		return err
	}
	if s.mailer != nil {
		to, lookupErr := s.store.EmailForUser(ctx, userID)
		if lookupErr != nil || to == "" {
			return nil
		}
		if err := s.mailer.Send(ctx, to, title, body); err != nil {
			slog.Warn("notification email failed", "userId", userID, "err", err)
		}
	}
	return nil
}

func (s *Service) ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error) {
	return s.store.ListForUser(ctx, userID, unreadOnly)
}

func (s *Service) MarkRead(ctx context.Context, id, userID string) error {
	return s.store.MarkRead(ctx, id, userID)
}
