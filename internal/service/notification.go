package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"laundromat/internal/model"
)

// Notifier delivers best-effort notifications. Failures are reported to
// the caller for logging but must never roll back the triggering
// transition.
type Notifier interface {
	NotifyUser(ctx context.Context, userID, title, message, kind string) error
	NotifyRole(ctx context.Context, role, title, message, kind string) error
}

type NotificationService struct {
	db *sql.DB
}

func NewNotificationService(db *sql.DB) *NotificationService {
	return &NotificationService{db: db}
}

func (s *NotificationService) NotifyUser(ctx context.Context, userID, title, message, kind string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, title, message, kind, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.NewString(), userID, title, message, kind, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *NotificationService) NotifyRole(ctx context.Context, role, title, message, kind string) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM users WHERE role = $1`, role)
	if err != nil {
		return fmt.Errorf("query users by role: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("rows iteration failed: %w", err)
	}

	for _, id := range ids {
		if err := s.NotifyUser(ctx, id, title, message, kind); err != nil {
			return err
		}
	}
	return nil
}

func (s *NotificationService) ListByUser(ctx context.Context, userID string) ([]model.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, message, kind, read, created_at
		 FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Kind, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return notifications, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}
