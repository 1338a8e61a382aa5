package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const notificationColumns = "id, recipient_id, sender_id, type, title, message, priority, data, read, read_at, expires_at, created_at"

func scanNotification(row pgx.Row) (*Notification, error) {
	var n Notification
	var data []byte
	if err := row.Scan(&n.ID, &n.RecipientID, &n.SenderID, &n.Type, &n.Title, &n.Message, &n.Priority, &data, &n.Read, &n.ReadAt, &n.ExpiresAt, &n.CreatedAt); err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &n.Data); err != nil {
			return nil, fmt.Errorf("decode notification data: %w", err)
		}
	}
	return &n, nil
}

func (s *Store) Create(ctx context.Context, n *Notification) error {
	var data []byte
	if len(n.Data) > 0 {
		payload, err := json.Marshal(n.Data)
		if err != nil {
			return err
		}
		data = payload
	}
	return s.DB.QueryRow(ctx, `
    INSERT INTO notifications (recipient_id, sender_id, type, title, message, priority, data, expires_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING id, created_at
  `, n.RecipientID, n.SenderID, string(n.Type), n.Title, n.Message, string(n.Priority), data, n.ExpiresAt).Scan(&n.ID, &n.CreatedAt)
}

func (s *Store) List(ctx context.Context, userID string, filter ListFilter) ([]*Notification, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+notificationColumns+`
    FROM notifications
    WHERE recipient_id = $1 AND expires_at > now() AND ($2 = false OR read = false)
    ORDER BY created_at DESC
    LIMIT $3 OFFSET $4
  `, userID, filter.UnreadOnly, filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) CountUnread(ctx context.Context, userID string) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM notifications
    WHERE recipient_id = $1 AND read = false AND expires_at > now()
  `, userID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) MarkRead(ctx context.Context, userID, id string) (*Notification, error) {
	n, err := scanNotification(s.DB.QueryRow(ctx, `
    UPDATE notifications
    SET read = true, read_at = COALESCE(read_at, now())
    WHERE id = $1 AND recipient_id = $2
    RETURNING `+notificationColumns, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return n, nil
}

func (s *Store) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE notifications SET read = true, read_at = now()
    WHERE recipient_id = $1 AND read = false
  `, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.DB.Exec(ctx, "DELETE FROM notifications WHERE expires_at <= $1", now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) UserEmail(ctx context.Context, userID string) (string, error) {
	var email string
	if err := s.DB.QueryRow(ctx, "SELECT email FROM users WHERE id = $1", userID).Scan(&email); err != nil {
		return "", err
	}
	return email, nil
}
