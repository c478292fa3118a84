package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/imovlocal/backend/internal/domain/notification"
	"github.com/imovlocal/backend/internal/pkg/errors"
)

// NotificationRepository implements notification.Repository
type NotificationRepository struct {
	db *DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *DB) notification.Repository {
	return &NotificationRepository{db: db}
}

const notificationColumns = `id, user_id, type, title, message, data, is_read, is_broadcast, created_at`

func scanNotification(row rowScanner) (*notification.Notification, error) {
	var n notification.Notification
	var data string
	err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &data, &n.Read, &n.Broadcast, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	if data != "" && data != "{}" {
		if err := json.Unmarshal([]byte(data), &n.Data); err != nil {
			return nil, err
		}
	}
	n.CreatedAt = n.CreatedAt.UTC()
	return &n, nil
}

func prepareNotification(n *notification.Notification) (string, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.Data == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(n.Data)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

const insertNotification = `INSERT INTO notifications (` + notificationColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	data, err := prepareNotification(n)
	if err != nil {
		return errors.Internal("Failed to encode notification data", err)
	}
	_, err = r.db.ExecContext(ctx, insertNotification,
		n.ID, n.UserID, n.Type, n.Title, n.Message, data, n.Read, n.Broadcast, n.CreatedAt)
	if err != nil {
		return errors.DatabaseError("Failed to create notification", err)
	}
	return nil
}

func (r *NotificationRepository) CreateBatch(ctx context.Context, ns []*notification.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	return r.db.WithTx(ctx, func(tx *Tx) error {
		for _, n := range ns {
			data, err := prepareNotification(n)
			if err != nil {
				return errors.Internal("Failed to encode notification data", err)
			}
			_, err = tx.ExecContext(ctx, insertNotification,
				n.ID, n.UserID, n.Type, n.Title, n.Message, data, n.Read, n.Broadcast, n.CreatedAt)
			if err != nil {
				return errors.DatabaseError("Failed to create notifications", err)
			}
		}
		return nil
	})
}

func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*notification.Notification, error) {
	n, err := scanNotification(r.db.QueryRowContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Notification")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get notification", err)
	}
	return n, nil
}

func (r *NotificationRepository) List(ctx context.Context, filter notification.Filter) ([]*notification.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = ?`
	args := []interface{}{filter.UserID}
	if filter.UnreadOnly {
		query += ` AND is_read = ?`
		args = append(args, false)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list notifications", err)
	}
	defer rows.Close()

	notifications := []*notification.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan notification", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to list notifications", err)
	}
	return notifications, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = ?`, userID, false,
	).Scan(&n)
	if err != nil {
		return 0, errors.DatabaseError("Failed to count notifications", err)
	}
	return n, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = ? WHERE id = ? AND user_id = ?`, true, id, userID)
	if err != nil {
		return errors.DatabaseError("Failed to mark notification as read", err)
	}
	changed, err := rowsChanged(res)
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if !changed {
		return errors.NotFound("Notification")
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = ? WHERE user_id = ? AND is_read = ?`, true, userID, false)
	if err != nil {
		return 0, errors.DatabaseError("Failed to mark notifications as read", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.DatabaseError("Failed to get affected rows", err)
	}
	return n, nil
}

func (r *NotificationRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id)
	if err != nil {
		return errors.DatabaseError("Failed to delete notification", err)
	}
	changed, err := rowsChanged(res)
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if !changed {
		return errors.NotFound("Notification")
	}
	return nil
}

func (r *NotificationRepository) CountBroadcasts(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE is_broadcast = ?`, true).Scan(&n); err != nil {
		return 0, errors.DatabaseError("Failed to count broadcasts", err)
	}
	return n, nil
}
