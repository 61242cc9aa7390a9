// Package notify delivers user notifications. The attempt engine treats
// delivery as fire-and-forget: failures are logged by the caller, never
// surfaced.
package notify

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Notification kinds.
const (
	KindResult = "result"
	KindTest   = "test"
)

type Notification struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Kind      string `json:"kind"`
	Read      bool   `json:"read"`
	CreatedAt int64  `json:"created_at"`
}

type Notifier interface {
	Create(ctx context.Context, userID, title, message, kind string) error
}

type SQLRepo struct {
	db *sql.DB
}

func NewSQLRepo(db *sql.DB) *SQLRepo { return &SQLRepo{db: db} }

func (r *SQLRepo) Create(ctx context.Context, userID, title, message, kind string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (id,user_id,title,message,kind,read,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		uuid.NewString(), userID, title, message, kind, false, time.Now().Unix())
	return err
}

func (r *SQLRepo) ListForUser(ctx context.Context, userID string, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id,user_id,title,message,kind,read,created_at FROM notifications
		 WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Kind, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flips the read flag; reports whether the notification existed and
// belonged to the user.
func (r *SQLRepo) MarkRead(ctx context.Context, userID, notificationID string, read bool) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read=$1 WHERE id=$2 AND user_id=$3`,
		read, notificationID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
