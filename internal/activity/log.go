// Package activity is an append-only event log of notable platform actions
// (submissions, auto-submissions). Consumers poll it for dashboards; the
// engine only ever appends.
package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

type Event struct {
	Offset    int64                  `json:"offset"`
	Type      string                 `json:"type"` // e.g. "test", "quiz"
	ActorID   string                 `json:"actor_id"`
	ActorRole string                 `json:"actor_role"`
	Key       string                 `json:"key"` // natural key: attempt id
	Text      string                 `json:"text"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt int64                  `json:"created_at"`
}

type Logger interface {
	Append(ctx context.Context, e Event) error
}

type Repo struct{ db *sql.DB }

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Append(ctx context.Context, e Event) error {
	data, err := json.Marshal(map[string]interface{}{
		"text":     e.Text,
		"metadata": e.Metadata,
	})
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO activity_log (typ, actor_id, actor_role, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		e.Type, e.ActorID, e.ActorRole, e.Key, string(data), time.Now().Unix())
	return err
}
