package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists audit entries in PostgreSQL. The table carries a
// timestamp-desc index and an (actor_id, timestamp desc) index; there is
// no update or delete path besides retention purge.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert appends one entry.
func (r *Repository) Insert(ctx context.Context, e Entry) error {
	var changes []byte
	if len(e.Changes) > 0 {
		changes, _ = json.Marshal(e.Changes)
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO audit_logs (actor_id, action, path, object_id, description, ip, user_agent, changes, at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ActorID, e.Action, e.Path, nullString(e.ObjectID), nullString(e.Description), e.IP, nullString(e.UserAgent), changes, e.At)
	return err
}

// List returns entries newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT id, actor_id, action, path, COALESCE(object_id, ''), COALESCE(description, ''), ip, COALESCE(user_agent, ''), changes, at
FROM audit_logs ORDER BY at DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var changes []byte
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.Path, &e.ObjectID, &e.Description, &e.IP, &e.UserAgent, &changes, &e.At); err != nil {
			return nil, err
		}
		if len(changes) > 0 {
			_ = json.Unmarshal(changes, &e.Changes)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PurgeBefore removes settled entries older than the cutoff. Only entries
// whose description carries a closed or cancelled marker are eligible;
// everything else is kept regardless of age.
func (r *Repository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM audit_logs
WHERE at < $1 AND (description ILIKE '%closed%' OR description ILIKE '%cancelled%')`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func nullString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
