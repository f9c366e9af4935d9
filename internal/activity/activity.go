// Package activity records the audit trail of workflow mutations. Entries are
// written on the caller's transaction so an entry exists iff its mutation
// committed.
package activity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by pgx pools, connections and transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Entry is one audit record.
type Entry struct {
	ID         uuid.UUID
	LeadID     *uuid.UUID
	UserID     uuid.UUID
	Action     string
	EntityType string
	EntityID   uuid.UUID
	OldValue   json.RawMessage
	NewValue   json.RawMessage
	CreatedAt  time.Time
}

// Snapshot encodes v for the old/new value columns. Nil yields nil.
func Snapshot(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

// Writer persists and reads activity entries.
type Writer struct{}

// NewWriter creates a Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Record inserts entry using q, normally the enclosing transaction.
// ID and CreatedAt are filled in when zero.
func (w *Writer) Record(ctx context.Context, q DBTX, entry Entry) (Entry, error) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := q.Exec(ctx, `
		INSERT INTO activity_log (
			id,
			lead_id,
			user_id,
			action,
			entity_type,
			entity_id,
			old_value,
			new_value,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, entry.ID, entry.LeadID, entry.UserID, entry.Action, entry.EntityType, entry.EntityID,
		nullableJSON(entry.OldValue), nullableJSON(entry.NewValue), entry.CreatedAt)
	if err != nil {
		return Entry{}, err
	}

	return entry, nil
}

// ListForLead returns the entries of a lead, newest first.
func (w *Writer) ListForLead(ctx context.Context, q DBTX, leadID uuid.UUID) ([]Entry, error) {
	rows, err := q.Query(ctx, `
		SELECT id, lead_id, user_id, action, entity_type, entity_id, old_value, new_value, created_at
		FROM activity_log
		WHERE lead_id = $1
		ORDER BY created_at DESC, id
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var oldValue, newValue []byte
		if err := rows.Scan(&e.ID, &e.LeadID, &e.UserID, &e.Action, &e.EntityType, &e.EntityID, &oldValue, &newValue, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.OldValue = oldValue
		e.NewValue = newValue
		entries = append(entries, e)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return entries, nil
}

func nullableJSON(value json.RawMessage) any {
	if len(value) == 0 {
		return nil
	}
	return []byte(value)
}
