// Package audit appends the tamper-evident trail of every CMS mutation:
// one audit record per mutating operation plus an availability history row
// for each genuine status transition.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kotwijzer.be/internal/ids"
)

// Action vocabulary. Record rejects anything outside this set.
const (
	ActionCreate           = "create"
	ActionUpdate           = "update"
	ActionDelete           = "delete"
	ActionPublish          = "publish"
	ActionArchive          = "archive"
	ActionSchedule         = "schedule"
	ActionBulkPublish      = "bulk-publish"
	ActionBulkArchive      = "bulk-archive"
	ActionBulkAvailability = "bulk-availability"
)

var validActions = map[string]struct{}{
	ActionCreate:           {},
	ActionUpdate:           {},
	ActionDelete:           {},
	ActionPublish:          {},
	ActionArchive:          {},
	ActionSchedule:         {},
	ActionBulkPublish:      {},
	ActionBulkArchive:      {},
	ActionBulkAvailability: {},
}

// Entry is one immutable audit record. ActorID is nil only for
// system-initiated writes such as seeding. For bulk operations EntityID is the
// first id of the batch and Changes carries the full id list; the batch is
// deliberately not expanded into per-entity records.
type Entry struct {
	ID         string
	ActorID    *string
	Action     string
	EntityType string
	EntityID   string
	Changes    any
	CreatedAt  time.Time
}

// AvailabilityChange is one transition in a kot's availability status.
type AvailabilityChange struct {
	ID        string
	KotID     string
	OldStatus string
	NewStatus string
	ChangedBy *string
	ChangedAt time.Time
}

// Recorder appends audit and history rows through the storage collaborator.
type Recorder struct {
	db *sql.DB
}

func NewRecorder(db *sql.DB) (*Recorder, error) {
	if db == nil {
		return nil, errors.New("audit: db is required")
	}
	return &Recorder{db: db}, nil
}

// Record appends one audit record. It must be called exactly once per
// mutating operation, after the mutation commits.
func (r *Recorder) Record(ctx context.Context, e Entry) error {
	if _, ok := validActions[e.Action]; !ok {
		return fmt.Errorf("audit: unknown action %q", e.Action)
	}
	if e.EntityType == "" || e.EntityID == "" {
		return errors.New("audit: entity type and id are required")
	}
	var changes any
	if e.Changes != nil {
		data, err := json.Marshal(e.Changes)
		if err != nil {
			return fmt.Errorf("audit: encode changes: %w", err)
		}
		changes = data
	}
	_, err := r.db.ExecContext(ctx,
		`insert into audit_logs(id, actor_id, action, entity_type, entity_id, changes)
		 values($1,$2,$3,$4,$5,$6)`,
		ids.New(), e.ActorID, e.Action, e.EntityType, e.EntityID, changes,
	)
	return err
}

// RecordAvailabilityChange appends one history row. Equal old and new status
// is a no-op write and produces no record.
func (r *Recorder) RecordAvailabilityChange(ctx context.Context, c AvailabilityChange) error {
	if c.KotID == "" || c.OldStatus == "" || c.NewStatus == "" {
		return errors.New("audit: kot id and statuses are required")
	}
	if c.OldStatus == c.NewStatus {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`insert into availability_history(id, kot_id, old_status, new_status, changed_by)
		 values($1,$2,$3,$4,$5)`,
		ids.New(), c.KotID, c.OldStatus, c.NewStatus, c.ChangedBy,
	)
	return err
}

// List returns the most recent audit records, newest first. Limit is capped
// at 200.
func (r *Recorder) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	rows, err := r.db.QueryContext(ctx,
		`select id, actor_id, action, entity_type, entity_id, changes, created_at
		 from audit_logs order by created_at desc limit $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			actor   sql.NullString
			changes []byte
		)
		if err := rows.Scan(&e.ID, &actor, &e.Action, &e.EntityType, &e.EntityID, &changes, &e.CreatedAt); err != nil {
			return nil, err
		}
		if actor.Valid {
			e.ActorID = &actor.String
		}
		if len(changes) > 0 {
			e.Changes = json.RawMessage(changes)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// History returns the availability transitions of one kot, newest first.
func (r *Recorder) History(ctx context.Context, kotID string) ([]AvailabilityChange, error) {
	rows, err := r.db.QueryContext(ctx,
		`select id, kot_id, old_status, new_status, changed_by, changed_at
		 from availability_history where kot_id=$1 order by changed_at desc`, kotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []AvailabilityChange
	for rows.Next() {
		var (
			c  AvailabilityChange
			by sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.KotID, &c.OldStatus, &c.NewStatus, &by, &c.ChangedAt); err != nil {
			return nil, err
		}
		if by.Valid {
			c.ChangedBy = &by.String
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}
