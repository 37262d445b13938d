package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	actor := "u-1"
	mock.ExpectExec("insert into audit_logs").
		WithArgs(sqlmock.AnyArg(), "u-1", ActionUpdate, "koten", "k-1", []byte(`{"title":"Kot 12"}`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec, err := NewRecorder(db)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	err = rec.Record(context.Background(), Entry{
		ActorID:    &actor,
		Action:     ActionUpdate,
		EntityType: "koten",
		EntityID:   "k-1",
		Changes:    map[string]string{"title": "Kot 12"},
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRecordNilChangesWritesNull(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("insert into audit_logs").
		WithArgs(sqlmock.AnyArg(), nil, ActionDelete, "koten", "k-1", nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec, err := NewRecorder(db)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	err = rec.Record(context.Background(), Entry{
		Action:     ActionDelete,
		EntityType: "koten",
		EntityID:   "k-1",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRecordRejectsUnknownAction(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	rec, err := NewRecorder(db)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	err = rec.Record(context.Background(), Entry{
		Action:     "login",
		EntityType: "users",
		EntityID:   "u-1",
	})
	if err == nil {
		t.Fatal("action outside the vocabulary accepted")
	}
}

func TestRecordRequiresEntity(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	rec, err := NewRecorder(db)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	if err := rec.Record(context.Background(), Entry{Action: ActionCreate, EntityType: "koten"}); err == nil {
		t.Fatal("missing entity id accepted")
	}
	if err := rec.Record(context.Background(), Entry{Action: ActionCreate, EntityID: "k-1"}); err == nil {
		t.Fatal("missing entity type accepted")
	}
}

func TestRecordAvailabilityChange(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	by := "u-1"
	mock.ExpectExec("insert into availability_history").
		WithArgs(sqlmock.AnyArg(), "k-1", "available", "rented", "u-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec, err := NewRecorder(db)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	err = rec.RecordAvailabilityChange(context.Background(), AvailabilityChange{
		KotID:     "k-1",
		OldStatus: "available",
		NewStatus: "rented",
		ChangedBy: &by,
	})
	if err != nil {
		t.Fatalf("RecordAvailabilityChange: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRecordAvailabilityChangeNoOp(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	rec, err := NewRecorder(db)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	// Equal statuses must not touch the database at all.
	err = rec.RecordAvailabilityChange(context.Background(), AvailabilityChange{
		KotID:     "k-1",
		OldStatus: "available",
		NewStatus: "available",
	})
	if err != nil {
		t.Fatalf("RecordAvailabilityChange: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no-op transition executed SQL: %v", err)
	}
}

func TestList(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("select id, actor_id, action, entity_type, entity_id, changes, created_at").
		WithArgs(200).
		WillReturnRows(sqlmock.NewRows([]string{"id", "actor_id", "action", "entity_type", "entity_id", "changes", "created_at"}).
			AddRow("a-2", "u-1", ActionUpdate, "koten", "k-1", []byte(`{"x":1}`), now).
			AddRow("a-1", nil, ActionCreate, "users", "u-9", nil, now.Add(-time.Hour)))

	rec, err := NewRecorder(db)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	// Out-of-range limits collapse to the 200 cap.
	entries, err := rec.List(context.Background(), 10000)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].ActorID == nil || *entries[0].ActorID != "u-1" {
		t.Fatalf("actor not decoded: %+v", entries[0])
	}
	if entries[1].ActorID != nil {
		t.Fatal("system entry must have nil actor")
	}
	raw, ok := entries[0].Changes.(json.RawMessage)
	if !ok || string(raw) != `{"x":1}` {
		t.Fatalf("changes not preserved: %+v", entries[0].Changes)
	}
}
