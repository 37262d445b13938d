package cms

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func kotRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "vestiging_id", "title", "description", "price_cents", "availability_status",
		"status", "scheduled_publish_at", "published_at", "archived_at", "is_highlighted",
		"created_at", "updated_at",
	})
}

func TestPGKotStoreListFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`select .* from koten where 1=1 and vestiging_id=\$1 and status=\$2 and \(lower\(title\) like \$3 or lower\(description\) like \$3\) order by is_highlighted desc, created_at desc`).
		WithArgs("v1", "published", "%zolder%").
		WillReturnRows(kotRows().
			AddRow("k-1", "v1", "Zolderkamer", "ruim", int64(42500), "available",
				"published", nil, now, nil, true, now, now))

	store := NewPGKotStore(db)
	koten, err := store.List(context.Background(), KotFilter{
		VestigingID: "v1",
		Status:      StatusPublished,
		Search:      "Zolder",
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(koten) != 1 || koten[0].ID != "k-1" || !koten[0].IsHighlighted {
		t.Fatalf("unexpected result: %+v", koten)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGKotStoreCountHighlighted(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`select count\(\*\) from koten where is_highlighted and archived_at is null and id != \$1`).
		WithArgs("k-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	store := NewPGKotStore(db)
	n, err := store.CountHighlighted(context.Background(), "k-1")
	if err != nil {
		t.Fatalf("CountHighlighted: %v", err)
	}
	if n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
}

func TestPGKotStoreFindNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select .* from koten where id").
		WithArgs("ghost").
		WillReturnRows(kotRows())

	store := NewPGKotStore(db)
	if _, err := store.Find(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestPGKotStoreDeleteNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("delete from koten where id").
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewPGKotStore(db)
	if err := store.Delete(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestPGKotStoreRejectsCorruptEnum(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("select .* from koten where id").
		WithArgs("k-1").
		WillReturnRows(kotRows().
			AddRow("k-1", "v1", "t", "d", int64(0), "teleported",
				"draft", nil, nil, nil, false, now, now))

	store := NewPGKotStore(db)
	if _, err := store.Find(context.Background(), "k-1"); !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation for corrupt availability", err)
	}
}
