package cms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	_ KotStore       = (*PGKotStore)(nil)
	_ VestigingStore = (*PGVestigingStore)(nil)
)

// PGKotStore implements KotStore on PostgreSQL.
type PGKotStore struct {
	db *sql.DB
}

func NewPGKotStore(db *sql.DB) *PGKotStore {
	return &PGKotStore{db: db}
}

const kotColumns = `id, vestiging_id, title, description, price_cents, availability_status,
	status, scheduled_publish_at, published_at, archived_at, is_highlighted, created_at, updated_at`

func (s *PGKotStore) Create(ctx context.Context, k *Kot) (*Kot, error) {
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	row := s.db.QueryRowContext(ctx,
		`insert into koten(id, vestiging_id, title, description, price_cents, availability_status,
			status, scheduled_publish_at, is_highlighted)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 returning `+kotColumns,
		k.ID, k.VestigingID, k.Title, k.Description, k.PriceCents, string(k.Availability),
		string(k.Status), k.ScheduledPublishAt, k.IsHighlighted,
	)
	return scanKot(row)
}

func (s *PGKotStore) Find(ctx context.Context, id string) (*Kot, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+kotColumns+` from koten where id=$1`, id)
	return scanKot(row)
}

func (s *PGKotStore) Update(ctx context.Context, k *Kot) (*Kot, error) {
	row := s.db.QueryRowContext(ctx,
		`update koten set vestiging_id=$1, title=$2, description=$3, price_cents=$4,
			availability_status=$5, status=$6, scheduled_publish_at=$7, is_highlighted=$8,
			updated_at=now()
		 where id=$9
		 returning `+kotColumns,
		k.VestigingID, k.Title, k.Description, k.PriceCents, string(k.Availability),
		string(k.Status), k.ScheduledPublishAt, k.IsHighlighted, k.ID,
	)
	return scanKot(row)
}

func (s *PGKotStore) Delete(ctx context.Context, id string) error {
	return execOne(ctx, s.db, `delete from koten where id=$1`, id)
}

func (s *PGKotStore) List(ctx context.Context, f KotFilter) ([]*Kot, error) {
	where := "where 1=1"
	var params []any
	if f.VestigingID != "" {
		params = append(params, f.VestigingID)
		where += fmt.Sprintf(" and vestiging_id=$%d", len(params))
	}
	if f.Status != "" {
		params = append(params, string(f.Status))
		where += fmt.Sprintf(" and status=$%d", len(params))
	}
	if f.Search != "" {
		params = append(params, "%"+strings.ToLower(f.Search)+"%")
		where += fmt.Sprintf(" and (lower(title) like $%d or lower(description) like $%d)", len(params), len(params))
	}
	rows, err := s.db.QueryContext(ctx,
		`select `+kotColumns+` from koten `+where+` order by is_highlighted desc, created_at desc`,
		params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var koten []*Kot
	for rows.Next() {
		k, err := scanKot(rows)
		if err != nil {
			return nil, err
		}
		koten = append(koten, k)
	}
	return koten, rows.Err()
}

func (s *PGKotStore) Publish(ctx context.Context, id string) error {
	return execOne(ctx, s.db,
		`update koten set status='published', published_at=now(), updated_at=now() where id=$1`, id)
}

func (s *PGKotStore) Archive(ctx context.Context, id string) error {
	return execOne(ctx, s.db,
		`update koten set status='archived', archived_at=now(), updated_at=now() where id=$1`, id)
}

func (s *PGKotStore) Schedule(ctx context.Context, id string, at time.Time) error {
	return execOne(ctx, s.db,
		`update koten set status='scheduled', scheduled_publish_at=$1, updated_at=now() where id=$2`, at, id)
}

func (s *PGKotStore) BulkSetStatus(ctx context.Context, ids []string, status Status) error {
	switch status {
	case StatusPublished:
		_, err := s.db.ExecContext(ctx,
			`update koten set status='published', published_at=now(), updated_at=now() where id = any($1)`, ids)
		return err
	case StatusArchived:
		_, err := s.db.ExecContext(ctx,
			`update koten set status='archived', archived_at=now(), updated_at=now() where id = any($1)`, ids)
		return err
	default:
		_, err := s.db.ExecContext(ctx,
			`update koten set status=$1, updated_at=now() where id = any($2)`, string(status), ids)
		return err
	}
}

func (s *PGKotStore) BulkSetAvailability(ctx context.Context, ids []string, availability Availability) error {
	_, err := s.db.ExecContext(ctx,
		`update koten set availability_status=$1, updated_at=now() where id = any($2)`,
		string(availability), ids)
	return err
}

func (s *PGKotStore) CountHighlighted(ctx context.Context, excludeID string) (int, error) {
	var n int
	var err error
	if excludeID == "" {
		err = s.db.QueryRowContext(ctx,
			`select count(*) from koten where is_highlighted and archived_at is null`).Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx,
			`select count(*) from koten where is_highlighted and archived_at is null and id != $1`,
			excludeID).Scan(&n)
	}
	return n, err
}

func (s *PGKotStore) VestigingIDs(ctx context.Context, ids []string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, vestiging_id from koten where id = any($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string, len(ids))
	for rows.Next() {
		var id, vid string
		if err := rows.Scan(&id, &vid); err != nil {
			return nil, err
		}
		out[id] = vid
	}
	return out, rows.Err()
}

// PGVestigingStore implements VestigingStore on PostgreSQL.
type PGVestigingStore struct {
	db *sql.DB
}

func NewPGVestigingStore(db *sql.DB) *PGVestigingStore {
	return &PGVestigingStore{db: db}
}

const vestigingColumns = `id, name, address, city, postal_code, description, archived_at, created_at, updated_at`

func (s *PGVestigingStore) Create(ctx context.Context, v *Vestiging) (*Vestiging, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	row := s.db.QueryRowContext(ctx,
		`insert into vestigingen(id, name, address, city, postal_code, description)
		 values($1,$2,$3,$4,$5,$6)
		 returning `+vestigingColumns,
		v.ID, v.Name, v.Address, v.City, v.PostalCode, v.Description,
	)
	return scanVestiging(row)
}

func (s *PGVestigingStore) Find(ctx context.Context, id string) (*Vestiging, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+vestigingColumns+` from vestigingen where id=$1`, id)
	return scanVestiging(row)
}

func (s *PGVestigingStore) Update(ctx context.Context, v *Vestiging) (*Vestiging, error) {
	row := s.db.QueryRowContext(ctx,
		`update vestigingen set name=$1, address=$2, city=$3, postal_code=$4, description=$5,
			updated_at=now()
		 where id=$6
		 returning `+vestigingColumns,
		v.Name, v.Address, v.City, v.PostalCode, v.Description, v.ID,
	)
	return scanVestiging(row)
}

func (s *PGVestigingStore) Archive(ctx context.Context, id string) error {
	return execOne(ctx, s.db,
		`update vestigingen set archived_at=now(), updated_at=now() where id=$1`, id)
}

func (s *PGVestigingStore) List(ctx context.Context) ([]*Vestiging, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+vestigingColumns+` from vestigingen order by name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Vestiging
	for rows.Next() {
		v, err := scanVestiging(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func execOne(ctx context.Context, db *sql.DB, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanKot(row rowScanner) (*Kot, error) {
	var (
		k            Kot
		availability string
		status       string
	)
	err := row.Scan(&k.ID, &k.VestigingID, &k.Title, &k.Description, &k.PriceCents,
		&availability, &status, &k.ScheduledPublishAt, &k.PublishedAt, &k.ArchivedAt,
		&k.IsHighlighted, &k.CreatedAt, &k.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if k.Availability, err = ParseAvailability(availability); err != nil {
		return nil, err
	}
	if k.Status, err = ParseStatus(status); err != nil {
		return nil, err
	}
	return &k, nil
}

func scanVestiging(row rowScanner) (*Vestiging, error) {
	var v Vestiging
	err := row.Scan(&v.ID, &v.Name, &v.Address, &v.City, &v.PostalCode, &v.Description,
		&v.ArchivedAt, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}
