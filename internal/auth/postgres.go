package auth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

var _ UserStore = (*PGUserStore)(nil)

// PGUserStore implements UserStore on PostgreSQL.
type PGUserStore struct {
	db *sql.DB
}

func NewPGUserStore(db *sql.DB) *PGUserStore {
	return &PGUserStore{db: db}
}

func (s *PGUserStore) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into users(id, email, full_name, password_hash, role) values($1,$2,$3,$4,$5)`,
		u.ID, u.Email, u.FullName, u.PasswordHash, string(u.Role),
	)
	return err
}

func (s *PGUserStore) Find(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, email, full_name, password_hash, role, created_at from users where id=$1`, id)
	return scanUser(row)
}

func (s *PGUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, email, full_name, password_hash, role, created_at from users where email=$1`, email)
	return scanUser(row)
}

func (s *PGUserStore) List(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, email, full_name, password_hash, role, created_at from users order by created_at desc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *PGUserStore) UpdateRole(ctx context.Context, userID string, role Role) error {
	res, err := s.db.ExecContext(ctx,
		`update users set role=$1 where id=$2`, string(role), userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGUserStore) VestigingIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`select vestiging_id from user_vestigingen where user_id=$1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PGUserStore) SetVestigingen(ctx context.Context, userID string, vestigingIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `delete from user_vestigingen where user_id=$1`, userID); err != nil {
		return err
	}
	for _, vid := range vestigingIDs {
		if vid == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`insert into user_vestigingen(user_id, vestiging_id) values($1,$2) on conflict do nothing`,
			userID, vid); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *PGUserStore) Assignments(ctx context.Context) ([]VestigingAssignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`select user_id, vestiging_id from user_vestigingen order by user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []VestigingAssignment
	for rows.Next() {
		var a VestigingAssignment
		if err := rows.Scan(&a.UserID, &a.VestigingID); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u    User
		role string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &role, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	parsed, err := ParseRole(role)
	if err != nil {
		return nil, err
	}
	u.Role = parsed
	return &u, nil
}
