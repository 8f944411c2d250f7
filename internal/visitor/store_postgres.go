package visitor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"visitors/pkg/platform/sentinel"
	txcontext "visitors/pkg/platform/tx"
)

// PostgresStore implements Store on a visitors table. It joins a transaction
// carried in context, which the service uses to scope update's
// find-then-save sequence.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the visitors table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS visitors (
			id             BIGSERIAL PRIMARY KEY,
			name           TEXT NOT NULL,
			contact_number TEXT NOT NULL DEFAULT '',
			email          TEXT NOT NULL DEFAULT '',
			purpose        TEXT NOT NULL DEFAULT '',
			check_in       TIMESTAMP,
			check_out      TIMESTAMP,
			duration       BIGINT NOT NULL DEFAULT 0,
			approved       BOOLEAN NOT NULL DEFAULT FALSE,
			created_date   TIMESTAMP NOT NULL
		)`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure visitors schema: %w", err)
	}
	return nil
}

type dbQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) querier(ctx context.Context) dbQuerier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const visitorColumns = "id, name, contact_number, email, purpose, check_in, check_out, duration, approved, created_date"

func (s *PostgresStore) FindAll(ctx context.Context) ([]Visitor, error) {
	rows, err := s.querier(ctx).QueryContext(ctx,
		"SELECT "+visitorColumns+" FROM visitors ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query visitors: %w", err)
	}
	defer rows.Close()

	var visitors []Visitor
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan visitor: %w", err)
		}
		visitors = append(visitors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate visitors: %w", err)
	}
	return visitors, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (Visitor, error) {
	row := s.querier(ctx).QueryRowContext(ctx,
		"SELECT "+visitorColumns+" FROM visitors WHERE id = $1", id)
	v, err := scanVisitor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Visitor{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Visitor{}, fmt.Errorf("query visitor %d: %w", id, err)
	}
	return v, nil
}

func (s *PostgresStore) Save(ctx context.Context, v Visitor) (Visitor, error) {
	if v.CreatedDate.IsZero() {
		row := s.querier(ctx).QueryRowContext(ctx, "SELECT NOW()")
		if err := row.Scan(&v.CreatedDate.Time); err != nil {
			return Visitor{}, fmt.Errorf("read creation time: %w", err)
		}
	}
	if v.ID == 0 {
		row := s.querier(ctx).QueryRowContext(ctx, `
			INSERT INTO visitors (name, contact_number, email, purpose, check_in, check_out, duration, approved, created_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`,
			v.Name, v.ContactNumber, v.Email, v.Purpose,
			nullableTime(v.CheckIn), nullableTime(v.CheckOut),
			v.Duration, v.Approved, v.CreatedDate.Time,
		)
		if err := row.Scan(&v.ID); err != nil {
			return Visitor{}, fmt.Errorf("insert visitor: %w", err)
		}
		return v, nil
	}

	res, err := s.querier(ctx).ExecContext(ctx, `
		UPDATE visitors
		SET name = $2, contact_number = $3, email = $4, purpose = $5,
		    check_in = $6, check_out = $7, duration = $8, approved = $9,
		    created_date = $10
		WHERE id = $1`,
		v.ID, v.Name, v.ContactNumber, v.Email, v.Purpose,
		nullableTime(v.CheckIn), nullableTime(v.CheckOut),
		v.Duration, v.Approved, v.CreatedDate.Time,
	)
	if err != nil {
		return Visitor{}, fmt.Errorf("update visitor %d: %w", v.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Visitor{}, fmt.Errorf("update visitor %d: %w", v.ID, err)
	}
	if affected == 0 {
		return Visitor{}, sentinel.ErrNotFound
	}
	return v, nil
}

func (s *PostgresStore) DeleteByID(ctx context.Context, id int64) error {
	res, err := s.querier(ctx).ExecContext(ctx, "DELETE FROM visitors WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete visitor %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete visitor %d: %w", id, err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var exists bool
	row := s.querier(ctx).QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM visitors WHERE id = $1)", id)
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("check visitor %d: %w", id, err)
	}
	return exists, nil
}

// WithinTx runs fn inside a transaction carried via context. fn's store calls
// join the transaction; any error rolls it back.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVisitor(row rowScanner) (Visitor, error) {
	var (
		v                  Visitor
		checkIn, checkOut  sql.NullTime
	)
	err := row.Scan(
		&v.ID, &v.Name, &v.ContactNumber, &v.Email, &v.Purpose,
		&checkIn, &checkOut, &v.Duration, &v.Approved, &v.CreatedDate.Time,
	)
	if err != nil {
		return Visitor{}, err
	}
	if checkIn.Valid {
		ts := NewTimestamp(checkIn.Time)
		v.CheckIn = &ts
	}
	if checkOut.Valid {
		ts := NewTimestamp(checkOut.Time)
		v.CheckOut = &ts
	}
	return v, nil
}

func nullableTime(t *Timestamp) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.Time, Valid: true}
}
