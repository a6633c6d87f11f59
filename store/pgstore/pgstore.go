// Package pgstore is a PostgreSQL sealedfield.Store. All entities share one
// table; each row's fields live in a JSONB document so that partial updates
// are a JSONB merge and blind index lookups can use a GIN index.
package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/ai8future/sealedfield"
	"github.com/ai8future/sealedfield/internal/dbx"
	"github.com/ai8future/sealedfield/store/pgstore/migrations"
)

const (
	queryCreate = `INSERT INTO confidential_records (entity, id, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (entity, id) DO NOTHING
		RETURNING data`

	queryGet = `SELECT data FROM confidential_records
		WHERE entity = $1 AND id = $2`

	queryUpdate = `UPDATE confidential_records
		SET data = data || $3::jsonb, updated_at = now()
		WHERE entity = $1 AND id = $2
		RETURNING data`

	queryDelete = `DELETE FROM confidential_records
		WHERE entity = $1 AND id = $2`

	queryList = `SELECT data FROM confidential_records
		WHERE entity = $1
		ORDER BY seq`

	queryFindByIndex = `SELECT data FROM confidential_records
		WHERE entity = $1 AND data @> $2::jsonb
		ORDER BY seq`
)

// Store keeps rows in the confidential_records table. List returns rows in
// insertion order.
type Store struct {
	db   dbx.DBTX
	conn *sql.DB // nil inside a transaction
}

var (
	_ sealedfield.Store       = (*Store)(nil)
	_ sealedfield.IndexLookup = (*Store)(nil)
)

// New returns a Store over db.
func New(db *sql.DB) *Store {
	return &Store{db: db, conn: db}
}

// Open connects to PostgreSQL through the pgx stdlib driver and checks the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// WithinTx runs fn against a Store bound to one transaction. Flows that find a
// record by a confidential value and then mutate it should run here so that
// the read and the write commit together. Nested calls reuse the transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx *Store) error) error {
	if s.conn == nil {
		return fn(ctx, s)
	}
	return dbx.WithTx(ctx, s.conn, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, &Store{db: tx})
	})
}

func (s *Store) Create(ctx context.Context, entity sealedfield.Entity, rec sealedfield.Record) (sealedfield.Record, error) {
	row := rec.Clone()
	if row == nil {
		row = sealedfield.Record{}
	}
	if row.ID() == "" {
		row[sealedfield.IDKey] = uuid.NewString()
	}

	data, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}

	out, err := s.queryOne(ctx, queryCreate, string(entity), row.ID(), data)
	if errors.Is(err, sealedfield.ErrNotFound) {
		return nil, sealedfield.ErrDuplicateID
	}
	return out, err
}

func (s *Store) Get(ctx context.Context, entity sealedfield.Entity, id string) (sealedfield.Record, error) {
	return s.queryOne(ctx, queryGet, string(entity), id)
}

func (s *Store) Update(ctx context.Context, entity sealedfield.Entity, id string, patch sealedfield.Record) (sealedfield.Record, error) {
	p := patch.Clone()
	if p == nil {
		p = sealedfield.Record{}
	}
	p[sealedfield.IDKey] = id

	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}

	return s.queryOne(ctx, queryUpdate, string(entity), id, data)
}

func (s *Store) Delete(ctx context.Context, entity sealedfield.Entity, id string) error {
	res, err := s.db.ExecContext(ctx, queryDelete, string(entity), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return sealedfield.ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context, entity sealedfield.Entity) ([]sealedfield.Record, error) {
	return s.queryMany(ctx, queryList, string(entity))
}

// FindByIndex returns rows whose JSONB document contains column = index.
func (s *Store) FindByIndex(ctx context.Context, entity sealedfield.Entity, column, index string) ([]sealedfield.Record, error) {
	filter, err := json.Marshal(map[string]string{column: index})
	if err != nil {
		return nil, fmt.Errorf("encode filter: %w", err)
	}
	return s.queryMany(ctx, queryFindByIndex, string(entity), filter)
}

func (s *Store) queryOne(ctx context.Context, query string, args ...any) (sealedfield.Record, error) {
	var data []byte
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sealedfield.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return decode(data)
}

func (s *Store) queryMany(ctx context.Context, query string, args ...any) ([]sealedfield.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []sealedfield.Record
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		rec, err := decode(data)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return out, nil
}

func decode(data []byte) (sealedfield.Record, error) {
	var rec sealedfield.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}
