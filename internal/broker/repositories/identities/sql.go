package identities

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophguard/internal/broker/migrations"
	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/dbx"
	"github.com/dmitrijs2005/gophguard/internal/models"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLRepository stores identity records in SQLite or PostgreSQL. Update
// runs in a database transaction; on PostgreSQL the identity row is locked
// with SELECT ... FOR UPDATE, on SQLite a single connection serializes
// writers.
type SQLRepository struct {
	db      *sql.DB
	dialect dbx.Dialect
}

// OpenSQL opens dsn with the driver of dialect and migrates the schema.
func OpenSQL(ctx context.Context, dialect dbx.Dialect, dsn string) (*SQLRepository, error) {
	driver, err := dialect.DriverName()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if dialect == dbx.DialectSQLite {
		db.SetMaxOpenConns(1)
	}

	repo := NewSQLRepository(db, dialect)
	if err := repo.RunMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migrate: %w", err)
	}
	return repo, nil
}

func NewSQLRepository(db *sql.DB, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations of the repository dialect.
func (r *SQLRepository) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	gooseDialect, dir := "sqlite3", "sqlite"
	if r.dialect == dbx.DialectPostgres {
		gooseDialect, dir = "pgx", "postgres"
	}
	if err := goose.SetDialect(gooseDialect); err != nil {
		return err
	}
	return gooseUpContext(ctx, r.db, dir)
}

func (r *SQLRepository) Close() error {
	return r.db.Close()
}

func (r *SQLRepository) Get(ctx context.Context, uid string) (*models.Record, error) {
	return r.get(ctx, r.db, uid, false)
}

func (r *SQLRepository) get(ctx context.Context, db dbx.DBTX, uid string, forUpdate bool) (*models.Record, error) {
	query :=
		`SELECT i.uid, i.salt, i.verifier, i.relay_host, i.relay_port, i.created_at,
		        t.request_id, t.code, t.tid, t.operation, t.filename, t.state, t.issued_at
		 FROM identities i
		 LEFT JOIN transactions t ON t.uid = i.uid
		 WHERE i.uid = ?`
	if forUpdate && r.dialect == dbx.DialectPostgres {
		query += ` FOR UPDATE OF i`
	}

	var (
		rec       models.Record
		createdAt int64
		requestID sql.NullString
		code      sql.NullString
		tid       sql.NullString
		operation sql.NullString
		filename  sql.NullString
		state     sql.NullString
		issuedAt  sql.NullInt64
	)

	err := db.QueryRowContext(ctx, r.dialect.Rebind(query), uid).Scan(
		&rec.Identity.UID, &rec.Identity.Salt, &rec.Identity.Verifier,
		&rec.Identity.Relay.Host, &rec.Identity.Relay.Port, &createdAt,
		&requestID, &code, &tid, &operation, &filename, &state, &issuedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	rec.Identity.CreatedAt = time.UnixMilli(createdAt).UTC()

	if requestID.Valid {
		rec.Transaction = &models.Transaction{
			RequestID: requestID.String,
			Code:      code.String,
			TID:       tid.String,
			Operation: models.Operation(operation.String),
			Filename:  filename.String,
			State:     models.TransactionState(state.String),
			IssuedAt:  time.UnixMilli(issuedAt.Int64).UTC(),
		}
	}
	return &rec, nil
}

func (r *SQLRepository) Update(ctx context.Context, uid string, fn UpdateFunc) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		current, err := r.get(ctx, tx, uid, true)
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		if next == nil {
			if current == nil {
				return nil
			}
			return r.delete(ctx, tx, uid)
		}
		return r.put(ctx, tx, uid, next)
	})
}

func (r *SQLRepository) delete(ctx context.Context, tx dbx.DBTX, uid string) error {
	if _, err := tx.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM transactions WHERE uid = ?`), uid); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if _, err := tx.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM identities WHERE uid = ?`), uid); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) put(ctx context.Context, tx dbx.DBTX, uid string, rec *models.Record) error {
	id := rec.Identity
	upsert :=
		`INSERT INTO identities (uid, salt, verifier, relay_host, relay_port, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (uid) DO UPDATE SET
		     salt = excluded.salt,
		     verifier = excluded.verifier,
		     relay_host = excluded.relay_host,
		     relay_port = excluded.relay_port`
	if _, err := tx.ExecContext(ctx, r.dialect.Rebind(upsert),
		uid, id.Salt, id.Verifier, id.Relay.Host, id.Relay.Port, id.CreatedAt.UnixMilli()); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if _, err := tx.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM transactions WHERE uid = ?`), uid); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if rec.Transaction == nil {
		return nil
	}

	t := rec.Transaction
	insert :=
		`INSERT INTO transactions (uid, request_id, code, tid, operation, filename, state, issued_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, r.dialect.Rebind(insert),
		uid, t.RequestID, t.Code, t.TID, string(t.Operation), t.Filename, string(t.State), t.IssuedAt.UnixMilli()); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
