// Package sqlite persists activities in an embedded SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/and161185/activities/internal/errs"
	"github.com/and161185/activities/internal/migrate"
	"github.com/and161185/activities/internal/model"
	"github.com/and161185/activities/internal/repository"
)

var _ repository.Repository = (*ActivityRepo)(nil)

const (
	selectActivity = `SELECT id, title, description, category, date, city, venue, attendees FROM activities`

	qFindByID       = selectActivity + ` WHERE id=?`
	qListAll        = selectActivity + ` ORDER BY date ASC, id ASC`
	qExists         = `SELECT 1 FROM activities WHERE id=?`
	qInsertActivity = `INSERT INTO activities (id, title, description, category, date, city, venue, attendees) VALUES (?,?,?,?,?,?,?,?)`
	qUpdateActivity = `UPDATE activities SET title=?, description=?, category=?, date=?, city=?, venue=?, attendees=? WHERE id=?`
	qDeleteActivity = `DELETE FROM activities WHERE id=?`
)

// ActivityRepo implements repository.Repository on a single SQLite connection,
// which serialises every unit of work.
type ActivityRepo struct {
	db   *sql.DB
	path string
}

// Open migrates and opens the database at path, creating parent directories.
func Open(ctx context.Context, path string) (*ActivityRepo, error) {
	if path == "" {
		path = "activities.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	if err := migrate.UpSQLite(ctx, path); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &ActivityRepo{db: db, path: path}, nil
}

// Close closes the database.
func (r *ActivityRepo) Close() error { return r.db.Close() }

// Path returns the database file path.
func (r *ActivityRepo) Path() string { return r.path }

// FindByID returns a single activity by id.
func (r *ActivityRepo) FindByID(ctx context.Context, id string) (*model.Activity, error) {
	return scanOne(r.db.QueryRowContext(ctx, qFindByID, id))
}

// ListAll returns all activities ordered by date.
func (r *ActivityRepo) ListAll(ctx context.Context) ([]model.Activity, error) {
	rows, err := r.db.QueryContext(ctx, qListAll)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []model.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Begin opens a database transaction.
func (r *ActivityRepo) Begin(ctx context.Context) (repository.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &activityTx{tx: tx}, nil
}

type activityTx struct {
	tx      *sql.Tx
	changed int64
	done    bool
}

func (t *activityTx) FindByID(ctx context.Context, id string) (*model.Activity, error) {
	return scanOne(t.tx.QueryRowContext(ctx, qFindByID, id))
}

func (t *activityTx) Add(ctx context.Context, a model.Activity) error {
	var one int
	switch err := t.tx.QueryRowContext(ctx, qExists, a.ID).Scan(&one); {
	case err == nil:
		return fmt.Errorf("activity %s: %w", a.ID, errs.ErrAlreadyExists)
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}
	att, err := encodeAttendees(a.Attendees)
	if err != nil {
		return err
	}
	res, err := t.tx.ExecContext(ctx, qInsertActivity, a.ID, a.Title, a.Description, a.Category, formatDate(a.Date), a.City, a.Venue, att)
	if err != nil {
		return err
	}
	return t.count(res, "")
}

func (t *activityTx) Update(ctx context.Context, a model.Activity) error {
	att, err := encodeAttendees(a.Attendees)
	if err != nil {
		return err
	}
	res, err := t.tx.ExecContext(ctx, qUpdateActivity, a.Title, a.Description, a.Category, formatDate(a.Date), a.City, a.Venue, att, a.ID)
	if err != nil {
		return err
	}
	return t.count(res, a.ID)
}

func (t *activityTx) Remove(ctx context.Context, id string) error {
	res, err := t.tx.ExecContext(ctx, qDeleteActivity, id)
	if err != nil {
		return err
	}
	return t.count(res, id)
}

// count adds affected rows; a zero count for a keyed statement means the id is gone.
func (t *activityTx) count(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 && id != "" {
		return fmt.Errorf("activity %s: %w", id, errs.ErrNotFound)
	}
	t.changed += n
	return nil
}

func (t *activityTx) Commit(context.Context) error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	if t.changed == 0 {
		_ = t.tx.Rollback()
		return errs.ErrNothingChanged
	}
	return t.tx.Commit()
}

func (t *activityTx) Rollback(context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOne(row scanner) (*model.Activity, error) {
	a, err := scanActivity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func scanActivity(row scanner) (model.Activity, error) {
	var (
		a    model.Activity
		date string
		att  sql.NullString
	)
	if err := row.Scan(&a.ID, &a.Title, &a.Description, &a.Category, &date, &a.City, &a.Venue, &att); err != nil {
		return model.Activity{}, err
	}
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return model.Activity{}, fmt.Errorf("decode date of %s: %w", a.ID, err)
	}
	a.Date = d
	if att.Valid && att.String != "" {
		if err := json.Unmarshal([]byte(att.String), &a.Attendees); err != nil {
			return model.Activity{}, fmt.Errorf("decode attendees of %s: %w", a.ID, err)
		}
	}
	return a, nil
}

// dateLayout is fixed width so text order matches time order for years 1-9999.
const dateLayout = "2006-01-02T15:04:05.000000000Z"

func formatDate(t time.Time) string { return t.UTC().Format(dateLayout) }

func encodeAttendees(in []model.Attendee) (sql.NullString, error) {
	if in == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(in)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}
