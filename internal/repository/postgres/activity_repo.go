package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/activities/internal/errs"
	"github.com/and161185/activities/internal/model"
	"github.com/and161185/activities/internal/repository"
)

var _ repository.Repository = (*ActivityRepo)(nil)

const (
	selectActivity = `SELECT id, title, description, category, date, city, venue, attendees FROM activities`

	qFindByID       = selectActivity + ` WHERE id=$1`
	qFindForUpdate  = selectActivity + ` WHERE id=$1 FOR UPDATE`
	qListAll        = selectActivity + ` ORDER BY date ASC, id ASC`
	qInsertActivity = `INSERT INTO activities (id, title, description, category, date, city, venue, attendees) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	qUpdateActivity = `UPDATE activities SET title=$2, description=$3, category=$4, date=$5, city=$6, venue=$7, attendees=$8 WHERE id=$1`
	qDeleteActivity = `DELETE FROM activities WHERE id=$1`
)

// ActivityRepo implements repository.Repository using PostgreSQL.
type ActivityRepo struct{ db *DB }

// NewActivityRepo constructs an activity repository.
func NewActivityRepo(db *DB) *ActivityRepo { return &ActivityRepo{db: db} }

// FindByID returns a single activity by id.
func (r *ActivityRepo) FindByID(ctx context.Context, id string) (*model.Activity, error) {
	return scanOne(r.db.Pool.QueryRow(ctx, qFindByID, id))
}

// ListAll returns all activities ordered by date.
func (r *ActivityRepo) ListAll(ctx context.Context) ([]model.Activity, error) {
	rows, err := r.db.Pool.Query(ctx, qListAll)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

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
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &activityTx{tx: tx}, nil
}

// activityTx applies statements inside a pgx transaction; they become visible on Commit.
type activityTx struct {
	tx      pgx.Tx
	changed int64
	done    bool
}

func (t *activityTx) FindByID(ctx context.Context, id string) (*model.Activity, error) {
	return scanOne(t.tx.QueryRow(ctx, qFindForUpdate, id))
}

func (t *activityTx) Add(ctx context.Context, a model.Activity) error {
	att, err := encodeAttendees(a.Attendees)
	if err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, qInsertActivity, a.ID, a.Title, a.Description, a.Category, a.Date.UTC(), a.City, a.Venue, att)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("activity %s: %w", a.ID, errs.ErrAlreadyExists)
		}
		return err
	}
	t.changed += tag.RowsAffected()
	return nil
}

func (t *activityTx) Update(ctx context.Context, a model.Activity) error {
	att, err := encodeAttendees(a.Attendees)
	if err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, qUpdateActivity, a.ID, a.Title, a.Description, a.Category, a.Date.UTC(), a.City, a.Venue, att)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("activity %s: %w", a.ID, errs.ErrNotFound)
	}
	t.changed += tag.RowsAffected()
	return nil
}

func (t *activityTx) Remove(ctx context.Context, id string) error {
	tag, err := t.tx.Exec(ctx, qDeleteActivity, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("activity %s: %w", id, errs.ErrNotFound)
	}
	t.changed += tag.RowsAffected()
	return nil
}

func (t *activityTx) Commit(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	if t.changed == 0 {
		_ = t.tx.Rollback(ctx)
		return errs.ErrNothingChanged
	}
	return t.tx.Commit(ctx)
}

func (t *activityTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

func scanOne(row pgx.Row) (*model.Activity, error) {
	a, err := scanActivity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func scanActivity(row pgx.Row) (model.Activity, error) {
	var (
		a    model.Activity
		date time.Time
		att  []byte
	)
	if err := row.Scan(&a.ID, &a.Title, &a.Description, &a.Category, &date, &a.City, &a.Venue, &att); err != nil {
		return model.Activity{}, err
	}
	a.Date = date.UTC()
	if len(att) > 0 {
		if err := json.Unmarshal(att, &a.Attendees); err != nil {
			return model.Activity{}, fmt.Errorf("decode attendees of %s: %w", a.ID, err)
		}
	}
	return a, nil
}

// encodeAttendees returns nil for a nil set so the column stays NULL.
func encodeAttendees(in []model.Attendee) ([]byte, error) {
	if in == nil {
		return nil, nil
	}
	return json.Marshal(in)
}
