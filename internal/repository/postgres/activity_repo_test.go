package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/and161185/activities/internal/errs"
	"github.com/and161185/activities/internal/model"
)

var columns = []string{"id", "title", "description", "category", "date", "city", "venue", "attendees"}

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func sample() model.Activity {
	return model.Activity{
		ID:          "a-1",
		Title:       "Run",
		Description: "5k",
		Category:    "sport",
		Date:        time.Date(2020, 1, 1, 8, 0, 0, 0, time.UTC),
		City:        "Oslo",
		Venue:       "Park",
	}
}

func TestActivityRepo_FindByID_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewActivityRepo(db)

	a := sample()
	mock.ExpectQuery(`SELECT id, title, description, category, date, city, venue, attendees FROM activities WHERE id=\$1`).
		WithArgs("a-1").
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(a.ID, a.Title, a.Description, a.Category, a.Date, a.City, a.Venue, []byte(`[{"username":"bob","displayName":"Bob","isHost":true}]`)))

	got, err := r.FindByID(context.Background(), "a-1")
	require.NoError(t, err)
	require.Equal(t, "Run", got.Title)
	require.Len(t, got.Attendees, 1)
	require.True(t, got.Attendees[0].IsHost)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepo_FindByID_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewActivityRepo(db)

	mock.ExpectQuery(`FROM activities WHERE id=\$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := r.FindByID(context.Background(), "missing")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestActivityRepo_ListAll_OrderedQuery(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewActivityRepo(db)

	a := sample()
	b := sample()
	b.ID, b.Date = "b-2", a.Date.Add(time.Hour)
	mock.ExpectQuery(`FROM activities ORDER BY date ASC, id ASC`).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(a.ID, a.Title, a.Description, a.Category, a.Date, a.City, a.Venue, []byte(nil)).
			AddRow(b.ID, b.Title, b.Description, b.Category, b.Date, b.City, b.Venue, []byte(nil)))

	out, err := r.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "a-1", out[0].ID)
	require.Equal(t, "b-2", out[1].ID)
	require.Nil(t, out[0].Attendees)
}

func TestActivityRepo_ListAll_Empty(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewActivityRepo(db)

	mock.ExpectQuery(`FROM activities ORDER BY`).WillReturnRows(pgxmock.NewRows(columns))

	out, err := r.ListAll(context.Background())
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Empty(t, out)
}

func TestActivityTx_Add_Commit(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewActivityRepo(db)
	ctx := context.Background()
	a := sample()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO activities \(id, title, description, category, date, city, venue, attendees\)`).
		WithArgs(a.ID, a.Title, a.Description, a.Category, a.Date, a.City, a.Venue, []byte(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	tx, err := r.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Add(ctx, a))
	require.NoError(t, tx.Commit(ctx))
	require.NoError(t, tx.Rollback(ctx), "rollback after commit is a no-op")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityTx_Add_UniqueViolation(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewActivityRepo(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO activities`).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	tx, err := r.Begin(ctx)
	require.NoError(t, err)
	err = tx.Add(ctx, sample())
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
	require.NoError(t, tx.Rollback(ctx))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityTx_Update_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewActivityRepo(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE activities SET title=\$2`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	tx, err := r.Begin(ctx)
	require.NoError(t, err)
	require.ErrorIs(t, tx.Update(ctx, sample()), errs.ErrNotFound)
	require.NoError(t, tx.Rollback(ctx))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityTx_FindForUpdate_Remove(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewActivityRepo(db)
	ctx := context.Background()
	a := sample()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM activities WHERE id=\$1 FOR UPDATE`).
		WithArgs(a.ID).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(a.ID, a.Title, a.Description, a.Category, a.Date, a.City, a.Venue, []byte(nil)))
	mock.ExpectExec(`DELETE FROM activities WHERE id=\$1`).
		WithArgs(a.ID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	tx, err := r.Begin(ctx)
	require.NoError(t, err)
	got, err := tx.FindByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)
	require.NoError(t, tx.Remove(ctx, a.ID))
	require.NoError(t, tx.Commit(ctx))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityTx_CommitWithoutChanges(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewActivityRepo(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectRollback()

	tx, err := r.Begin(ctx)
	require.NoError(t, err)
	require.ErrorIs(t, tx.Commit(ctx), errs.ErrNothingChanged)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepo_BeginError(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewActivityRepo(db)

	mock.ExpectBegin().WillReturnError(errors.New("conn refused"))

	_, err := r.Begin(context.Background())
	require.Error(t, err)
}
