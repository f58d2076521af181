package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/and161185/activities/internal/errs"
	"github.com/and161185/activities/internal/model"
)

func openRepo(t *testing.T) *ActivityRepo {
	t.Helper()
	r, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "activities.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func activity(id string, date time.Time) model.Activity {
	return model.Activity{
		ID:          id,
		Title:       "Run " + id,
		Description: "5k",
		Category:    "sport",
		Date:        date,
		City:        "Oslo",
		Venue:       "Park",
	}
}

func add(t *testing.T, r *ActivityRepo, a model.Activity) {
	t.Helper()
	ctx := context.Background()
	tx, err := r.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()
	require.NoError(t, tx.Add(ctx, a))
	require.NoError(t, tx.Commit(ctx))
}

func TestActivityRepo_AddFindRoundTrip(t *testing.T) {
	r := openRepo(t)
	ctx := context.Background()

	a := activity("1", time.Date(2020, 1, 1, 8, 30, 0, 123, time.UTC))
	a.Attendees = []model.Attendee{{Username: "bob", DisplayName: "Bob", IsHost: true}}
	add(t, r, a)

	got, err := r.FindByID(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, a, *got)
}

func TestActivityRepo_FindByID_NotFound(t *testing.T) {
	r := openRepo(t)
	_, err := r.FindByID(context.Background(), "nope")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestActivityRepo_ListAll_OrderedByDate(t *testing.T) {
	r := openRepo(t)
	base := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)

	add(t, r, activity("c", base.Add(48*time.Hour)))
	add(t, r, activity("b", base))
	add(t, r, activity("a", base.Add(24*time.Hour)))
	add(t, r, activity("0", base))

	got, err := r.ListAll(context.Background())
	require.NoError(t, err)
	ids := make([]string, 0, len(got))
	for _, a := range got {
		ids = append(ids, a.ID)
	}
	require.Equal(t, []string{"0", "b", "a", "c"}, ids)
}

func TestActivityRepo_ListAll_Empty(t *testing.T) {
	r := openRepo(t)
	got, err := r.ListAll(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestActivityRepo_AddDuplicate(t *testing.T) {
	r := openRepo(t)
	ctx := context.Background()
	first := activity("1", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	add(t, r, first)

	tx, err := r.Begin(ctx)
	require.NoError(t, err)
	second := first
	second.Title = "Other"
	require.ErrorIs(t, tx.Add(ctx, second), errs.ErrAlreadyExists)
	require.NoError(t, tx.Rollback(ctx))

	got, err := r.FindByID(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, first.Title, got.Title)
}

func TestActivityRepo_UpdateAndRemove(t *testing.T) {
	r := openRepo(t)
	ctx := context.Background()
	a := activity("1", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	add(t, r, a)

	tx, err := r.Begin(ctx)
	require.NoError(t, err)
	a.Title = "Walk"
	require.NoError(t, tx.Update(ctx, a))
	require.NoError(t, tx.Commit(ctx))
	require.NoError(t, tx.Rollback(ctx))

	got, err := r.FindByID(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, "Walk", got.Title)

	tx, err = r.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Remove(ctx, "1"))
	require.NoError(t, tx.Commit(ctx))

	_, err = r.FindByID(ctx, "1")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestActivityRepo_MissingIDs(t *testing.T) {
	r := openRepo(t)
	ctx := context.Background()

	tx, err := r.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	require.ErrorIs(t, tx.Update(ctx, activity("x", time.Now())), errs.ErrNotFound)
	require.ErrorIs(t, tx.Remove(ctx, "x"), errs.ErrNotFound)
}

func TestActivityRepo_CommitWithoutChanges(t *testing.T) {
	r := openRepo(t)
	ctx := context.Background()

	tx, err := r.Begin(ctx)
	require.NoError(t, err)
	require.ErrorIs(t, tx.Commit(ctx), errs.ErrNothingChanged)
	require.NoError(t, tx.Rollback(ctx))
}

func TestActivityRepo_RollbackDiscards(t *testing.T) {
	r := openRepo(t)
	ctx := context.Background()

	tx, err := r.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Add(ctx, activity("1", time.Now().UTC())))
	require.NoError(t, tx.Rollback(ctx))

	_, err = r.FindByID(ctx, "1")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestActivityRepo_DatesOutsideNanosecondRange(t *testing.T) {
	r := openRepo(t)
	ctx := context.Background()

	late := activity("late", time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC))
	early := activity("early", time.Date(1500, 6, 1, 12, 0, 0, 5000, time.UTC))
	mid := activity("mid", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	add(t, r, late)
	add(t, r, mid)
	add(t, r, early)

	got, err := r.FindByID(ctx, "late")
	require.NoError(t, err)
	require.Equal(t, late, *got)
	got, err = r.FindByID(ctx, "early")
	require.NoError(t, err)
	require.Equal(t, early, *got)

	list, err := r.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, []string{"early", "mid", "late"}, []string{list[0].ID, list[1].ID, list[2].ID})
}
