package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/and161185/activities/internal/errs"
	"github.com/and161185/activities/internal/model"
	"github.com/and161185/activities/internal/repository"
)

// fakeRepo is an in-memory repository. Writes are staged per tx and applied on Commit.
type fakeRepo struct {
	mu   sync.Mutex
	data map[string]model.Activity

	beginErr  error
	listErr   error
	commitErr error
	commits   int
}

var _ repository.Repository = (*fakeRepo)(nil)

func newFakeRepo(seed ...model.Activity) *fakeRepo {
	f := &fakeRepo{data: map[string]model.Activity{}}
	for _, a := range seed {
		f.data[a.ID] = a
	}
	return f
}

func (f *fakeRepo) snapshot() map[string]model.Activity {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]model.Activity, len(f.data))
	for k, v := range f.data {
		out[k] = v
	}
	return out
}

func (f *fakeRepo) FindByID(_ context.Context, id string) (*model.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.data[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &a, nil
}

func (f *fakeRepo) ListAll(context.Context) ([]model.Activity, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Activity, 0, len(f.data))
	for _, a := range f.data {
		out = append(out, a)
	}
	// map order is random; leave it unsorted on purpose
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeRepo) Begin(context.Context) (repository.Tx, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	return &fakeTx{repo: f}, nil
}

type fakeOp struct {
	remove bool
	a      model.Activity
	id     string
}

type fakeTx struct {
	repo *fakeRepo
	ops  []fakeOp
	done bool
}

func (t *fakeTx) FindByID(ctx context.Context, id string) (*model.Activity, error) {
	return t.repo.FindByID(ctx, id)
}

func (t *fakeTx) Add(_ context.Context, a model.Activity) error {
	t.ops = append(t.ops, fakeOp{a: a, id: a.ID})
	return nil
}

func (t *fakeTx) Update(_ context.Context, a model.Activity) error {
	t.ops = append(t.ops, fakeOp{a: a, id: a.ID})
	return nil
}

func (t *fakeTx) Remove(_ context.Context, id string) error {
	t.ops = append(t.ops, fakeOp{remove: true, id: id})
	return nil
}

func (t *fakeTx) Commit(context.Context) error {
	if t.done {
		return errors.New("tx done")
	}
	t.done = true
	if t.repo.commitErr != nil {
		return t.repo.commitErr
	}
	if len(t.ops) == 0 {
		return errs.ErrNothingChanged
	}
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	for _, op := range t.ops {
		if op.remove {
			delete(t.repo.data, op.id)
			continue
		}
		t.repo.data[op.id] = op.a
	}
	t.repo.commits++
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.done = true
	return nil
}
