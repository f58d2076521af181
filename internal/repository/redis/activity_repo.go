// Package redis stores activities as JSON values in Redis with a sorted date index.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/and161185/activities/internal/errs"
	"github.com/and161185/activities/internal/model"
	"github.com/and161185/activities/internal/repository"
)

var _ repository.Repository = (*ActivityRepo)(nil)

const (
	keyPrefix = "activity:"
	dateIndex = "activities:by_date"

	maxCommitRetries = 5
)

func activityKey(id string) string { return keyPrefix + id }

// record is the stored JSON shape.
type record struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Date        time.Time        `json:"date"`
	City        string           `json:"city"`
	Venue       string           `json:"venue"`
	Attendees   []model.Attendee `json:"attendees,omitempty"`
}

func toRecord(a model.Activity) record {
	return record(a)
}

func (r record) activity() model.Activity {
	a := model.Activity(r)
	a.Date = a.Date.UTC()
	return a
}

// ActivityRepo implements repository.Repository on a redis client.
type ActivityRepo struct {
	client redis.UniversalClient
}

// NewActivityRepo wraps an existing client.
func NewActivityRepo(client redis.UniversalClient) *ActivityRepo {
	return &ActivityRepo{client: client}
}

// Open connects to addr and verifies the connection.
func Open(ctx context.Context, addr string) (*ActivityRepo, *redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewActivityRepo(client), client, nil
}

// FindByID returns a single activity by id.
func (r *ActivityRepo) FindByID(ctx context.Context, id string) (*model.Activity, error) {
	return get(ctx, r.client, id)
}

// ListAll returns all indexed activities ordered by date, then id.
func (r *ActivityRepo) ListAll(ctx context.Context) ([]model.Activity, error) {
	ids, err := r.client.ZRange(ctx, dateIndex, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]model.Activity, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, activityKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, err
		}
		var rec record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, err
		}
		out = append(out, rec.activity())
	}
	// scores are milliseconds; finer dates and ties are ordered here
	sort.SliceStable(out, func(i, j int) bool { return model.Before(out[i], out[j]) })
	return out, nil
}

// Begin starts a staged unit of work applied by Commit in a WATCH transaction.
func (r *ActivityRepo) Begin(context.Context) (repository.Tx, error) {
	return &activityTx{client: r.client, staged: map[string]*op{}}, nil
}

type opKind int

const (
	opAdd opKind = iota + 1
	opUpdate
	opRemove
)

type op struct {
	kind opKind
	id   string
	a    model.Activity
}

type activityTx struct {
	client redis.UniversalClient
	ops    []*op
	staged map[string]*op
	done   bool
}

func (t *activityTx) FindByID(ctx context.Context, id string) (*model.Activity, error) {
	if o, ok := t.staged[id]; ok {
		if o.kind == opRemove {
			return nil, errs.ErrNotFound
		}
		a := o.a
		return &a, nil
	}
	return get(ctx, t.client, id)
}

func (t *activityTx) Add(_ context.Context, a model.Activity) error {
	if o, ok := t.staged[a.ID]; ok && o.kind != opRemove {
		return fmt.Errorf("activity %s: %w", a.ID, errs.ErrAlreadyExists)
	}
	t.stage(&op{kind: opAdd, id: a.ID, a: a})
	return nil
}

func (t *activityTx) Update(_ context.Context, a model.Activity) error {
	if o, ok := t.staged[a.ID]; ok && o.kind == opRemove {
		return fmt.Errorf("activity %s: %w", a.ID, errs.ErrNotFound)
	}
	t.stage(&op{kind: opUpdate, id: a.ID, a: a})
	return nil
}

func (t *activityTx) Remove(_ context.Context, id string) error {
	if o, ok := t.staged[id]; ok && o.kind == opRemove {
		return fmt.Errorf("activity %s: %w", id, errs.ErrNotFound)
	}
	t.stage(&op{kind: opRemove, id: id})
	return nil
}

func (t *activityTx) stage(o *op) {
	t.ops = append(t.ops, o)
	t.staged[o.id] = o
}

// Commit applies the staged operations in order inside a MULTI block guarded by
// WATCH on every touched key; a concurrent write restarts the attempt.
func (t *activityTx) Commit(ctx context.Context) error {
	if t.done {
		return errors.New("redis tx: already done")
	}
	t.done = true
	if len(t.ops) == 0 {
		return errs.ErrNothingChanged
	}

	keys := make([]string, 0, len(t.staged))
	for id := range t.staged {
		keys = append(keys, activityKey(id))
	}

	for i := 0; i < maxCommitRetries; i++ {
		err := t.client.Watch(ctx, func(tx *redis.Tx) error { return t.apply(ctx, tx) }, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("redis tx: %w", redis.TxFailedErr)
}

func (t *activityTx) apply(ctx context.Context, tx *redis.Tx) error {
	exists := map[string]bool{}
	for id := range t.staged {
		n, err := tx.Exists(ctx, activityKey(id)).Result()
		if err != nil {
			return err
		}
		exists[id] = n == 1
	}
	// replay preconditions against the watched state
	for _, o := range t.ops {
		switch o.kind {
		case opAdd:
			if exists[o.id] {
				return fmt.Errorf("activity %s: %w", o.id, errs.ErrAlreadyExists)
			}
			exists[o.id] = true
		case opUpdate:
			if !exists[o.id] {
				return fmt.Errorf("activity %s: %w", o.id, errs.ErrNotFound)
			}
		case opRemove:
			if !exists[o.id] {
				return fmt.Errorf("activity %s: %w", o.id, errs.ErrNotFound)
			}
			exists[o.id] = false
		}
	}

	payloads := make([][]byte, len(t.ops))
	for i, o := range t.ops {
		if o.kind == opRemove {
			continue
		}
		data, err := json.Marshal(toRecord(o.a))
		if err != nil {
			return err
		}
		payloads[i] = data
	}

	_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, o := range t.ops {
			key := activityKey(o.id)
			if o.kind == opRemove {
				pipe.Del(ctx, key)
				pipe.ZRem(ctx, dateIndex, o.id)
				continue
			}
			pipe.Set(ctx, key, payloads[i], 0)
			pipe.ZAdd(ctx, dateIndex, &redis.Z{Score: float64(o.a.Date.UnixMilli()), Member: o.id})
		}
		return nil
	})
	return err
}

func (t *activityTx) Rollback(context.Context) error {
	t.done = true
	t.ops, t.staged = nil, map[string]*op{}
	return nil
}

func get(ctx context.Context, c redis.Cmdable, id string) (*model.Activity, error) {
	data, err := c.Get(ctx, activityKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode activity %s: %w", id, err)
	}
	a := rec.activity()
	return &a, nil
}
