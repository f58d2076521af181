// Package store keeps the client-side activity cache, applies optimistic
// updates around agent calls and notifies subscribers of every change.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/activities/internal/api"
)

// ErrClosed is returned by actions on a closed store.
var ErrClosed = errors.New("store: closed")

// Agent is the transport the store reconciles against.
type Agent interface {
	List(ctx context.Context) ([]api.ActivityDTO, error)
	Details(ctx context.Context, id string) (api.ActivityDTO, error)
	Create(ctx context.Context, a api.ActivityDTO) error
	Update(ctx context.Context, a api.ActivityDTO) error
	Delete(ctx context.Context, id string) error
}

// Store owns one id -> activity mapping and the transient UI flags.
// Create one per session and Close it at session end.
type Store struct {
	agent Agent
	log   *zap.Logger

	mu             sync.Mutex
	registry       map[string]api.ActivityDTO
	selected       string
	inflight       int
	target         string
	loadingInitial bool
	err            error
	closed         bool

	subsMu  sync.Mutex // serialises notifications
	subs    map[int]func(Snapshot)
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to zap.NewNop().
func WithLogger(l *zap.Logger) Option { return func(s *Store) { s.log = l } }

// New creates an empty store over agent.
func New(agent Agent, opts ...Option) *Store {
	s := &Store{
		agent:    agent,
		log:      zap.NewNop(),
		registry: map[string]api.ActivityDTO{},
		subs:     map[int]func(Snapshot){},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewID returns a fresh client-side activity id.
func NewID() string { return uuid.Must(uuid.NewV4()).String() }

// Close discards the cache and all subscribers.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.registry = map[string]api.ActivityDTO{}
	s.selected, s.target = "", ""
	s.mu.Unlock()

	s.subsMu.Lock()
	s.subs = map[int]func(Snapshot){}
	s.subsMu.Unlock()
}

// Subscribe registers fn and immediately calls it with the current state.
// Calls are serialised and each carries the state current at delivery time.
// fn must not call store actions synchronously.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	fn(s.Snapshot())
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
		})
	}
}

func (s *Store) notify() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if len(s.subs) == 0 {
		return
	}
	snap := s.Snapshot()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		s.subs[id](snap)
	}
}

// Get returns a cached activity.
func (s *Store) Get(id string) (api.ActivityDTO, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.registry[id]
	return a.Clone(), ok
}

// Select marks a cached activity as selected. It reports false when id is not cached.
func (s *Store) Select(id string) bool {
	s.mu.Lock()
	_, ok := s.registry[id]
	if ok {
		s.selected = id
	}
	s.mu.Unlock()
	if ok {
		s.notify()
	}
	return ok
}

// ClearSelection drops the selection.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	s.selected = ""
	s.mu.Unlock()
	s.notify()
}

// LoadAll replaces the cache with the server collection. On failure the cache
// is left empty and the error is recorded.
func (s *Store) LoadAll(ctx context.Context) error {
	if !s.begin(func() { s.loadingInitial = true }) {
		return ErrClosed
	}
	list, err := s.agent.List(ctx)

	s.mu.Lock()
	s.loadingInitial = false
	s.registry = make(map[string]api.ActivityDTO, len(list))
	if err != nil {
		s.err = err
	} else if !s.closed {
		for _, a := range list {
			s.registry[a.ID] = a.Clone()
		}
	}
	if _, ok := s.registry[s.selected]; !ok {
		s.selected = ""
	}
	s.mu.Unlock()
	s.notify()
	return err
}

// LoadOne returns the activity and selects it. A cached entry is returned
// without a network call.
func (s *Store) LoadOne(ctx context.Context, id string) (api.ActivityDTO, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return api.ActivityDTO{}, ErrClosed
	}
	if a, ok := s.registry[id]; ok {
		s.selected = id
		s.mu.Unlock()
		s.notify()
		return a.Clone(), nil
	}
	s.mu.Unlock()

	if !s.begin(func() { s.loadingInitial = true }) {
		return api.ActivityDTO{}, ErrClosed
	}
	a, err := s.agent.Details(ctx, id)

	s.mu.Lock()
	s.loadingInitial = false
	if err != nil {
		s.err = err
	} else if !s.closed {
		s.registry[a.ID] = a.Clone()
		s.selected = a.ID
	}
	s.mu.Unlock()
	s.notify()
	if err != nil {
		return api.ActivityDTO{}, err
	}
	return a, nil
}

// Create inserts the activity optimistically and posts it. A blank id is replaced with
// NewID. On failure the cache entry for the id is restored to its prior state.
func (s *Store) Create(ctx context.Context, a api.ActivityDTO) (api.ActivityDTO, error) {
	if a.ID == "" {
		a.ID = NewID()
	}
	a = a.Clone()
	next := a.Clone()
	err := s.mutate(ctx, a.ID, &next, func(ctx context.Context) error { return s.agent.Create(ctx, a) })
	if err != nil {
		return api.ActivityDTO{}, err
	}
	return a, nil
}

// Edit replaces the cached entry optimistically and puts it. On failure the
// exact pre-edit value is restored. Nil attendees are sent as-is so the server
// keeps its list, and the cached list is carried over to match.
func (s *Store) Edit(ctx context.Context, a api.ActivityDTO) error {
	a = a.Clone()
	next := a.Clone()
	return s.mutate(ctx, a.ID, &next, func(ctx context.Context) error { return s.agent.Update(ctx, a) })
}

// Delete removes the activity on the server, then from the cache. A failed
// delete leaves the cached entry in place.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.mutate(ctx, id, nil, func(ctx context.Context) error { return s.agent.Delete(ctx, id) })
}

// mutate runs the snapshot, apply, call, restore protocol for one id. A nil
// next skips the optimistic apply; the entry is removed only after success.
func (s *Store) mutate(ctx context.Context, id string, next *api.ActivityDTO, call func(context.Context) error) error {
	var (
		prev    api.ActivityDTO
		existed bool
	)
	ok := s.begin(func() {
		prev, existed = s.registry[id]
		if next != nil {
			if next.Attendees == nil && existed {
				next.Attendees = prev.Clone().Attendees
			}
			s.registry[id] = *next
		}
		s.inflight++
		s.target = id
	})
	if !ok {
		return ErrClosed
	}

	err := call(ctx)

	s.mu.Lock()
	s.inflight--
	if s.target == id {
		s.target = ""
	}
	switch {
	case s.closed:
	case err != nil:
		s.err = err
		if next != nil {
			if existed {
				s.registry[id] = prev
			} else {
				delete(s.registry, id)
			}
			s.log.Debug("rolled back optimistic change", zap.String("id", id), zap.Error(err))
		}
	case next == nil:
		delete(s.registry, id)
		if s.selected == id {
			s.selected = ""
		}
	default:
		s.registry[id] = *next
		s.selected = id
	}
	s.mu.Unlock()
	s.notify()
	return err
}

// begin clears the last error and applies fn under the lock, then notifies.
func (s *Store) begin(fn func()) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.err = nil
	fn()
	s.mu.Unlock()
	s.notify()
	return true
}
