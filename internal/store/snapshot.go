package store

import (
	"sort"

	"github.com/and161185/activities/internal/api"
)

// Group holds the activities of one calendar day (UTC, "2006-01-02").
type Group struct {
	Day        string
	Activities []api.ActivityDTO
}

// Snapshot is an immutable view of the store.
type Snapshot struct {
	Activities     []api.ActivityDTO // ordered by date, then id
	Groups         []Group
	Selected       *api.ActivityDTO
	Submitting     bool
	Target         string
	LoadingInitial bool
	Err            error
}

// Snapshot returns the current state with derived views.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]api.ActivityDTO, 0, len(s.registry))
	for _, a := range s.registry {
		all = append(all, a.Clone())
	}
	sortByDate(all)

	snap := Snapshot{
		Activities:     all,
		Groups:         groupByDay(all),
		Submitting:     s.inflight > 0,
		Target:         s.target,
		LoadingInitial: s.loadingInitial,
		Err:            s.err,
	}
	if a, ok := s.registry[s.selected]; ok {
		sel := a.Clone()
		snap.Selected = &sel
	}
	return snap
}

// ByDate returns the cached activities ordered by date, then id.
func (s *Store) ByDate() []api.ActivityDTO { return s.Snapshot().Activities }

// Grouped returns ByDate grouped by calendar day.
func (s *Store) Grouped() []Group { return s.Snapshot().Groups }

func sortByDate(as []api.ActivityDTO) {
	sort.Slice(as, func(i, j int) bool {
		if !as[i].Date.Equal(as[j].Date.Time) {
			return as[i].Date.Before(as[j].Date.Time)
		}
		return as[i].ID < as[j].ID
	})
}

// groupByDay expects sorted input.
func groupByDay(sorted []api.ActivityDTO) []Group {
	groups := []Group{}
	for _, a := range sorted {
		day := a.Date.UTC().Format("2006-01-02")
		if n := len(groups); n > 0 && groups[n-1].Day == day {
			groups[n-1].Activities = append(groups[n-1].Activities, a)
			continue
		}
		groups = append(groups, Group{Day: day, Activities: []api.ActivityDTO{a}})
	}
	return groups
}
