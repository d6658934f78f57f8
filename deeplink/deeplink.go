// Package deeplink mirrors the selected project into a query-style reference
// (p=<id>) and turns external changes of that reference back into store
// actions. The store stays authoritative.
package deeplink

import (
	"net/url"

	"github.com/teranos/orrery/store"
)

// Param is the query key that carries the selected project.
const Param = "p"

// Query projects s into query values. Only project and exploration views
// carry a reference; every other view yields an empty set.
func Query(s store.Snapshot) url.Values {
	q := url.Values{}
	if s.SelectedProject == "" {
		return q
	}
	switch s.View {
	case store.Project, store.Exploration:
		q.Set(Param, s.SelectedProject)
	}
	return q
}

// Apply handles an external navigation that moved the reference from prev
// to next, e.g. browser history. Removing p while a project is open closes
// it; adding or changing p opens that project. Unknown ids are dropped by
// the store, which records the trip.
func Apply(s *store.Store, prev, next url.Values) {
	before, after := prev.Get(Param), next.Get(Param)
	if before == after {
		return
	}

	snap := s.Snapshot()
	if after == "" {
		switch snap.View {
		case store.Exploration:
			s.ExitExploration()
		case store.Project:
			s.ZoomOut()
		}
		return
	}
	if snap.SelectedProject == after && (snap.View == store.Project || snap.View == store.Exploration) {
		return
	}
	s.ZoomToProject(after)
}

// Mirror keeps the last published reference so the host can tell its own
// writes apart from external navigation.
type Mirror struct {
	last url.Values
}

// NewMirror starts with no reference published.
func NewMirror() *Mirror {
	return &Mirror{last: url.Values{}}
}

// Sync projects s and reports the encoded query when it differs from the
// last one published.
func (m *Mirror) Sync(s store.Snapshot) (string, bool) {
	q := Query(s)
	if q.Get(Param) == m.last.Get(Param) {
		return q.Encode(), false
	}
	m.last = q
	return q.Encode(), true
}

// Navigate applies an externally changed raw query. Malformed queries are
// treated as carrying no reference.
func (m *Mirror) Navigate(s *store.Store, raw string) {
	next, err := url.ParseQuery(raw)
	if err != nil {
		next = url.Values{}
	}
	Apply(s, m.last, next)
	m.last = Query(s.Snapshot())
}

// Current returns the last published query.
func (m *Mirror) Current() string {
	return m.last.Encode()
}
