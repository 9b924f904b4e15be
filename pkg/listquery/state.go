package listquery

import (
	"encoding/json"
	"sync"
)

// State is the owned, mutable query state behind a stateful list view
// (saved report views, for example). Setters are the only mutation path.
// Every setter that changes what the list contains (search, filters, date
// range, sort, page size) resets the page to 1, so a reshaped result set
// is never viewed at a stale offset. Only SetPage moves the page.
type State struct {
	mu     sync.Mutex
	params Params
}

// NewState creates a State from initial params. A zero Params is a valid
// empty query on page 1.
func NewState(initial Params) *State {
	if initial.Page < 1 {
		initial.Page = 1
	}
	if initial.Filters == nil {
		initial.Filters = make(map[string]string)
	}
	return &State{params: initial}
}

// Params returns a snapshot safe to hand to Apply.
func (s *State) Params() Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// SetSearch replaces the search term and resets to page 1.
func (s *State) SetSearch(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.Search = q
	s.params.Page = 1
}

// SetFilter sets one categorical filter and resets to page 1. An empty
// value clears the filter.
func (s *State) SetFilter(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == "" {
		delete(s.params.Filters, name)
	} else {
		s.params.Filters[name] = value
	}
	s.params.Page = 1
}

// ClearFilter removes one categorical filter and resets to page 1.
func (s *State) ClearFilter(name string) {
	s.SetFilter(name, "")
}

// SetDateRange replaces the date range and resets to page 1.
func (s *State) SetDateRange(r DateRange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.Dates = r
	s.params.Page = 1
}

// SetSort replaces the sort key and direction and resets to page 1.
func (s *State) SetSort(key string, dir SortDir) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.SortKey = key
	s.params.SortDir = dir
	s.params.Page = 1
}

// SetPerPage changes the page size and resets to page 1.
func (s *State) SetPerPage(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.PerPage = n
	s.params.Page = 1
}

// SetPage moves to a page without touching anything else. Requests outside
// the valid range are stored as-is; Apply clamps and reports it.
func (s *State) SetPage(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if page < 1 {
		page = 1
	}
	s.params.Page = page
}

// MarshalJSON persists the current params, so saved views survive restarts.
func (s *State) MarshalJSON() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Marshal(s.copyLocked())
}

// UnmarshalJSON restores persisted params.
func (s *State) UnmarshalJSON(data []byte) error {
	var p Params
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Filters == nil {
		p.Filters = make(map[string]string)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = p
	return nil
}

// copyLocked deep-copies params. Callers must hold s.mu.
func (s *State) copyLocked() Params {
	out := s.params
	out.Filters = make(map[string]string, len(s.params.Filters))
	for k, v := range s.params.Filters {
		out.Filters[k] = v
	}
	return out
}
