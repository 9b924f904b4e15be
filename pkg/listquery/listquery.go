// Package listquery implements the shared list controller used by every
// paged view on the platform: conjunctive categorical filters,
// case-insensitive substring search over a fixed set of text fields,
// relative and custom date ranges, single-key locale-aware sorting, and
// pagination with clamping.
//
// Apply is stateless; State adds the owned mutable query state for views
// that persist their settings, with setters as the only mutation path.
package listquery

import (
	"sort"
	"strings"
	"time"
)

// Pagination defaults. Views may ask for fewer items per page but never
// more than MaxPerPage.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// SortDir orders a sort key ascending or descending.
type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// RangePreset names a relative date window ending at evaluation time.
type RangePreset string

const (
	PresetNone   RangePreset = ""
	Preset7Days  RangePreset = "7d"
	Preset30Days RangePreset = "30d"
	Preset90Days RangePreset = "90d"
)

// days returns the preset's window length, or 0 for no preset.
func (p RangePreset) days() int {
	switch p {
	case Preset7Days:
		return 7
	case Preset30Days:
		return 30
	case Preset90Days:
		return 90
	}
	return 0
}

// Valid reports whether the preset is one of the known windows or none.
func (p RangePreset) Valid() bool {
	return p == PresetNone || p.days() > 0
}

// DateRange restricts items by their timestamp field. A preset wins over
// custom bounds and is computed against "now" at evaluation time, so the
// same stored range stays relative. A custom range needs both bounds; with
// only one set it filters nothing.
type DateRange struct {
	Preset RangePreset `json:"preset,omitempty"`
	Start  time.Time   `json:"start,omitempty"`
	End    time.Time   `json:"end,omitempty"`
}

// bounds resolves the range to inclusive absolute bounds. ok=false means
// the range filters nothing.
func (r DateRange) bounds(now time.Time) (start, end time.Time, ok bool) {
	if d := r.Preset.days(); d > 0 {
		return now.AddDate(0, 0, -d), now, true
	}
	if r.Start.IsZero() || r.End.IsZero() {
		return time.Time{}, time.Time{}, false
	}
	return r.Start, r.End, true
}

// Params captures one evaluation of a list query.
type Params struct {
	Search  string            `json:"search,omitempty"`
	Filters map[string]string `json:"filters,omitempty"`
	Dates   DateRange         `json:"dates,omitempty"`
	SortKey string            `json:"sort,omitempty"`
	SortDir SortDir           `json:"dir,omitempty"`
	Page    int               `json:"page,omitempty"`
	PerPage int               `json:"per_page,omitempty"`
}

// FilterFunc reports whether an item matches one categorical filter value.
type FilterFunc[T any] func(item T, value string) bool

// LessFunc orders two items under one sort key.
type LessFunc[T any] func(a, b T) bool

// Schema describes how one list view searches, filters, and sorts its item
// type. A nil field disables that behavior for the view.
type Schema[T any] struct {
	// SearchText returns the fixed text fields the search term matches
	// against, case-insensitively, any-of.
	SearchText func(T) []string

	// Filters maps filter names to predicates. Every active filter must
	// match for an item to survive. Unknown filter names in Params are
	// ignored.
	Filters map[string]FilterFunc[T]

	// Date extracts the timestamp the date range applies to.
	Date func(T) time.Time

	// Sorts maps sort keys to orderings. Exactly one key is active per
	// evaluation.
	Sorts map[string]LessFunc[T]

	// DefaultSort is used when Params names no sort key, or an unknown one.
	DefaultSort string
}

// Result is one evaluated page plus the metadata a view needs to render
// pagination. Clamped is set when the requested page was out of range and
// the effective Page differs from what was asked for.
type Result[T any] struct {
	Items      []T  `json:"items"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalItems int  `json:"total_items"`
	TotalPages int  `json:"total_pages"`
	Clamped    bool `json:"clamped,omitempty"`
}

// Apply evaluates params over items: filter (search AND categorical AND
// date range), then sort by the single active key, then cut one page.
// The input slice is not modified. now anchors relative date presets.
func Apply[T any](items []T, p Params, s Schema[T], now time.Time) Result[T] {
	search := strings.ToLower(strings.TrimSpace(p.Search))
	start, end, dateActive := p.Dates.bounds(now)

	filtered := make([]T, 0, len(items))
	for _, item := range items {
		if search != "" && s.SearchText != nil && !matchesSearch(s.SearchText(item), search) {
			continue
		}
		if !matchesFilters(item, p.Filters, s.Filters) {
			continue
		}
		if dateActive && s.Date != nil {
			ts := s.Date(item)
			if ts.Before(start) || ts.After(end) {
				continue
			}
		}
		filtered = append(filtered, item)
	}

	sortItems(filtered, p, s)

	perPage := p.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	total := len(filtered)
	totalPages := (total + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}

	page := p.Page
	clamped := false
	if page < 1 {
		page = 1
		clamped = p.Page != 0 // page 0 means "unset", not a bad request
	}
	if page > totalPages {
		page = totalPages
		clamped = true
	}

	lo := (page - 1) * perPage
	hi := min(lo+perPage, total)
	if lo > total {
		lo, hi = total, total
	}

	return Result[T]{
		Items:      filtered[lo:hi],
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
		Clamped:    clamped,
	}
}

func matchesSearch(fields []string, search string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

func matchesFilters[T any](item T, active map[string]string, fns map[string]FilterFunc[T]) bool {
	for name, value := range active {
		if value == "" {
			continue
		}
		fn, ok := fns[name]
		if !ok {
			continue
		}
		if !fn(item, value) {
			return false
		}
	}
	return true
}

// sortItems sorts in place by the active key. The sort is stable so equal
// keys keep their input order.
func sortItems[T any](items []T, p Params, s Schema[T]) {
	key := p.SortKey
	less, ok := s.Sorts[key]
	if !ok {
		less = s.Sorts[s.DefaultSort]
	}
	if less == nil {
		return
	}
	if p.SortDir == Desc {
		sort.SliceStable(items, func(i, j int) bool { return less(items[j], items[i]) })
		return
	}
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
}
