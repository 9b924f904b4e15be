package listquery

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

const dateOnly = "2006-01-02"

// ParseParams reads the conventional query parameters used by stateless
// list endpoints:
//
//	q            search term
//	filter.NAME  categorical filter value, repeatable per name
//	range        relative window: 7d, 30d, or 90d
//	from, to     custom bounds, RFC 3339 or YYYY-MM-DD
//	sort, dir    sort key and asc|desc
//	page, per_page
//
// Unknown or malformed values are dropped rather than erroring; a list view
// with a bad query string renders unfiltered instead of failing.
func ParseParams(values url.Values) Params {
	p := Params{Search: values.Get("q")}

	for key := range values {
		if name, ok := strings.CutPrefix(key, "filter."); ok && name != "" {
			if v := values.Get(key); v != "" {
				if p.Filters == nil {
					p.Filters = make(map[string]string)
				}
				p.Filters[name] = v
			}
		}
	}

	if preset := RangePreset(values.Get("range")); preset != PresetNone && preset.Valid() {
		p.Dates.Preset = preset
	} else {
		p.Dates.Start = parseTime(values.Get("from"), false)
		p.Dates.End = parseTime(values.Get("to"), true)
	}

	p.SortKey = values.Get("sort")
	if values.Get("dir") == string(Desc) {
		p.SortDir = Desc
	}

	if n, err := strconv.Atoi(values.Get("page")); err == nil {
		p.Page = n
	}
	if n, err := strconv.Atoi(values.Get("per_page")); err == nil {
		p.PerPage = n
	}
	return p
}

// parseTime accepts RFC 3339 or a bare date. A bare date used as an upper
// bound covers that whole day.
func parseTime(s string, upper bool) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	t, err := time.Parse(dateOnly, s)
	if err != nil {
		return time.Time{}
	}
	if upper {
		return t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return t
}
