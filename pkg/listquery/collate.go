package listquery

import (
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// CollateStrings builds a LessFunc that orders a string field with
// locale-aware collation rather than byte order, so names like "Ängström"
// sort where people expect. Collators are not safe for concurrent use, so
// the comparison is serialized; list views sort small in-memory slices and
// never notice.
func CollateStrings[T any](tag language.Tag, field func(T) string) LessFunc[T] {
	var mu sync.Mutex
	c := collate.New(tag, collate.IgnoreCase)
	return func(a, b T) bool {
		mu.Lock()
		defer mu.Unlock()
		return c.CompareString(field(a), field(b)) < 0
	}
}

// ByTime builds a LessFunc ordering by a timestamp field, oldest first.
func ByTime[T any](field func(T) time.Time) LessFunc[T] {
	return func(a, b T) bool {
		return field(a).Before(field(b))
	}
}

// ByInt builds a LessFunc ordering by an integer field, smallest first.
func ByInt[T any](field func(T) int) LessFunc[T] {
	return func(a, b T) bool {
		return field(a) < field(b)
	}
}
