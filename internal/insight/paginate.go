package insight

import (
	"fmt"
	"sort"

	"chatbot-insights-go/internal/models"
)

// Direction is a sort direction.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ToggleDirection implements click-to-toggle sort semantics: selecting a new
// key starts at the component's default direction; selecting the same key
// again flips it.
func ToggleDirection(prevKey, key string, prevDir, defaultDir Direction) Direction {
	if key != prevKey {
		return defaultDir
	}
	if prevDir == Ascending {
		return Descending
	}
	return Ascending
}

// Message sort keys accepted by SortMessages.
const (
	SortByDate       = "date"
	SortByThread     = "thread_id"
	SortBySender     = "sender_type"
	SortByCategory   = "category"
	SortByIntent     = "intent"
	SortBySentiment  = "sentiment"
	SortByTextLength = "text_length"
	SortBySeq        = "seq"
	SortByHour       = "hour"
)

// SortMessages stably sorts records by the named key. String fields compare
// lexicographically with nil labels as empty strings; numeric fields compare
// numerically. An unknown key is a caller bug.
func SortMessages(records []models.Message, key string, dir Direction) ([]models.Message, error) {
	var less func(a, b models.Message) bool

	switch key {
	case SortByDate:
		less = func(a, b models.Message) bool { return a.Date < b.Date }
	case SortByThread:
		less = func(a, b models.Message) bool { return a.ThreadID < b.ThreadID }
	case SortBySender:
		less = func(a, b models.Message) bool { return a.SenderType < b.SenderType }
	case SortByCategory:
		less = func(a, b models.Message) bool { return deref(a.Category) < deref(b.Category) }
	case SortByIntent:
		less = func(a, b models.Message) bool { return deref(a.Intent) < deref(b.Intent) }
	case SortBySentiment:
		less = func(a, b models.Message) bool { return deref(a.Sentiment) < deref(b.Sentiment) }
	case SortByTextLength:
		less = func(a, b models.Message) bool { return len(a.Text) < len(b.Text) }
	case SortBySeq:
		less = func(a, b models.Message) bool { return a.Seq < b.Seq }
	case SortByHour:
		less = func(a, b models.Message) bool { return a.Hour < b.Hour }
	default:
		return nil, fmt.Errorf("%w: unknown sort key %q", ErrInvalidArgument, key)
	}

	return SortBy(records, less, dir), nil
}

// SortBy returns a stably sorted copy; the input slice is left untouched.
func SortBy[T any](items []T, less func(a, b T) bool, dir Direction) []T {
	out := make([]T, len(items))
	copy(out, items)
	if dir == Descending {
		sort.SliceStable(out, func(i, j int) bool { return less(out[j], out[i]) })
	} else {
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	}
	return out
}

// Page is one fixed-size slice of a result set plus the full set's size.
type Page[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

// Paginate slices items into 1-indexed fixed-size pages. A page beyond the
// last valid one yields an empty page with the correct total. pageSize must
// be positive.
func Paginate[T any](items []T, page, pageSize int) (Page[T], error) {
	if pageSize <= 0 {
		return Page[T]{}, fmt.Errorf("%w: page size must be positive, got %d", ErrInvalidArgument, pageSize)
	}
	if page < 1 {
		page = 1
	}

	total := len(items)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	data := make([]T, end-start)
	copy(data, items[start:end])
	return Page[T]{Data: data, Total: total}, nil
}
