package insight

import (
	"strings"

	"chatbot-insights-go/internal/models"
)

// Filter is a structurally optional set of record predicates. An absent
// (empty string) value imposes no constraint; all present filters are ANDed.
type Filter struct {
	StartDate  string // inclusive, YYYY-MM-DD; empty = unbounded
	EndDate    string // inclusive, YYYY-MM-DD; empty = unbounded
	Search     string // case-insensitive substring match on text
	Category   string
	Intent     string
	Sentiment  string
	Product    string
	SenderType string
	ThreadID   string // exact match, single-thread view

	ExcludeEmpty bool // drop messages whose text is blank

	// Carried alongside for the sorter; not part of the predicate.
	SortKey string
	SortDir Direction
}

// Normalize enforces the dependent-field reset policy: when a category is
// selected, an intent that does not belong to that category's subcategory
// set is cleared rather than silently ignored. subsByCategory maps a
// category to its valid intents.
func Normalize(f Filter, subsByCategory map[string][]string) Filter {
	if f.Category == "" || f.Intent == "" {
		return f
	}
	for _, sub := range subsByCategory[f.Category] {
		if sub == f.Intent {
			return f
		}
	}
	f.Intent = ""
	return f
}

// Compile builds a predicate from the filter spec.
func Compile(f Filter) func(models.Message) bool {
	search := strings.ToLower(f.Search)

	return func(m models.Message) bool {
		if f.StartDate != "" && m.Date < f.StartDate {
			return false
		}
		if f.EndDate != "" && m.Date > f.EndDate {
			return false
		}
		if f.ThreadID != "" && m.ThreadID != f.ThreadID {
			return false
		}
		if f.SenderType != "" && m.SenderType != f.SenderType {
			return false
		}
		if f.Category != "" && deref(m.Category) != f.Category {
			return false
		}
		if f.Intent != "" && deref(m.Intent) != f.Intent {
			return false
		}
		if f.Sentiment != "" && deref(m.Sentiment) != f.Sentiment {
			return false
		}
		if f.Product != "" && deref(m.Product) != f.Product {
			return false
		}
		if search != "" && !strings.Contains(strings.ToLower(m.Text), search) {
			return false
		}
		// Empty means a zero-length text, the same rule BuildThreads uses
		// for HasEmptyMessage. Whitespace-only texts stay in.
		if f.ExcludeEmpty && m.Text == "" {
			return false
		}
		return true
	}
}

// Apply returns the records matching the filter, preserving input order.
func Apply(records []models.Message, f Filter) []models.Message {
	match := Compile(f)
	out := make([]models.Message, 0, len(records))
	for _, m := range records {
		if match(m) {
			out = append(out, m)
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
