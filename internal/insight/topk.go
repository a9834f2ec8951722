package insight

import (
	"fmt"
	"sort"

	"chatbot-insights-go/internal/models"
)

// TopKItem is one frequency-ranked distinct value.
type TopKItem struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// TopKResult holds the k most frequent values plus the number of distinct
// values that did not fit, so callers can render "+N more" without a rescan.
type TopKResult struct {
	Items    []TopKItem `json:"items"`
	Overflow int        `json:"overflow"`
}

// TopK frequency-ranks field values (exact match) across records and returns
// the top k by count descending, ties broken by first-seen order. Empty field
// values are not counted. k must be at least 1.
func TopK(records []models.Message, field func(models.Message) string, k int) (TopKResult, error) {
	if k < 1 {
		return TopKResult{}, fmt.Errorf("%w: top-k requires k >= 1, got %d", ErrInvalidArgument, k)
	}

	counts := make(map[string]int)
	order := make([]string, 0)

	for _, m := range records {
		v := field(m)
		if v == "" {
			continue
		}
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}

	return rank(counts, order, k), nil
}

// TopKStrings is TopK over a plain value sequence, for fields already
// extracted (e.g. referral reasons gathered from thread rows).
func TopKStrings(values []string, k int) (TopKResult, error) {
	if k < 1 {
		return TopKResult{}, fmt.Errorf("%w: top-k requires k >= 1, got %d", ErrInvalidArgument, k)
	}

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}

	return rank(counts, order, k), nil
}

// GroupedTopK computes a two-level top-K: records are partitioned by the
// (outer, inner) key pair and field values ranked within each partition.
// Records with an empty outer or inner key are skipped.
func GroupedTopK(records []models.Message, groupKey func(models.Message) (string, string), field func(models.Message) string, k int) (map[string]map[string]TopKResult, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: top-k requires k >= 1, got %d", ErrInvalidArgument, k)
	}

	groups := make(map[string]map[string][]models.Message)
	for _, m := range records {
		outer, inner := groupKey(m)
		if outer == "" || inner == "" {
			continue
		}
		if groups[outer] == nil {
			groups[outer] = make(map[string][]models.Message)
		}
		groups[outer][inner] = append(groups[outer][inner], m)
	}

	out := make(map[string]map[string]TopKResult, len(groups))
	for outer, inner := range groups {
		out[outer] = make(map[string]TopKResult, len(inner))
		for name, grouped := range inner {
			res, err := TopK(grouped, field, k)
			if err != nil {
				return nil, err
			}
			out[outer][name] = res
		}
	}
	return out, nil
}

// rank orders distinct values by count descending with first-seen tie-break
// and truncates to k.
func rank(counts map[string]int, order []string, k int) TopKResult {
	firstSeen := make(map[string]int, len(order))
	for i, v := range order {
		firstSeen[v] = i
	}

	sorted := make([]string, len(order))
	copy(sorted, order)
	sort.SliceStable(sorted, func(i, j int) bool {
		if counts[sorted[i]] != counts[sorted[j]] {
			return counts[sorted[i]] > counts[sorted[j]]
		}
		return firstSeen[sorted[i]] < firstSeen[sorted[j]]
	})

	distinct := len(sorted)
	if len(sorted) > k {
		sorted = sorted[:k]
	}

	items := make([]TopKItem, 0, len(sorted))
	for _, v := range sorted {
		items = append(items, TopKItem{Value: v, Count: counts[v]})
	}

	overflow := distinct - len(items)
	if overflow < 0 {
		overflow = 0
	}
	return TopKResult{Items: items, Overflow: overflow}
}
