package insight

import (
	"math"
	"sort"

	"chatbot-insights-go/internal/models"
)

// Uncategorized is the bucket for threads with no resolved category label.
const Uncategorized = "uncategorized"

// GroupKey selects one grouping dimension for Aggregate.
type GroupKey string

const (
	ByCategory GroupKey = "category"
	ByIntent   GroupKey = "intent"
	ByProduct  GroupKey = "product"
)

// SummaryRow is the materialized group-by result for one key tuple.
// Conversation-level fields count distinct threads; the rest count messages.
type SummaryRow struct {
	Category string `json:"category,omitempty"`
	Intent   string `json:"intent,omitempty"`
	Product  string `json:"product,omitempty"`

	UniqueConversations int `json:"unique_conversations"`
	TotalInteractions   int `json:"total_interactions"`
	HumanMsgs           int `json:"human_msgs"`
	AIMsgs              int `json:"ai_msgs"`
	ToolMsgs            int `json:"tool_msgs"`
	Positive            int `json:"positive"`
	Neutral             int `json:"neutral"`
	Negative            int `json:"negative"`
	Referrals           int `json:"referrals"`
}

// threadMeta is the per-thread label resolution: every message of a thread
// lands in the same summary row, so a 50-message thread contributes 1 to
// unique_conversations and 50 to total_interactions.
type threadMeta struct {
	category string
	intent   string
	product  string
	referral bool
}

// Aggregate groups records by the ordered tuple of keys and computes one
// SummaryRow per group. Group labels are resolved per thread (most frequent
// non-null label across the thread's messages, first seen wins ties);
// threads with no category label fall into the Uncategorized bucket.
func Aggregate(records []models.Message, keys ...GroupKey) []SummaryRow {
	if len(records) == 0 {
		return []SummaryRow{}
	}

	meta := resolveThreads(records)

	rows := make(map[string]*SummaryRow)
	order := make([]string, 0)
	countedThreads := make(map[string]bool)

	rowFor := func(m models.Message) *SummaryRow {
		tm := meta[m.ThreadID]
		id := ""
		row := SummaryRow{}
		for _, k := range keys {
			switch k {
			case ByCategory:
				row.Category = tm.category
				id += "c\x00" + tm.category + "\x00"
			case ByIntent:
				row.Intent = tm.intent
				id += "i\x00" + tm.intent + "\x00"
			case ByProduct:
				row.Product = tm.product
				id += "p\x00" + tm.product + "\x00"
			}
		}
		if existing, ok := rows[id]; ok {
			return existing
		}
		rows[id] = &row
		order = append(order, id)
		return &row
	}

	for _, m := range records {
		row := rowFor(m)
		row.TotalInteractions++

		switch m.SenderType {
		case models.SenderHuman:
			row.HumanMsgs++
			// Sentiment counts cover human messages with a label only.
			switch deref(m.Sentiment) {
			case models.SentimentPositive:
				row.Positive++
			case models.SentimentNeutral:
				row.Neutral++
			case models.SentimentNegative:
				row.Negative++
			}
		case models.SenderAI:
			row.AIMsgs++
		case models.SenderTool:
			row.ToolMsgs++
		}

		if !countedThreads[m.ThreadID] {
			countedThreads[m.ThreadID] = true
			row.UniqueConversations++
			if meta[m.ThreadID].referral {
				row.Referrals++
			}
		}
	}

	out := make([]SummaryRow, 0, len(order))
	for _, id := range order {
		out = append(out, *rows[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		if out[i].Intent != out[j].Intent {
			return out[i].Intent < out[j].Intent
		}
		return out[i].Product < out[j].Product
	})
	return out
}

// Collapse re-groups an already-aggregated result by category only, summing
// the finer rows' numeric fields. Summing grouped rows equals a direct
// aggregation at the coarser key.
func Collapse(rows []SummaryRow) []SummaryRow {
	merged := make(map[string]*SummaryRow)
	order := make([]string, 0)

	for _, r := range rows {
		row, ok := merged[r.Category]
		if !ok {
			row = &SummaryRow{Category: r.Category}
			merged[r.Category] = row
			order = append(order, r.Category)
		}
		addRow(row, r)
	}

	out := make([]SummaryRow, 0, len(order))
	for _, cat := range order {
		out = append(out, *merged[cat])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// Totals computes the column-wise sum across all rows, for footer rows.
func Totals(rows []SummaryRow) SummaryRow {
	var total SummaryRow
	for _, r := range rows {
		addRow(&total, r)
	}
	return total
}

func addRow(dst *SummaryRow, src SummaryRow) {
	dst.UniqueConversations += src.UniqueConversations
	dst.TotalInteractions += src.TotalInteractions
	dst.HumanMsgs += src.HumanMsgs
	dst.AIMsgs += src.AIMsgs
	dst.ToolMsgs += src.ToolMsgs
	dst.Positive += src.Positive
	dst.Neutral += src.Neutral
	dst.Negative += src.Negative
	dst.Referrals += src.Referrals
}

// Pct derives a percentage rounded to one decimal. A zero total yields 0,
// never NaN.
func Pct(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}

// resolveThreads assigns each thread its label tuple: the most frequent
// non-null value of each label across the thread's messages, ties broken by
// first appearance. Threads with no category label become Uncategorized.
func resolveThreads(records []models.Message) map[string]threadMeta {
	type tally struct {
		counts map[string]int
		order  []string
	}
	newTally := func() *tally { return &tally{counts: make(map[string]int)} }
	add := func(t *tally, v string) {
		if v == "" {
			return
		}
		if _, seen := t.counts[v]; !seen {
			t.order = append(t.order, v)
		}
		t.counts[v]++
	}
	mode := func(t *tally, fallback string) string {
		best, bestCount := fallback, 0
		for _, v := range t.order {
			if t.counts[v] > bestCount {
				best, bestCount = v, t.counts[v]
			}
		}
		return best
	}

	cats := make(map[string]*tally)
	intents := make(map[string]*tally)
	products := make(map[string]*tally)
	referrals := make(map[string]bool)
	threadOrder := make([]string, 0)

	for _, m := range records {
		if _, ok := cats[m.ThreadID]; !ok {
			cats[m.ThreadID] = newTally()
			intents[m.ThreadID] = newTally()
			products[m.ThreadID] = newTally()
			threadOrder = append(threadOrder, m.ThreadID)
		}
		add(cats[m.ThreadID], deref(m.Category))
		add(intents[m.ThreadID], deref(m.Intent))
		add(products[m.ThreadID], deref(m.Product))
		if m.IsReferral {
			referrals[m.ThreadID] = true
		}
	}

	meta := make(map[string]threadMeta, len(threadOrder))
	for _, tid := range threadOrder {
		meta[tid] = threadMeta{
			category: mode(cats[tid], Uncategorized),
			intent:   mode(intents[tid], ""),
			product:  mode(products[tid], ""),
			referral: referrals[tid],
		}
	}
	return meta
}
