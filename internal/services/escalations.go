package services

import (
	"context"
	"sort"
	"strings"

	"chatbot-insights-go/internal/insight"
	"chatbot-insights-go/internal/models"
)

// Escalation panels: conversations where the bot fell short and a person had
// to step in, or should have. Stats blocks are always computed over the whole
// filtered set, never over the returned page.

// FailureReason classifies why a conversation counts as a failure.
const (
	FailureIncapacity = "incapacity"
	FailureRepetition = "repetition"
	FailureSentiment  = "negative_sentiment"
)

// FailureRow is one failed conversation with the criteria it tripped.
type FailureRow struct {
	insight.Thread
	Reasons []string `json:"reasons"`
}

// FailureStats summarizes the full filtered failure set.
type FailureStats struct {
	Total      int `json:"total"`
	Incapacity int `json:"incapacity"`
	Repetition int `json:"repetition"`
	Sentiment  int `json:"negative_sentiment"`
}

// FailuresResult is one page of failures plus whole-set stats.
type FailuresResult struct {
	Data  []FailureRow `json:"data"`
	Total int          `json:"total"`
	Stats FailureStats `json:"stats"`
}

// Failures answers the failed-conversation query. A conversation fails when
// the bot admits incapacity, the customer repeats the same message, or more
// than half of the customer's classified messages are negative.
func (s *PanelService) Failures(ctx context.Context, r DateRange, page, pageSize int) (*FailuresResult, error) {
	if pageSize == 0 {
		pageSize = s.cfg.Query.DefaultPageSize
	}

	records, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	filtered := insight.Apply(records, r.filter())

	byThread := make(map[string][]models.Message)
	var order []string
	for _, m := range filtered {
		if _, ok := byThread[m.ThreadID]; !ok {
			order = append(order, m.ThreadID)
		}
		byThread[m.ThreadID] = append(byThread[m.ThreadID], m)
	}

	threads := insight.BuildThreads(filtered)
	threadMeta := make(map[string]insight.Thread, len(threads))
	for _, t := range threads {
		threadMeta[t.ThreadID] = t
	}

	var rows []FailureRow
	stats := FailureStats{}
	for _, id := range order {
		reasons := failureReasons(byThread[id])
		if len(reasons) == 0 {
			continue
		}
		rows = append(rows, FailureRow{Thread: threadMeta[id], Reasons: reasons})
		stats.Total++
		for _, reason := range reasons {
			switch reason {
			case FailureIncapacity:
				stats.Incapacity++
			case FailureRepetition:
				stats.Repetition++
			case FailureSentiment:
				stats.Sentiment++
			}
		}
	}

	// Most recent failures first.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date > rows[j].Date })

	paged, err := insight.Paginate(rows, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &FailuresResult{Data: paged.Data, Total: paged.Total, Stats: stats}, nil
}

func failureReasons(msgs []models.Message) []string {
	var reasons []string

	for _, m := range msgs {
		if m.SenderType == models.SenderAI && containsAny(m.Text, failureKeywords) {
			reasons = append(reasons, FailureIncapacity)
			break
		}
	}

	seen := make(map[string]bool)
	for _, m := range msgs {
		if m.SenderType != models.SenderHuman {
			continue
		}
		text := strings.ToLower(strings.TrimSpace(m.Text))
		if text == "" {
			continue
		}
		if seen[text] {
			reasons = append(reasons, FailureRepetition)
			break
		}
		seen[text] = true
	}

	classified, negative := 0, 0
	for _, m := range msgs {
		if m.SenderType != models.SenderHuman || m.Sentiment == nil {
			continue
		}
		classified++
		if *m.Sentiment == models.SentimentNegative {
			negative++
		}
	}
	if classified > 0 && negative*2 > classified {
		reasons = append(reasons, FailureSentiment)
	}

	return reasons
}

// ReferralRow is one service-line referral with its surrounding exchange.
type ReferralRow struct {
	ThreadID         string `json:"thread_id"`
	Date             string `json:"date"`
	CustomerRequest  string `json:"customer_request"`
	ReferralResponse string `json:"referral_response"`
}

// ReferralStats summarizes the full filtered referral set.
type ReferralStats struct {
	Total         int     `json:"total"`
	PctOfThreads  float64 `json:"pct_of_threads"`
	UniqueThreads int     `json:"unique_threads"`
}

// ReferralsResult is one page of referrals plus whole-set stats.
type ReferralsResult struct {
	Data  []ReferralRow `json:"data"`
	Total int           `json:"total"`
	Stats ReferralStats `json:"stats"`
}

// Referrals answers the service-line referral query: every bot reply flagged
// at ingest as pointing the customer to the phone line, paired with the
// customer message that triggered it.
func (s *PanelService) Referrals(ctx context.Context, r DateRange, page, pageSize int) (*ReferralsResult, error) {
	if pageSize == 0 {
		pageSize = s.cfg.Query.DefaultPageSize
	}

	records, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	filtered := insight.Apply(records, r.filter())

	var rows []ReferralRow
	threads := make(map[string]bool)
	lastHuman := make(map[string]string)
	for _, m := range filtered {
		if m.SenderType == models.SenderHuman {
			lastHuman[m.ThreadID] = m.Text
		}
		if m.SenderType == models.SenderAI && m.IsReferral {
			rows = append(rows, ReferralRow{
				ThreadID:         m.ThreadID,
				Date:             m.Date,
				CustomerRequest:  lastHuman[m.ThreadID],
				ReferralResponse: m.Text,
			})
			threads[m.ThreadID] = true
		}
	}

	totalThreads := make(map[string]bool)
	for _, m := range filtered {
		totalThreads[m.ThreadID] = true
	}

	stats := ReferralStats{
		Total:         len(rows),
		UniqueThreads: len(threads),
		PctOfThreads:  insight.Pct(len(threads), len(totalThreads)),
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date > rows[j].Date })

	paged, err := insight.Paginate(rows, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &ReferralsResult{Data: paged.Data, Total: paged.Total, Stats: stats}, nil
}

// UncategorizedStats summarizes the full set of unclassified conversations.
type UncategorizedStats struct {
	Total          int     `json:"total"`
	PctOfThreads   float64 `json:"pct_of_threads"`
	WithServilinea int     `json:"with_servilinea"`
	WithEmpty      int     `json:"with_empty_message"`
}

// UncategorizedResult is one page of unclassified conversations plus
// whole-set stats.
type UncategorizedResult struct {
	Data  []insight.Thread   `json:"data"`
	Total int                `json:"total"`
	Stats UncategorizedStats `json:"stats"`
}

// Uncategorized answers the unclassified-conversation query: threads where
// no message carries a category label.
func (s *PanelService) Uncategorized(ctx context.Context, r DateRange, page, pageSize int) (*UncategorizedResult, error) {
	if pageSize == 0 {
		pageSize = s.cfg.Query.DefaultPageSize
	}

	records, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	filtered := insight.Apply(records, r.filter())

	all := insight.BuildThreads(filtered)
	total := len(all)

	var rows []insight.Thread
	stats := UncategorizedStats{}
	for _, t := range all {
		if !t.Uncategorized {
			continue
		}
		rows = append(rows, t)
		stats.Total++
		if t.IsReferral {
			stats.WithServilinea++
		}
		if t.HasEmptyMessage {
			stats.WithEmpty++
		}
	}
	stats.PctOfThreads = insight.Pct(stats.Total, total)

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date > rows[j].Date })

	paged, err := insight.Paginate(rows, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &UncategorizedResult{Data: paged.Data, Total: paged.Total, Stats: stats}, nil
}

// AdvisorRow is one explicit request to talk to a person.
type AdvisorRow struct {
	ThreadID    string `json:"thread_id"`
	Date        string `json:"date"`
	Text        string `json:"text"`
	RequestType string `json:"request_type"`
}

// AdvisorStats summarizes the full filtered advisor-request set.
type AdvisorStats struct {
	Total       int `json:"total"`
	Immediate   int `json:"immediate"`
	AfterEffort int `json:"after_effort"`
}

// AdvisorsResult is one page of advisor requests plus whole-set stats.
type AdvisorsResult struct {
	Data  []AdvisorRow `json:"data"`
	Total int          `json:"total"`
	Stats AdvisorStats `json:"stats"`
}

// Advisors answers the human-advisor-request query, split by whether the
// customer asked up front or only after trying the bot.
func (s *PanelService) Advisors(ctx context.Context, r DateRange, page, pageSize int) (*AdvisorsResult, error) {
	if pageSize == 0 {
		pageSize = s.cfg.Query.DefaultPageSize
	}

	records, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	filtered := insight.Apply(records, r.filter())

	var rows []AdvisorRow
	stats := AdvisorStats{}
	for _, m := range filtered {
		if !m.IsAdvisorRequest {
			continue
		}
		rt := labelOf(m.RequestType)
		rows = append(rows, AdvisorRow{
			ThreadID:    m.ThreadID,
			Date:        m.Date,
			Text:        m.Text,
			RequestType: rt,
		})
		stats.Total++
		switch rt {
		case models.RequestImmediate:
			stats.Immediate++
		case models.RequestAfterEffort:
			stats.AfterEffort++
		}
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date > rows[j].Date })

	paged, err := insight.Paginate(rows, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &AdvisorsResult{Data: paged.Data, Total: paged.Total, Stats: stats}, nil
}
