package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"chatbot-insights-go/internal/insight"
	"chatbot-insights-go/internal/models"
)

// KPIs are the headline numbers for the date range.
type KPIs struct {
	TotalConversations int     `json:"total_conversations"`
	TotalMessages      int     `json:"total_messages"`
	HumanMessages      int     `json:"human_messages"`
	AvgThreadLength    float64 `json:"avg_thread_length"`
	MedianThreadLength float64 `json:"median_thread_length"`
	ReferralPct        float64 `json:"referral_pct"`
	AdvisorPct         float64 `json:"advisor_pct"`
	UncategorizedPct   float64 `json:"uncategorized_pct"`
	NegativePct        float64 `json:"negative_pct"`
}

// KPIs answers the headline-numbers query.
func (s *PanelService) KPIs(ctx context.Context, r DateRange) (*KPIs, error) {
	records, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	filtered := insight.Apply(records, r.filter())
	threads := insight.BuildThreads(filtered)

	k := &KPIs{
		TotalConversations: len(threads),
		TotalMessages:      len(filtered),
	}

	referral, advisor, uncategorized := 0, 0, 0
	for _, t := range threads {
		if t.IsReferral {
			referral++
		}
		if t.IsAdvisorRequest {
			advisor++
		}
		if t.Uncategorized {
			uncategorized++
		}
	}

	classified, negative := 0, 0
	for _, m := range filtered {
		if m.SenderType == models.SenderHuman {
			k.HumanMessages++
			if m.Sentiment != nil {
				classified++
				if *m.Sentiment == models.SentimentNegative {
					negative++
				}
			}
		}
	}

	if len(threads) > 0 {
		k.AvgThreadLength = float64(len(filtered)) / float64(len(threads))
		k.MedianThreadLength = medianThreadLength(threads)
	}
	k.ReferralPct = insight.Pct(referral, len(threads))
	k.AdvisorPct = insight.Pct(advisor, len(threads))
	k.UncategorizedPct = insight.Pct(uncategorized, len(threads))
	k.NegativePct = insight.Pct(negative, classified)

	return k, nil
}

func medianThreadLength(threads []insight.Thread) float64 {
	lengths := make([]int, len(threads))
	for i, t := range threads {
		lengths[i] = t.MessageCount
	}
	sort.Ints(lengths)
	mid := len(lengths) / 2
	if len(lengths)%2 == 1 {
		return float64(lengths[mid])
	}
	return float64(lengths[mid-1]+lengths[mid]) / 2
}

// TemporalBucket is one point on a volume-over-time series.
type TemporalBucket struct {
	Label         string `json:"label"`
	Messages      int    `json:"messages"`
	Conversations int    `json:"conversations"`
}

// TemporalResult holds the three volume views of the filtered range.
type TemporalResult struct {
	Daily     []TemporalBucket `json:"daily"`
	Hourly    []TemporalBucket `json:"hourly"`
	DayOfWeek []TemporalBucket `json:"day_of_week"`
}

// Temporal answers the volume-over-time query with daily, hourly and
// day-of-week breakdowns.
func (s *PanelService) Temporal(ctx context.Context, r DateRange) (*TemporalResult, error) {
	records, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	filtered := insight.Apply(records, r.filter())

	daily := bucketize(filtered, func(m models.Message) string { return m.Date })
	sort.Slice(daily, func(i, j int) bool { return daily[i].Label < daily[j].Label })

	hourly := bucketize(filtered, func(m models.Message) string {
		return fmt.Sprintf("%02d", m.Hour)
	})
	sort.Slice(hourly, func(i, j int) bool { return hourly[i].Label < hourly[j].Label })

	dow := bucketize(filtered, func(m models.Message) string {
		t, err := time.Parse("2006-01-02", m.Date)
		if err != nil {
			return ""
		}
		// Monday-first ordering prefix, stripped by the caller if unwanted.
		weekday := (int(t.Weekday()) + 6) % 7
		return fmt.Sprintf("%d-%s", weekday, t.Weekday().String())
	})
	sort.Slice(dow, func(i, j int) bool { return dow[i].Label < dow[j].Label })

	return &TemporalResult{Daily: daily, Hourly: hourly, DayOfWeek: dow}, nil
}

func bucketize(records []models.Message, label func(models.Message) string) []TemporalBucket {
	msgs := make(map[string]int)
	threads := make(map[string]map[string]bool)
	for _, m := range records {
		l := label(m)
		if l == "" {
			continue
		}
		msgs[l]++
		if threads[l] == nil {
			threads[l] = make(map[string]bool)
		}
		threads[l][m.ThreadID] = true
	}
	out := make([]TemporalBucket, 0, len(msgs))
	for l, n := range msgs {
		out = append(out, TemporalBucket{Label: l, Messages: n, Conversations: len(threads[l])})
	}
	return out
}

// CategoryShare is one category's slice of the classified conversations.
type CategoryShare struct {
	Category string               `json:"category"`
	Rows     []insight.SummaryRow `json:"rows"`
	Share    float64              `json:"share_pct"`
}

// InsightsResult is the analytical overview: per-category drill-down plus
// the busiest hours.
type InsightsResult struct {
	Categories []CategoryShare `json:"categories"`
	PeakHours  []string        `json:"peak_hours"`
}

// Insights answers the analytical-overview query.
func (s *PanelService) Insights(ctx context.Context, r DateRange) (*InsightsResult, error) {
	records, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	filtered := insight.Apply(records, r.filter())

	detail := insight.Aggregate(filtered, insight.ByCategory, insight.ByIntent)
	rolled := insight.Collapse(detail)

	totalThreads := 0
	for _, row := range rolled {
		totalThreads += row.UniqueConversations
	}

	byCategory := make(map[string][]insight.SummaryRow)
	for _, row := range detail {
		byCategory[row.Category] = append(byCategory[row.Category], row)
	}

	shares := make([]CategoryShare, 0, len(rolled))
	for _, row := range rolled {
		shares = append(shares, CategoryShare{
			Category: row.Category,
			Rows:     byCategory[row.Category],
			Share:    insight.Pct(row.UniqueConversations, totalThreads),
		})
	}
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].Share > shares[j].Share })

	hourCounts := make(map[string]int)
	for _, m := range filtered {
		hourCounts[fmt.Sprintf("%02d:00", m.Hour)]++
	}
	hours := make([]string, 0, len(hourCounts))
	for h := range hourCounts {
		hours = append(hours, h)
	}
	sort.SliceStable(hours, func(i, j int) bool {
		if hourCounts[hours[i]] != hourCounts[hours[j]] {
			return hourCounts[hours[i]] > hourCounts[hours[j]]
		}
		return hours[i] < hours[j]
	})
	if len(hours) > 3 {
		hours = hours[:3]
	}

	return &InsightsResult{Categories: shares, PeakHours: hours}, nil
}

// QualitativeResult is the sentiment and escalation mix of the range.
type QualitativeResult struct {
	PositivePct    float64 `json:"positive_pct"`
	NeutralPct     float64 `json:"neutral_pct"`
	NegativePct    float64 `json:"negative_pct"`
	HumanPct       float64 `json:"human_pct"`
	AIPct          float64 `json:"ai_pct"`
	ReferralPct    float64 `json:"referral_pct"`
	AdvisorPct     float64 `json:"advisor_pct"`
	ClassifiedMsgs int     `json:"classified_msgs"`
	TotalThreads   int     `json:"total_threads"`
}

// Qualitative answers the sentiment-mix query.
func (s *PanelService) Qualitative(ctx context.Context, r DateRange) (*QualitativeResult, error) {
	records, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	filtered := insight.Apply(records, r.filter())

	pos, neu, neg := 0, 0, 0
	human, ai := 0, 0
	for _, m := range filtered {
		switch m.SenderType {
		case models.SenderHuman:
			human++
		case models.SenderAI:
			ai++
		}
		if m.SenderType != models.SenderHuman || m.Sentiment == nil {
			continue
		}
		switch *m.Sentiment {
		case models.SentimentPositive:
			pos++
		case models.SentimentNeutral:
			neu++
		case models.SentimentNegative:
			neg++
		}
	}
	classified := pos + neu + neg

	threads := insight.BuildThreads(filtered)
	referral, advisor := 0, 0
	for _, t := range threads {
		if t.IsReferral {
			referral++
		}
		if t.IsAdvisorRequest {
			advisor++
		}
	}

	return &QualitativeResult{
		PositivePct:    insight.Pct(pos, classified),
		NeutralPct:     insight.Pct(neu, classified),
		NegativePct:    insight.Pct(neg, classified),
		HumanPct:       insight.Pct(human, len(filtered)),
		AIPct:          insight.Pct(ai, len(filtered)),
		ReferralPct:    insight.Pct(referral, len(threads)),
		AdvisorPct:     insight.Pct(advisor, len(threads)),
		ClassifiedMsgs: classified,
		TotalThreads:   len(threads),
	}, nil
}

// ConversationSummary is the per-thread rollup shown beside the transcript.
type ConversationSummary struct {
	HumanMsgs      int      `json:"human_msgs"`
	AIMsgs         int      `json:"ai_msgs"`
	ToolMsgs       int      `json:"tool_msgs"`
	SentimentTrail []string `json:"sentiment_trail"` // human sentiments in seq order
	Products       []string `json:"products"`        // distinct products touched
}

// ConversationResult is the full transcript of one thread.
type ConversationResult struct {
	Thread   insight.Thread      `json:"thread"`
	Summary  ConversationSummary `json:"summary"`
	Messages []models.Message    `json:"messages"`
}

// Conversation answers the transcript query for a single thread.
// An unknown thread is a DataUnavailable condition at the API layer's
// discretion; here it returns nil messages with a found=false thread.
func (s *PanelService) Conversation(ctx context.Context, threadID string) (*ConversationResult, error) {
	if strings.TrimSpace(threadID) == "" {
		return nil, fmt.Errorf("%w: thread id is required", insight.ErrInvalidArgument)
	}

	records, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	filtered := insight.Apply(records, insight.Filter{ThreadID: threadID})
	if len(filtered) == 0 {
		return nil, nil
	}

	summary := ConversationSummary{}
	seenProducts := make(map[string]bool)
	for _, m := range filtered {
		switch m.SenderType {
		case models.SenderHuman:
			summary.HumanMsgs++
			if m.Sentiment != nil {
				summary.SentimentTrail = append(summary.SentimentTrail, *m.Sentiment)
			}
		case models.SenderAI:
			summary.AIMsgs++
		case models.SenderTool:
			summary.ToolMsgs++
		}
		if m.Product != nil && !seenProducts[*m.Product] {
			seenProducts[*m.Product] = true
			summary.Products = append(summary.Products, *m.Product)
		}
	}

	threads := insight.BuildThreads(filtered)
	return &ConversationResult{Thread: threads[0], Summary: summary, Messages: filtered}, nil
}

// SurveyResult summarizes the in-chat survey responses.
type SurveyResult struct {
	Total     int     `json:"total"`
	Useful    int     `json:"useful"`
	NotUseful int     `json:"not_useful"`
	Other     int     `json:"other"`
	UsefulPct float64 `json:"useful_pct"`
}

const surveyMarker = "[survey]"

// Surveys answers the in-chat survey query. Survey answers arrive as human
// messages tagged with the survey marker.
func (s *PanelService) Surveys(ctx context.Context, r DateRange) (*SurveyResult, error) {
	records, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	filtered := insight.Apply(records, r.filter())

	out := &SurveyResult{}
	for _, m := range filtered {
		if m.SenderType != models.SenderHuman {
			continue
		}
		lower := strings.ToLower(m.Text)
		if !strings.Contains(lower, surveyMarker) {
			continue
		}
		out.Total++
		switch {
		case strings.Contains(lower, "no me fue útil") || strings.Contains(lower, "no me fue util"):
			out.NotUseful++
		case strings.Contains(lower, "me fue útil") || strings.Contains(lower, "me fue util"):
			out.Useful++
		default:
			out.Other++
		}
	}
	out.UsefulPct = insight.Pct(out.Useful, out.Useful+out.NotUseful)

	return out, nil
}
