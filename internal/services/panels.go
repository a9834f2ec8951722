package services

import (
	"context"
	"fmt"

	"chatbot-insights-go/internal/config"
	"chatbot-insights-go/internal/insight"
	"chatbot-insights-go/internal/models"
	"chatbot-insights-go/internal/store"

	"go.uber.org/zap"
)

// PanelService answers the dashboard's named queries. Every query is one
// synchronous pass over a fresh corpus snapshot: filter, then aggregate,
// rank or paginate. Nothing is cached across calls, so a corpus replaced by
// the reprocess pipeline is picked up on the next query.
type PanelService struct {
	store store.RecordStore
	cfg   *config.Config
	log   *zap.Logger
}

// NewPanelService creates a new panel service
func NewPanelService(recordStore store.RecordStore, cfg *config.Config, log *zap.Logger) *PanelService {
	return &PanelService{
		store: recordStore,
		cfg:   cfg,
		log:   log,
	}
}

// DateRange bounds a query by inclusive YYYY-MM-DD dates; empty = unbounded.
type DateRange struct {
	Start string
	End   string
}

func (r DateRange) filter() insight.Filter {
	return insight.Filter{StartDate: r.Start, EndDate: r.End}
}

// snapshot fetches the full corpus; a store failure is the caller-visible
// DataUnavailable condition and yields no partial result.
func (s *PanelService) snapshot(ctx context.Context) ([]models.Message, error) {
	records, err := s.store.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", insight.ErrDataUnavailable, err)
	}
	return records, nil
}

// Options returns the valid filter values and the category membership map.
func (s *PanelService) Options(ctx context.Context) (store.Options, error) {
	opts, err := s.store.ListOptions(ctx)
	if err != nil {
		return store.Options{}, fmt.Errorf("%w: %v", insight.ErrDataUnavailable, err)
	}
	if len(opts.Sentiments) == 0 {
		opts.Sentiments = []string{
			models.SentimentPositive,
			models.SentimentNeutral,
			models.SentimentNegative,
		}
	}
	return opts, nil
}

// MessageView is a corpus record enriched with per-thread metadata.
type MessageView struct {
	models.Message
	ThreadLength int  `json:"thread_length"`
	IsServilinea bool `json:"is_servilinea"`
}

// MessagesParams select, sort and page the message explorer view.
type MessagesParams struct {
	Filter   insight.Filter
	Page     int
	PageSize int
}

// MessagesResult is one explorer page plus the filtered total. PageSize is
// the size actually applied after defaulting and clamping.
type MessagesResult struct {
	Data     []MessageView `json:"data"`
	Total    int           `json:"total"`
	PageSize int           `json:"page_size"`
}

// SortByThreadLength orders explorer rows by their conversation's total
// message count rather than a record field.
const SortByThreadLength = "thread_length"

// Messages answers the message explorer query.
func (s *PanelService) Messages(ctx context.Context, p MessagesParams) (*MessagesResult, error) {
	if p.PageSize == 0 {
		p.PageSize = s.cfg.Query.DefaultPageSize
	}
	if p.PageSize > s.cfg.Query.MaxPageSize {
		p.PageSize = s.cfg.Query.MaxPageSize
	}

	records, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	opts, err := s.Options(ctx)
	if err != nil {
		return nil, err
	}

	f := insight.Normalize(p.Filter, opts.MacroToSubcategory)

	// Default view shows only human messages to avoid clutter; any explicit
	// row filter overrides this.
	if f.SenderType == "" && f.ThreadID == "" && f.Search == "" &&
		f.Category == "" && f.Intent == "" && f.Sentiment == "" && f.Product == "" {
		f.SenderType = models.SenderHuman
	}

	// Thread metadata comes from the whole corpus, not the filtered rows: a
	// filtered-out AI message still counts toward its thread's length.
	threadLengths := make(map[string]int)
	referralThreads := make(map[string]bool)
	for _, m := range records {
		threadLengths[m.ThreadID]++
		if m.IsReferral {
			referralThreads[m.ThreadID] = true
		}
	}

	filtered := insight.Apply(records, f)

	switch f.SortKey {
	case "":
		// keep ingest order
	case SortByThreadLength:
		filtered = insight.SortBy(filtered, func(a, b models.Message) bool {
			return threadLengths[a.ThreadID] < threadLengths[b.ThreadID]
		}, f.SortDir)
	default:
		filtered, err = insight.SortMessages(filtered, f.SortKey, f.SortDir)
		if err != nil {
			return nil, err
		}
	}

	page, err := insight.Paginate(filtered, p.Page, p.PageSize)
	if err != nil {
		return nil, err
	}

	views := make([]MessageView, 0, len(page.Data))
	for _, m := range page.Data {
		views = append(views, MessageView{
			Message:      m,
			ThreadLength: threadLengths[m.ThreadID],
			IsServilinea: referralThreads[m.ThreadID],
		})
	}

	return &MessagesResult{Data: views, Total: page.Total, PageSize: p.PageSize}, nil
}

// SummaryParams select and sort the grouped summary table.
type SummaryParams struct {
	Range   DateRange
	SortKey string
	SortDir insight.Direction
}

// SummaryResult is the full grouped table (small enough to sort wholesale)
// plus its column totals.
type SummaryResult struct {
	Rows   []insight.SummaryRow `json:"rows"`
	Totals insight.SummaryRow   `json:"totals"`
}

// SummaryTable answers the (category, intent) summary table query.
func (s *PanelService) SummaryTable(ctx context.Context, p SummaryParams) (*SummaryResult, error) {
	records, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	filtered := insight.Apply(records, p.Range.filter())
	rows := insight.Aggregate(filtered, insight.ByCategory, insight.ByIntent)

	if p.SortKey != "" {
		less, err := summaryLess(p.SortKey)
		if err != nil {
			return nil, err
		}
		rows = insight.SortBy(rows, less, p.SortDir)
	}

	return &SummaryResult{Rows: rows, Totals: insight.Totals(rows)}, nil
}

func summaryLess(key string) (func(a, b insight.SummaryRow) bool, error) {
	switch key {
	case "category":
		return func(a, b insight.SummaryRow) bool { return a.Category < b.Category }, nil
	case "intent":
		return func(a, b insight.SummaryRow) bool { return a.Intent < b.Intent }, nil
	case "unique_conversations":
		return func(a, b insight.SummaryRow) bool { return a.UniqueConversations < b.UniqueConversations }, nil
	case "total_interactions":
		return func(a, b insight.SummaryRow) bool { return a.TotalInteractions < b.TotalInteractions }, nil
	case "human_msgs":
		return func(a, b insight.SummaryRow) bool { return a.HumanMsgs < b.HumanMsgs }, nil
	case "ai_msgs":
		return func(a, b insight.SummaryRow) bool { return a.AIMsgs < b.AIMsgs }, nil
	case "tool_msgs":
		return func(a, b insight.SummaryRow) bool { return a.ToolMsgs < b.ToolMsgs }, nil
	case "positive":
		return func(a, b insight.SummaryRow) bool { return a.Positive < b.Positive }, nil
	case "neutral":
		return func(a, b insight.SummaryRow) bool { return a.Neutral < b.Neutral }, nil
	case "negative":
		return func(a, b insight.SummaryRow) bool { return a.Negative < b.Negative }, nil
	case "referrals":
		return func(a, b insight.SummaryRow) bool { return a.Referrals < b.Referrals }, nil
	default:
		return nil, fmt.Errorf("%w: unknown summary sort key %q", insight.ErrInvalidArgument, key)
	}
}

// Faqs answers the FAQ extraction query: the most frequent exact human
// phrases per intent, grouped by category. Zero k falls back to the
// configured default.
func (s *PanelService) Faqs(ctx context.Context, k int) (map[string]map[string]insight.TopKResult, error) {
	if k == 0 {
		k = s.cfg.Query.FaqTopK
	}

	records, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	human := insight.Apply(records, insight.Filter{
		SenderType:   models.SenderHuman,
		ExcludeEmpty: true,
	})

	return insight.GroupedTopK(human,
		func(m models.Message) (string, string) { return labelOf(m.Category), labelOf(m.Intent) },
		func(m models.Message) string { return m.Text },
		k,
	)
}

func labelOf(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
