package services

import (
	"context"
	"errors"
	"testing"

	"chatbot-insights-go/internal/config"
	"chatbot-insights-go/internal/insight"
	"chatbot-insights-go/internal/models"
	"chatbot-insights-go/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		Query: config.QueryConfig{
			DefaultPageSize: 20,
			MaxPageSize:     500,
			FaqTopK:         25,
		},
	}
}

func strp(s string) *string { return &s }

func human(thread, text, date string) models.Message {
	return models.Message{ThreadID: thread, SenderType: models.SenderHuman, Text: text, Date: date}
}

func ai(thread, text, date string) models.Message {
	return models.Message{ThreadID: thread, SenderType: models.SenderAI, Text: text, Date: date}
}

func newPanels(records []models.Message) (*PanelService, *store.Memory) {
	mem := store.NewMemory(records)
	return NewPanelService(mem, testConfig(), zap.NewNop()), mem
}

func TestMessagesDefaultViewIsHumanOnly(t *testing.T) {
	svc, _ := newPanels([]models.Message{
		human("t1", "hola", "2026-01-01"),
		ai("t1", "buenas", "2026-01-01"),
	})

	result, err := svc.Messages(context.Background(), MessagesParams{})
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)
	assert.Equal(t, models.SenderHuman, result.Data[0].SenderType)
}

func TestMessagesExplicitSenderFilterOverridesDefault(t *testing.T) {
	svc, _ := newPanels([]models.Message{
		human("t1", "hola", "2026-01-01"),
		ai("t1", "buenas", "2026-01-01"),
	})

	result, err := svc.Messages(context.Background(), MessagesParams{
		Filter: insight.Filter{SenderType: models.SenderAI},
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)
	assert.Equal(t, models.SenderAI, result.Data[0].SenderType)
}

func TestMessagesThreadLengthCountsWholeCorpus(t *testing.T) {
	svc, _ := newPanels([]models.Message{
		human("t1", "hola", "2026-01-01"),
		ai("t1", "respuesta", "2026-01-01"),
		ai("t1", "otra", "2026-01-01"),
	})

	result, err := svc.Messages(context.Background(), MessagesParams{})
	require.NoError(t, err)
	require.Len(t, result.Data, 1)
	assert.Equal(t, 3, result.Data[0].ThreadLength, "filtered-out AI messages still count toward length")
}

func TestMessagesTotalIgnoresPagination(t *testing.T) {
	var records []models.Message
	for i := 0; i < 30; i++ {
		records = append(records, human("t", "hola", "2026-01-01"))
	}
	svc, _ := newPanels(records)

	result, err := svc.Messages(context.Background(), MessagesParams{Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, result.Data, 10)
	assert.Equal(t, 30, result.Total)
}

func TestMessagesReportsEffectivePageSize(t *testing.T) {
	svc, _ := newPanels([]models.Message{human("t1", "hola", "2026-01-01")})
	cfg := testConfig()

	// Omitted size falls back to the configured default.
	result, err := svc.Messages(context.Background(), MessagesParams{})
	require.NoError(t, err)
	assert.Equal(t, cfg.Query.DefaultPageSize, result.PageSize)

	// Oversized requests clamp to the configured maximum.
	result, err = svc.Messages(context.Background(), MessagesParams{PageSize: cfg.Query.MaxPageSize + 1})
	require.NoError(t, err)
	assert.Equal(t, cfg.Query.MaxPageSize, result.PageSize)
}

func TestMessagesUnknownSortKey(t *testing.T) {
	svc, _ := newPanels([]models.Message{human("t1", "hola", "2026-01-01")})

	_, err := svc.Messages(context.Background(), MessagesParams{
		Filter: insight.Filter{SortKey: "bogus", SenderType: models.SenderHuman},
	})
	assert.ErrorIs(t, err, insight.ErrInvalidArgument)
}

func TestMessagesStoreFailure(t *testing.T) {
	svc, mem := newPanels(nil)
	mem.Err = errors.New("disk gone")

	_, err := svc.Messages(context.Background(), MessagesParams{})
	assert.ErrorIs(t, err, insight.ErrDataUnavailable)
}

func TestSummaryTableSortsWholeResult(t *testing.T) {
	records := []models.Message{
		human("t1", "a", "2026-01-01"), // creditos, 1 thread
		human("t2", "b", "2026-01-01"), // pagos, 2 threads
		human("t3", "c", "2026-01-01"),
	}
	records[0].Category = strp("creditos")
	records[1].Category = strp("pagos")
	records[2].Category = strp("pagos")
	svc, _ := newPanels(records)

	result, err := svc.SummaryTable(context.Background(), SummaryParams{
		SortKey: "unique_conversations",
		SortDir: insight.Descending,
	})
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "pagos", result.Rows[0].Category)
	assert.Equal(t, 2, result.Rows[0].UniqueConversations)
	assert.Equal(t, 3, result.Totals.UniqueConversations)
}

func TestSummaryTableUnknownSortKey(t *testing.T) {
	svc, _ := newPanels(nil)

	_, err := svc.SummaryTable(context.Background(), SummaryParams{SortKey: "bogus"})
	assert.ErrorIs(t, err, insight.ErrInvalidArgument)
}

func TestSummaryTableEmptyCorpusIsNotAnError(t *testing.T) {
	svc, _ := newPanels(nil)

	result, err := svc.SummaryTable(context.Background(), SummaryParams{})
	require.NoError(t, err)
	assert.Empty(t, result.Rows)
}

func TestFaqsCountOnlyHumanMessages(t *testing.T) {
	records := []models.Message{
		human("t1", "cuanto debo", "2026-01-01"),
		human("t2", "cuanto debo", "2026-01-01"),
		ai("t1", "cuanto debo", "2026-01-01"), // AI echo must not count
	}
	for i := range records {
		records[i].Category = strp("pagos")
		records[i].Intent = strp("pago_cuota")
	}
	svc, _ := newPanels(records)

	faqs, err := svc.Faqs(context.Background(), 0)
	require.NoError(t, err)
	require.Contains(t, faqs, "pagos")
	assert.Equal(t, 2, faqs["pagos"]["pago_cuota"].Items[0].Count)
}

func TestFaqsInvalidK(t *testing.T) {
	svc, _ := newPanels(nil)

	_, err := svc.Faqs(context.Background(), -1)
	assert.ErrorIs(t, err, insight.ErrInvalidArgument)
}

func TestOptionsFallsBackToCanonicalSentiments(t *testing.T) {
	svc, _ := newPanels(nil)

	opts, err := svc.Options(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		models.SentimentPositive,
		models.SentimentNeutral,
		models.SentimentNegative,
	}, opts.Sentiments)
}
