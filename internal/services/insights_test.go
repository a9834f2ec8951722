package services

import (
	"context"
	"testing"

	"chatbot-insights-go/internal/insight"
	"chatbot-insights-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKPIsHeadlineNumbers(t *testing.T) {
	records := []models.Message{
		human("t1", "hola", "2026-01-01"),
		ai("t1", "buenas", "2026-01-01"),
		human("t2", "mal servicio", "2026-01-02"),
	}
	records[0].Category = strp("pagos")
	records[2].Sentiment = strp(models.SentimentNegative)
	records[2].IsReferral = true
	svc, _ := newPanels(records)

	kpis, err := svc.KPIs(context.Background(), DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 2, kpis.TotalConversations)
	assert.Equal(t, 3, kpis.TotalMessages)
	assert.Equal(t, 2, kpis.HumanMessages)
	assert.Equal(t, 1.5, kpis.AvgThreadLength)
	assert.Equal(t, 1.5, kpis.MedianThreadLength, "thread lengths 2 and 1")
	assert.Equal(t, 50.0, kpis.ReferralPct)
	assert.Equal(t, 50.0, kpis.UncategorizedPct)
	assert.Equal(t, 100.0, kpis.NegativePct, "only one classified human message, and it is negative")
}

func TestKPIsEmptyCorpusYieldsZeroesNotNaN(t *testing.T) {
	svc, _ := newPanels(nil)

	kpis, err := svc.KPIs(context.Background(), DateRange{})
	require.NoError(t, err)
	assert.Zero(t, kpis.TotalConversations)
	assert.Zero(t, kpis.AvgThreadLength)
	assert.Zero(t, kpis.NegativePct)
}

func TestTemporalDailyBuckets(t *testing.T) {
	records := []models.Message{
		human("t1", "a", "2026-01-01"),
		ai("t1", "b", "2026-01-01"),
		human("t2", "c", "2026-01-02"),
	}
	svc, _ := newPanels(records)

	result, err := svc.Temporal(context.Background(), DateRange{})
	require.NoError(t, err)
	require.Len(t, result.Daily, 2)
	assert.Equal(t, "2026-01-01", result.Daily[0].Label)
	assert.Equal(t, 2, result.Daily[0].Messages)
	assert.Equal(t, 1, result.Daily[0].Conversations)
}

func TestInsightsSharesSumOverCategories(t *testing.T) {
	records := []models.Message{
		human("t1", "a", "2026-01-01"),
		human("t2", "b", "2026-01-01"),
		human("t3", "c", "2026-01-01"),
	}
	records[0].Category = strp("pagos")
	records[1].Category = strp("pagos")
	records[2].Category = strp("creditos")
	svc, _ := newPanels(records)

	result, err := svc.Insights(context.Background(), DateRange{})
	require.NoError(t, err)
	require.Len(t, result.Categories, 2)
	assert.Equal(t, "pagos", result.Categories[0].Category, "largest share first")
	assert.Equal(t, 66.7, result.Categories[0].Share)
	assert.Equal(t, 33.3, result.Categories[1].Share)
}

func TestInsightsPeakHoursTopThree(t *testing.T) {
	var records []models.Message
	for hour, n := range map[int]int{9: 5, 10: 3, 14: 4, 16: 1} {
		for i := 0; i < n; i++ {
			m := human("t", "x", "2026-01-01")
			m.Hour = hour
			records = append(records, m)
		}
	}
	svc, _ := newPanels(records)

	result, err := svc.Insights(context.Background(), DateRange{})
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "14:00", "10:00"}, result.PeakHours)
}

func TestQualitativePercentages(t *testing.T) {
	records := []models.Message{
		human("t1", "bien", "2026-01-01"),
		human("t1", "mal", "2026-01-01"),
		human("t2", "regular", "2026-01-01"),
		ai("t2", "gracias por escribir", "2026-01-01"),
	}
	records[0].Sentiment = strp(models.SentimentPositive)
	records[1].Sentiment = strp(models.SentimentNegative)
	records[2].Sentiment = strp(models.SentimentNeutral)
	svc, _ := newPanels(records)

	result, err := svc.Qualitative(context.Background(), DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 33.3, result.PositivePct)
	assert.Equal(t, 33.3, result.NeutralPct)
	assert.Equal(t, 33.3, result.NegativePct)
	assert.Equal(t, 75.0, result.HumanPct)
	assert.Equal(t, 25.0, result.AIPct)
	assert.Equal(t, 3, result.ClassifiedMsgs)
	assert.Equal(t, 2, result.TotalThreads)
}

func TestConversationTranscript(t *testing.T) {
	records := []models.Message{
		human("t1", "hola", "2026-01-01"),
		ai("t1", "buenas", "2026-01-01"),
		human("t1", "mi tarjeta no funciona", "2026-01-01"),
		human("t2", "otra", "2026-01-01"),
	}
	records[2].Sentiment = strp(models.SentimentNegative)
	records[2].Product = strp("tarjeta gold")
	svc, _ := newPanels(records)

	result, err := svc.Conversation(context.Background(), "t1")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Len(t, result.Messages, 3)
	assert.Equal(t, "t1", result.Thread.ThreadID)
	assert.Equal(t, 2, result.Summary.HumanMsgs)
	assert.Equal(t, 1, result.Summary.AIMsgs)
	assert.Equal(t, []string{models.SentimentNegative}, result.Summary.SentimentTrail)
	assert.Equal(t, []string{"tarjeta gold"}, result.Summary.Products)
}

func TestConversationUnknownThread(t *testing.T) {
	svc, _ := newPanels([]models.Message{human("t1", "hola", "2026-01-01")})

	result, err := svc.Conversation(context.Background(), "no-such-thread")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestConversationBlankID(t *testing.T) {
	svc, _ := newPanels(nil)

	_, err := svc.Conversation(context.Background(), "  ")
	assert.ErrorIs(t, err, insight.ErrInvalidArgument)
}

func TestSurveysClassification(t *testing.T) {
	records := []models.Message{
		human("t1", "[survey] me fue útil", "2026-01-01"),
		human("t2", "[survey] no me fue útil", "2026-01-01"),
		human("t3", "[survey] me fue util", "2026-01-01"),
		human("t4", "[survey] prefiero no responder", "2026-01-01"),
		human("t5", "me fue útil pero sin encuesta", "2026-01-01"),
	}
	svc, _ := newPanels(records)

	result, err := svc.Surveys(context.Background(), DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 4, result.Total, "untagged messages are not survey answers")
	assert.Equal(t, 2, result.Useful)
	assert.Equal(t, 1, result.NotUseful)
	assert.Equal(t, 1, result.Other)
	assert.Equal(t, 66.7, result.UsefulPct)
}
