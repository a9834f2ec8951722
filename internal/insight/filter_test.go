package insight

import (
	"testing"

	"chatbot-insights-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyEmptyFilterReturnsEverything(t *testing.T) {
	records := []models.Message{
		mk(msgSpec{thread: "t1", sender: models.SenderHuman, text: "hola", date: "2026-01-01"}),
		mk(msgSpec{thread: "t2", sender: models.SenderAI, text: "", date: "2026-01-02"}),
	}

	out := Apply(records, Filter{})
	assert.Len(t, out, 2)
}

func TestApplyFiltersAreANDed(t *testing.T) {
	records := []models.Message{
		mk(msgSpec{thread: "t1", sender: models.SenderHuman, text: "quiero pagar mi cuota", date: "2026-01-01", category: "pagos"}),
		mk(msgSpec{thread: "t2", sender: models.SenderHuman, text: "quiero pagar", date: "2026-01-01", category: "creditos"}),
		mk(msgSpec{thread: "t3", sender: models.SenderAI, text: "quiero pagar", date: "2026-01-01", category: "pagos"}),
	}

	out := Apply(records, Filter{Search: "pagar", Category: "pagos", SenderType: models.SenderHuman})
	assert.Len(t, out, 1)
	assert.Equal(t, "t1", out[0].ThreadID)
}

func TestApplyDateBoundsAreInclusive(t *testing.T) {
	records := []models.Message{
		mk(msgSpec{thread: "t1", date: "2026-01-01"}),
		mk(msgSpec{thread: "t2", date: "2026-01-15"}),
		mk(msgSpec{thread: "t3", date: "2026-01-31"}),
		mk(msgSpec{thread: "t4", date: "2026-02-01"}),
	}

	out := Apply(records, Filter{StartDate: "2026-01-01", EndDate: "2026-01-31"})
	assert.Len(t, out, 3)
	for _, m := range out {
		assert.NotEqual(t, "t4", m.ThreadID)
	}
}

func TestApplySearchIsCaseInsensitive(t *testing.T) {
	records := []models.Message{
		mk(msgSpec{thread: "t1", text: "Necesito un CREDITO urgente"}),
		mk(msgSpec{thread: "t2", text: "otra cosa"}),
	}

	out := Apply(records, Filter{Search: "credito"})
	assert.Len(t, out, 1)
	assert.Equal(t, "t1", out[0].ThreadID)
}

func TestApplyExcludeEmptyDropsOnlyZeroLengthText(t *testing.T) {
	records := []models.Message{
		mk(msgSpec{thread: "t1", text: "hola"}),
		mk(msgSpec{thread: "t2", text: ""}),
		mk(msgSpec{thread: "t3", text: "   "}), // whitespace is not empty
	}

	out := Apply(records, Filter{ExcludeEmpty: true})
	require.Len(t, out, 2)
	assert.Equal(t, "t1", out[0].ThreadID)
	assert.Equal(t, "t3", out[1].ThreadID)
}

func TestApplyNilLabelNeverMatchesValueFilter(t *testing.T) {
	records := []models.Message{
		mk(msgSpec{thread: "t1", category: "pagos"}),
		mk(msgSpec{thread: "t2"}), // nil category
	}

	out := Apply(records, Filter{Category: "pagos"})
	assert.Len(t, out, 1)
	assert.Equal(t, "t1", out[0].ThreadID)
}

func TestApplyPreservesInputOrder(t *testing.T) {
	records := []models.Message{
		mk(msgSpec{thread: "b", text: "x"}),
		mk(msgSpec{thread: "a", text: "x"}),
		mk(msgSpec{thread: "c", text: "x"}),
	}

	out := Apply(records, Filter{Search: "x"})
	assert.Equal(t, "b", out[0].ThreadID)
	assert.Equal(t, "a", out[1].ThreadID)
	assert.Equal(t, "c", out[2].ThreadID)
}

func TestNormalizeClearsForeignIntent(t *testing.T) {
	subs := map[string][]string{
		"pagos":    {"pago_cuota", "paz_y_salvo"},
		"creditos": {"solicitud"},
	}

	f := Normalize(Filter{Category: "pagos", Intent: "solicitud"}, subs)
	assert.Empty(t, f.Intent, "intent from another category must be cleared")

	f = Normalize(Filter{Category: "pagos", Intent: "pago_cuota"}, subs)
	assert.Equal(t, "pago_cuota", f.Intent)

	// No category selected: intent passes through untouched.
	f = Normalize(Filter{Intent: "solicitud"}, subs)
	assert.Equal(t, "solicitud", f.Intent)
}
