package insight

import (
	"testing"

	"chatbot-insights-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textOf(m models.Message) string { return m.Text }

func TestTopKRanksByCountThenFirstSeen(t *testing.T) {
	records := []models.Message{
		mk(msgSpec{thread: "a", text: "hi"}),
		mk(msgSpec{thread: "a", text: "bye"}),
		mk(msgSpec{thread: "b", text: "hi"}),
		mk(msgSpec{thread: "b", text: "yo"}),
	}

	res, err := TopK(records, textOf, 2)
	require.NoError(t, err)

	assert.Equal(t, []TopKItem{{Value: "hi", Count: 2}, {Value: "bye", Count: 1}}, res.Items)
	assert.Equal(t, 1, res.Overflow, "yo did not fit")
}

func TestTopKInvalidK(t *testing.T) {
	_, err := TopK(nil, textOf, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = TopK(nil, textOf, -3)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestTopKEmptyInput(t *testing.T) {
	res, err := TopK(nil, textOf, 5)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Zero(t, res.Overflow)
}

func TestTopKSkipsEmptyValues(t *testing.T) {
	records := []models.Message{
		mk(msgSpec{thread: "a", text: ""}),
		mk(msgSpec{thread: "a", text: "hola"}),
	}

	res, err := TopK(records, textOf, 5)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "hola", res.Items[0].Value)
}

func TestTopKOverflowInvariant(t *testing.T) {
	records := []models.Message{
		mk(msgSpec{thread: "a", text: "uno"}),
		mk(msgSpec{thread: "a", text: "dos"}),
		mk(msgSpec{thread: "a", text: "tres"}),
	}

	for k := 1; k <= 5; k++ {
		res, err := TopK(records, textOf, k)
		require.NoError(t, err)
		assert.Equal(t, 3, len(res.Items)+res.Overflow, "k=%d", k)
		assert.LessOrEqual(t, len(res.Items), k)
	}
}

func TestTopKStrings(t *testing.T) {
	res, err := TopKStrings([]string{"x", "y", "x", ""}, 1)
	require.NoError(t, err)
	assert.Equal(t, []TopKItem{{Value: "x", Count: 2}}, res.Items)
	assert.Equal(t, 1, res.Overflow)
}

func TestGroupedTopKPartitionsByKeyPair(t *testing.T) {
	records := []models.Message{
		mk(msgSpec{thread: "a", text: "cuanto debo", category: "pagos", intent: "pago_cuota"}),
		mk(msgSpec{thread: "b", text: "cuanto debo", category: "pagos", intent: "pago_cuota"}),
		mk(msgSpec{thread: "c", text: "quiero un credito", category: "creditos", intent: "solicitud"}),
		mk(msgSpec{thread: "d", text: "sin etiquetas"}), // skipped: empty keys
	}

	out, err := GroupedTopK(records,
		func(m models.Message) (string, string) {
			cat, intent := "", ""
			if m.Category != nil {
				cat = *m.Category
			}
			if m.Intent != nil {
				intent = *m.Intent
			}
			return cat, intent
		},
		textOf, 10)
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.Equal(t, 2, out["pagos"]["pago_cuota"].Items[0].Count)
	assert.Equal(t, "quiero un credito", out["creditos"]["solicitud"].Items[0].Value)
}

func TestGroupedTopKInvalidK(t *testing.T) {
	_, err := GroupedTopK(nil, func(models.Message) (string, string) { return "", "" }, textOf, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
