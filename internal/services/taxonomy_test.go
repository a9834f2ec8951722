package services

import (
	"os"
	"path/filepath"
	"testing"

	"chatbot-insights-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTaxonomyMembership(t *testing.T) {
	tax := testTaxonomy()

	assert.True(t, tax.HasCategory("pagos"))
	assert.False(t, tax.HasCategory("inventada"))

	assert.True(t, tax.IntentBelongs("pagos", "pago_cuota"))
	assert.False(t, tax.IntentBelongs("pagos", "solicitud"))
	assert.False(t, tax.IntentBelongs("inventada", "pago_cuota"))

	assert.Equal(t, []string{"creditos", "pagos"}, tax.Categories())
}

func TestTaxonomyProductMacroFallsBackToName(t *testing.T) {
	tax := testTaxonomy()
	tax.productMacroOf = map[string]string{"tarjeta gold": "tarjetas"}

	assert.Equal(t, "tarjetas", tax.ProductMacro("tarjeta gold"))
	assert.Equal(t, "cdt", tax.ProductMacro("cdt"))
}

func TestLoadCategoriesFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "categories.yml")
	content := `
categories:
  - name: pagos
    subcategories: [pago_cuota, paz_y_salvo]
  - name: creditos
    subcategories: [solicitud]
  - name: ""
    subcategories: [ignorada]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := &config.Config{Data: config.DataConfig{TaxonomyPath: path}}
	tax := NewTaxonomyService(cfg, zap.NewNop())
	require.NoError(t, tax.loadCategories())

	assert.Equal(t, []string{"pago_cuota", "paz_y_salvo"}, tax.subsByCategory["pagos"])
	assert.Equal(t, "creditos", tax.categoryOf["solicitud"])
	assert.False(t, tax.HasCategory(""), "nameless categories are skipped")
}

func TestLoadCategoriesMissingFileIsNotAnError(t *testing.T) {
	cfg := &config.Config{Data: config.DataConfig{TaxonomyPath: "/nonexistent/categories.yml"}}
	tax := NewTaxonomyService(cfg, zap.NewNop())

	require.NoError(t, tax.loadCategories())
	assert.Empty(t, tax.subsByCategory)
}

func TestLoadCategoriesRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "categories.yml")
	require.NoError(t, os.WriteFile(path, []byte("categories: [broken"), 0o644))

	cfg := &config.Config{Data: config.DataConfig{TaxonomyPath: path}}
	tax := NewTaxonomyService(cfg, zap.NewNop())
	assert.Error(t, tax.loadCategories())
}
