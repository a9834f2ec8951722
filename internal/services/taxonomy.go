package services

import (
	"fmt"
	"os"
	"sort"

	"chatbot-insights-go/internal/config"
	"chatbot-insights-go/internal/database"
	"chatbot-insights-go/internal/models"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// TaxonomyService loads the category/product taxonomy from YAML and keeps
// the macro membership maps used for filter validation and relabeling.
type TaxonomyService struct {
	cfg *config.Config
	log *zap.Logger

	subsByCategory map[string][]string // category -> its intents
	categoryOf     map[string]string   // intent -> category
	productMacroOf map[string]string   // product -> macro group
}

// NewTaxonomyService creates a new taxonomy service
func NewTaxonomyService(cfg *config.Config, log *zap.Logger) *TaxonomyService {
	return &TaxonomyService{
		cfg:            cfg,
		log:            log,
		subsByCategory: make(map[string][]string),
		categoryOf:     make(map[string]string),
		productMacroOf: make(map[string]string),
	}
}

type taxonomyFile struct {
	Categories []struct {
		Name          string   `yaml:"name"`
		Subcategories []string `yaml:"subcategories"`
	} `yaml:"categories"`
}

type productsFile struct {
	Products []struct {
		Name  string `yaml:"name"`
		Macro string `yaml:"macro"`
	} `yaml:"products"`
}

// Load reads both taxonomy files and syncs them into the database so the
// options endpoint can serve them alongside corpus-derived values.
func (s *TaxonomyService) Load() error {
	if err := s.loadCategories(); err != nil {
		return fmt.Errorf("failed to load category taxonomy: %w", err)
	}
	if err := s.loadProducts(); err != nil {
		return fmt.Errorf("failed to load product taxonomy: %w", err)
	}
	if err := s.sync(); err != nil {
		return fmt.Errorf("failed to sync taxonomy: %w", err)
	}

	s.log.Info("Taxonomy loaded",
		zap.Int("categories", len(s.subsByCategory)),
		zap.Int("products", len(s.productMacroOf)),
	)
	return nil
}

func (s *TaxonomyService) loadCategories() error {
	data, err := os.ReadFile(s.cfg.Data.TaxonomyPath)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.Warn("Taxonomy file missing, starting with empty taxonomy",
				zap.String("path", s.cfg.Data.TaxonomyPath))
			return nil
		}
		return err
	}

	var file taxonomyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse taxonomy YAML: %w", err)
	}

	for _, cat := range file.Categories {
		if cat.Name == "" {
			continue
		}
		for _, sub := range cat.Subcategories {
			if sub == "" {
				continue
			}
			s.subsByCategory[cat.Name] = append(s.subsByCategory[cat.Name], sub)
			s.categoryOf[sub] = cat.Name
		}
	}
	return nil
}

func (s *TaxonomyService) loadProducts() error {
	data, err := os.ReadFile(s.cfg.Data.ProductsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var file productsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse products YAML: %w", err)
	}

	for _, p := range file.Products {
		if p.Name == "" {
			continue
		}
		macro := p.Macro
		if macro == "" {
			macro = p.Name
		}
		s.productMacroOf[p.Name] = macro
	}
	return nil
}

// sync upserts taxonomy rows so database reads see the current files.
func (s *TaxonomyService) sync() error {
	for category, subs := range s.subsByCategory {
		for _, sub := range subs {
			row := models.Category{Macro: category, Name: sub}
			err := database.DB.Where("name = ?", sub).
				Assign(models.Category{Macro: category}).
				FirstOrCreate(&row).Error
			if err != nil {
				return fmt.Errorf("failed to upsert category %q: %w", sub, err)
			}
		}
	}

	for name, macro := range s.productMacroOf {
		row := models.Product{Macro: macro, Name: name}
		err := database.DB.Where("name = ?", name).
			Assign(models.Product{Macro: macro}).
			FirstOrCreate(&row).Error
		if err != nil {
			return fmt.Errorf("failed to upsert product %q: %w", name, err)
		}
	}
	return nil
}

// Categories returns the known category names, sorted.
func (s *TaxonomyService) Categories() []string {
	out := make([]string, 0, len(s.subsByCategory))
	for name := range s.subsByCategory {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// SubsByCategory returns the category -> intents membership map.
func (s *TaxonomyService) SubsByCategory() map[string][]string {
	return s.subsByCategory
}

// HasCategory reports whether the name is a known category.
func (s *TaxonomyService) HasCategory(name string) bool {
	_, ok := s.subsByCategory[name]
	return ok
}

// IntentBelongs reports whether the intent is a member of the category's
// subcategory set.
func (s *TaxonomyService) IntentBelongs(category, intent string) bool {
	for _, sub := range s.subsByCategory[category] {
		if sub == intent {
			return true
		}
	}
	return false
}

// ProductMacro returns the macro group for a product, falling back to the
// product name itself when unknown.
func (s *TaxonomyService) ProductMacro(name string) string {
	if macro, ok := s.productMacroOf[name]; ok {
		return macro
	}
	return name
}
