package store

import (
	"context"
	"fmt"
	"time"

	"chatbot-insights-go/internal/database"
	"chatbot-insights-go/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store is the GORM-backed RecordStore.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

// New creates a store around an open database handle.
func New(db *gorm.DB, log *zap.Logger) *Store {
	return &Store{db: db, log: log}
}

// ListRecords returns the whole corpus in ingest order.
func (s *Store) ListRecords(ctx context.Context) ([]models.Message, error) {
	var records []models.Message
	if err := s.db.WithContext(ctx).Order("seq ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return records, nil
}

// GetRecord returns one record by its source message ID.
func (s *Store) GetRecord(ctx context.Context, messageID string) (models.Message, error) {
	var record models.Message
	if err := s.db.WithContext(ctx).Where("message_id = ?", messageID).First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return models.Message{}, fmt.Errorf("record not found: %s", messageID)
		}
		return models.Message{}, fmt.Errorf("failed to load record: %w", err)
	}
	return record, nil
}

// ListPendingReview returns one page of the relabel queue, newest first.
func (s *Store) ListPendingReview(ctx context.Context, page, pageSize int) ([]models.Message, int, error) {
	if page < 1 {
		page = 1
	}

	var total int64
	query := s.db.WithContext(ctx).Model(&models.Message{}).Where("requires_review = ?", true)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count pending reviews: %w", err)
	}

	var records []models.Message
	offset := (page - 1) * pageSize
	if err := query.Order("date DESC, seq DESC").Offset(offset).Limit(pageSize).Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list pending reviews: %w", err)
	}

	return records, int(total), nil
}

// SubmitRelabel applies a human correction to one record in a single
// transaction and clears its pending-review mark.
func (s *Store) SubmitRelabel(ctx context.Context, messageID string, r Relabel) error {
	// Relabel writes race the reprocess pipeline's bulk replace; retry on
	// SQLite lock contention instead of surfacing it to the reviewer.
	err := database.RetryWithBackoff(3, 50*time.Millisecond, func() error {
		return s.submitRelabel(ctx, messageID, r)
	})
	if err != nil {
		return err
	}

	s.log.Info("Record relabeled",
		zap.String("message_id", messageID),
		zap.String("category", r.Category),
	)
	return nil
}

func (s *Store) submitRelabel(ctx context.Context, messageID string, r Relabel) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record models.Message
		if err := tx.Where("message_id = ?", messageID).First(&record).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("record not found: %s", messageID)
			}
			return fmt.Errorf("failed to load record: %w", err)
		}

		category := r.Category
		record.Category = &category
		if r.Intent != nil {
			if *r.Intent == "" {
				record.Intent = nil
			} else {
				record.Intent = r.Intent
			}
		}
		if r.Sentiment != nil {
			record.Sentiment = r.Sentiment
		}
		if r.Product != nil {
			record.Product = r.Product
		}
		record.RequiresReview = false

		if err := tx.Save(&record).Error; err != nil {
			return fmt.Errorf("failed to save relabel: %w", err)
		}
		return nil
	})
}

// ListOptions collects distinct label values from the corpus and the
// macro-to-subcategory map from the taxonomy tables.
func (s *Store) ListOptions(ctx context.Context) (Options, error) {
	opts := Options{MacroToSubcategory: make(map[string][]string)}

	type distinctQuery struct {
		column string
		dest   *[]string
	}
	queries := []distinctQuery{
		{"category", &opts.Categories},
		{"intent", &opts.Intents},
		{"sentiment", &opts.Sentiments},
		{"product", &opts.Products},
	}
	for _, q := range queries {
		err := s.db.WithContext(ctx).Model(&models.Message{}).
			Distinct(q.column).
			Where(q.column+" IS NOT NULL AND "+q.column+" != ''").
			Order(q.column+" ASC").
			Pluck(q.column, q.dest).Error
		if err != nil {
			return Options{}, fmt.Errorf("failed to list %s options: %w", q.column, err)
		}
	}

	var taxonomy []models.Category
	if err := s.db.WithContext(ctx).Order("macro ASC, name ASC").Find(&taxonomy).Error; err != nil {
		return Options{}, fmt.Errorf("failed to load taxonomy: %w", err)
	}
	for _, c := range taxonomy {
		opts.MacroToSubcategory[c.Macro] = append(opts.MacroToSubcategory[c.Macro], c.Name)
	}

	return opts, nil
}
