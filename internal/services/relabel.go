package services

import (
	"context"
	"fmt"
	"strings"

	"chatbot-insights-go/internal/config"
	"chatbot-insights-go/internal/insight"
	"chatbot-insights-go/internal/models"
	"chatbot-insights-go/internal/store"

	"go.uber.org/zap"
)

// RelabelService handles the human review queue: listing records flagged for
// review and applying corrected labels. A record leaves the queue only after
// the store confirms the write; a failed submission changes nothing.
type RelabelService struct {
	store    store.RecordStore
	taxonomy *TaxonomyService
	cfg      *config.Config
	log      *zap.Logger
}

// NewRelabelService creates a new relabel service
func NewRelabelService(recordStore store.RecordStore, taxonomy *TaxonomyService, cfg *config.Config, log *zap.Logger) *RelabelService {
	return &RelabelService{
		store:    recordStore,
		taxonomy: taxonomy,
		cfg:      cfg,
		log:      log,
	}
}

// PendingResult is one page of the review queue.
type PendingResult struct {
	Data  []models.Message `json:"data"`
	Total int              `json:"total"`
}

// Pending lists records awaiting human review, newest first.
func (s *RelabelService) Pending(ctx context.Context, page, pageSize int) (*PendingResult, error) {
	if pageSize == 0 {
		pageSize = s.cfg.Query.DefaultPageSize
	}
	if pageSize < 0 {
		return nil, fmt.Errorf("%w: page size must be positive, got %d", insight.ErrInvalidArgument, pageSize)
	}
	if page < 1 {
		page = 1
	}

	records, total, err := s.store.ListPendingReview(ctx, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", insight.ErrDataUnavailable, err)
	}
	return &PendingResult{Data: records, Total: total}, nil
}

// RelabelRequest carries a human correction for one record. Category is
// required; the rest apply only when set.
type RelabelRequest struct {
	Category  string  `json:"category" binding:"required"`
	Intent    *string `json:"intent"`
	Sentiment *string `json:"sentiment"`
	Product   *string `json:"product"`
}

// Submit validates and applies a correction. When the new category does not
// contain the record's current intent, the intent is cleared rather than
// left pointing at a foreign category.
func (s *RelabelService) Submit(ctx context.Context, messageID string, req RelabelRequest) error {
	category := strings.TrimSpace(req.Category)
	if category == "" {
		return fmt.Errorf("%w: category is required", insight.ErrInvalidArgument)
	}
	if !s.taxonomy.HasCategory(category) && category != insight.Uncategorized {
		return fmt.Errorf("%w: unknown category %q", insight.ErrInvalidArgument, category)
	}

	if req.Sentiment != nil {
		switch *req.Sentiment {
		case models.SentimentPositive, models.SentimentNeutral, models.SentimentNegative:
		default:
			return fmt.Errorf("%w: unknown sentiment %q", insight.ErrInvalidArgument, *req.Sentiment)
		}
	}

	relabel := store.Relabel{
		Category:  category,
		Sentiment: req.Sentiment,
		Product:   req.Product,
	}

	if req.Intent != nil {
		intent := strings.TrimSpace(*req.Intent)
		if intent != "" && !s.taxonomy.IntentBelongs(category, intent) {
			return fmt.Errorf("%w: intent %q does not belong to category %q", insight.ErrInvalidArgument, intent, category)
		}
		relabel.Intent = &intent
	} else {
		// No intent supplied: keep the current one if it still fits the new
		// category, otherwise reset it. The reset decision needs the current
		// intent, so an unreadable record aborts the submit rather than
		// risking a foreign intent under the new category.
		record, err := s.store.GetRecord(ctx, messageID)
		if err != nil {
			return fmt.Errorf("%w: %v", insight.ErrDataUnavailable, err)
		}
		if record.Intent != nil && *record.Intent != "" && !s.taxonomy.IntentBelongs(category, *record.Intent) {
			cleared := ""
			relabel.Intent = &cleared
		}
	}

	if err := s.store.SubmitRelabel(ctx, messageID, relabel); err != nil {
		return fmt.Errorf("%w: %v", insight.ErrDataUnavailable, err)
	}

	s.log.Info("record relabeled",
		zap.String("message_id", messageID),
		zap.String("category", category))
	return nil
}
