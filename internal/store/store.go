package store

import (
	"context"

	"chatbot-insights-go/internal/models"
)

// Options are the valid values for filter dropdowns plus the
// category-to-intent membership map driving the dependent-field reset.
type Options struct {
	Categories         []string            `json:"categories"`
	Intents            []string            `json:"intents"`
	Sentiments         []string            `json:"sentiments"`
	Products           []string            `json:"products"`
	MacroToSubcategory map[string][]string `json:"macro_to_subcategory"`
}

// Relabel is a human correction for one record. Category is required; the
// other fields override only when non-nil. An Intent pointing at an empty
// string clears the record's intent (dependent-field reset after a category
// change).
type Relabel struct {
	Category  string
	Intent    *string
	Sentiment *string
	Product   *string
}

// RecordStore is the record source boundary. Reads return full matching sets;
// pagination happens in the query engine, not here.
type RecordStore interface {
	// ListRecords returns the whole corpus snapshot in ingest order.
	ListRecords(ctx context.Context) ([]models.Message, error)

	// GetRecord returns the record with the given source message ID.
	GetRecord(ctx context.Context, messageID string) (models.Message, error)

	// ListPendingReview returns the page of messages awaiting relabeling,
	// newest first, plus the full pending count.
	ListPendingReview(ctx context.Context, page, pageSize int) ([]models.Message, int, error)

	// SubmitRelabel applies a correction to one record and clears its
	// pending-review mark. The record's prior state stays intact when the
	// write fails.
	SubmitRelabel(ctx context.Context, messageID string, r Relabel) error

	// ListOptions returns the valid filter values.
	ListOptions(ctx context.Context) (Options, error)
}
