package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"chatbot-insights-go/internal/models"
)

// Memory is an in-memory RecordStore used in tests. Err, when set, is
// returned by every read to simulate an unavailable record source.
type Memory struct {
	mu      sync.Mutex
	Records []models.Message
	Opts    Options
	Err     error
}

// NewMemory creates a memory store seeded with records.
func NewMemory(records []models.Message) *Memory {
	return &Memory{Records: records, Opts: Options{MacroToSubcategory: map[string][]string{}}}
}

func (m *Memory) ListRecords(ctx context.Context) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]models.Message, len(m.Records))
	copy(out, m.Records)
	return out, nil
}

func (m *Memory) GetRecord(ctx context.Context, messageID string) (models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return models.Message{}, m.Err
	}
	for _, r := range m.Records {
		if r.MessageID == messageID {
			return r, nil
		}
	}
	return models.Message{}, fmt.Errorf("record not found: %s", messageID)
}

func (m *Memory) ListPendingReview(ctx context.Context, page, pageSize int) ([]models.Message, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, 0, m.Err
	}
	if page < 1 {
		page = 1
	}

	pending := make([]models.Message, 0)
	for _, r := range m.Records {
		if r.RequiresReview {
			pending = append(pending, r)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		if pending[i].Date != pending[j].Date {
			return pending[i].Date > pending[j].Date
		}
		return pending[i].Seq > pending[j].Seq
	})

	total := len(pending)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return pending[start:end], total, nil
}

func (m *Memory) SubmitRelabel(ctx context.Context, messageID string, r Relabel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}

	for i := range m.Records {
		if m.Records[i].MessageID != messageID {
			continue
		}
		category := r.Category
		m.Records[i].Category = &category
		if r.Intent != nil {
			if *r.Intent == "" {
				m.Records[i].Intent = nil
			} else {
				m.Records[i].Intent = r.Intent
			}
		}
		if r.Sentiment != nil {
			m.Records[i].Sentiment = r.Sentiment
		}
		if r.Product != nil {
			m.Records[i].Product = r.Product
		}
		m.Records[i].RequiresReview = false
		return nil
	}
	return fmt.Errorf("record not found: %s", messageID)
}

func (m *Memory) ListOptions(ctx context.Context) (Options, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return Options{}, m.Err
	}
	return m.Opts, nil
}
