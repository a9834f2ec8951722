package insight

import (
	"strings"

	"chatbot-insights-go/internal/models"
)

// Thread is the derived per-conversation aggregate.
type Thread struct {
	ThreadID           string `json:"thread_id"`
	Date               string `json:"date"` // date of the thread's first message
	MessageCount       int    `json:"msg_count"`
	FirstMessageSample string `json:"sample_text"` // first human message text
	HasEmptyMessage    bool   `json:"has_empty_msg"`
	IsReferral         bool   `json:"is_referral"`
	IsAdvisorRequest   bool   `json:"is_advisor_request"`
	RequestType        string `json:"request_type,omitempty"`
	Uncategorized      bool   `json:"uncategorized"`
}

// BuildThreads collapses records into one Thread per thread_id, in order of
// first appearance. Records are expected in ingest order so first-message
// fields resolve correctly.
func BuildThreads(records []models.Message) []Thread {
	index := make(map[string]int)
	threads := make([]Thread, 0)

	for _, m := range records {
		i, ok := index[m.ThreadID]
		if !ok {
			i = len(threads)
			index[m.ThreadID] = i
			threads = append(threads, Thread{
				ThreadID:      m.ThreadID,
				Date:          m.Date,
				Uncategorized: true,
			})
		}
		t := &threads[i]
		t.MessageCount++

		if t.FirstMessageSample == "" && m.SenderType == models.SenderHuman && m.Text != "" {
			t.FirstMessageSample = m.Text
		}
		if m.Text == "" {
			t.HasEmptyMessage = true
		}
		if m.IsReferral {
			t.IsReferral = true
		}
		if m.IsAdvisorRequest {
			t.IsAdvisorRequest = true
			if t.RequestType == "" {
				t.RequestType = deref(m.RequestType)
			}
		}
		if strings.TrimSpace(deref(m.Category)) != "" {
			t.Uncategorized = false
		}
	}

	return threads
}
