package models

import (
	"time"
)

// Sender types for Message.SenderType
const (
	SenderHuman = "human"
	SenderAI    = "ai"
	SenderTool  = "tool"
)

// Sentiment values for Message.Sentiment
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// Advisor request types for Message.RequestType
const (
	RequestImmediate   = "immediate"
	RequestAfterEffort = "after_effort"
)

// Job statuses for JobRun.Status
const (
	JobPending   = "pending"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// Message is one classified chat log entry. Several messages share a
// ThreadID; together they form a conversation.
type Message struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	MessageID string `gorm:"uniqueIndex;not null" json:"message_id"` // source system ID
	ThreadID  string `gorm:"not null;index" json:"thread_id"`
	Date      string `gorm:"type:date;not null;index" json:"date"` // YYYY-MM-DD
	Hour      int    `gorm:"not null" json:"hour"`                 // 0-23
	Seq       int    `gorm:"not null;index" json:"seq"`            // ingest order, proxies time within a thread

	SenderType string `gorm:"type:varchar(20);not null;index" json:"sender_type"` // human, ai, tool
	Text       string `gorm:"type:text" json:"text"`

	// Labels assigned by the external classifier; nil means unlabeled.
	Category  *string `gorm:"type:varchar(255);index" json:"category,omitempty"`
	Intent    *string `gorm:"type:varchar(255);index" json:"intent,omitempty"`
	Sentiment *string `gorm:"type:varchar(20)" json:"sentiment,omitempty"`
	Product   *string `gorm:"type:varchar(255)" json:"product,omitempty"`

	// Escalation flags, set during ingestion.
	IsReferral       bool    `gorm:"not null;default:false;index" json:"is_referral"`
	IsAdvisorRequest bool    `gorm:"not null;default:false" json:"is_advisor_request"`
	RequestType      *string `gorm:"type:varchar(20)" json:"request_type,omitempty"` // immediate, after_effort

	// RequiresReview marks messages queued for human relabeling.
	RequiresReview bool `gorm:"not null;default:false;index" json:"requires_review"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// Category is one taxonomy row mapping a subcategory to its macro group.
type Category struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Macro string `gorm:"type:varchar(255);not null;index" json:"macro"`
	Name  string `gorm:"type:varchar(255);not null;uniqueIndex" json:"name"`
}

// Product is one product taxonomy row.
type Product struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Macro string `gorm:"type:varchar(255);not null" json:"macro"`
	Name  string `gorm:"type:varchar(255);not null;uniqueIndex" json:"name"`
}

// JobRun tracks one execution of the reprocess pipeline.
type JobRun struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UUID         string     `gorm:"uniqueIndex;not null" json:"uuid"`
	StartedAt    time.Time  `gorm:"not null" json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Status       string     `gorm:"type:varchar(50);not null;index" json:"status"` // pending, running, completed, failed
	ErrorMessage *string    `json:"error_message,omitempty"`
	Stats        string     `gorm:"type:text" json:"stats"` // JSON: records_loaded, duplicates_dropped, referrals_flagged
}
