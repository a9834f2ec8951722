package services

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"chatbot-insights-go/internal/config"
	"chatbot-insights-go/internal/database"
	"chatbot-insights-go/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReprocessService runs the ingestion pipeline: CSV export -> normalized,
// deduplicated, escalation-flagged records, replacing the corpus wholesale.
// Only one run can be in flight at a time.
type ReprocessService struct {
	cfg *config.Config
	log *zap.Logger

	mu        sync.Mutex
	running   bool
	startedAt time.Time
}

// NewReprocessService creates a new reprocess service
func NewReprocessService(cfg *config.Config, log *zap.Logger) *ReprocessService {
	return &ReprocessService{
		cfg: cfg,
		log: log,
	}
}

// JobStatus is the poll view of the reprocess pipeline.
type JobStatus struct {
	IsRunning      bool    `json:"is_running"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	LastStatus     string  `json:"last_status"`
}

// Start launches a reprocess run in the background. It fails when a run is
// already in flight.
func (s *ReprocessService) Start() (*models.JobRun, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, fmt.Errorf("reprocess job already running")
	}
	s.running = true
	s.startedAt = time.Now().UTC()
	s.mu.Unlock()

	job := models.JobRun{
		UUID:      uuid.New().String(),
		StartedAt: s.startedAt,
		Status:    models.JobRunning,
	}
	if err := database.DB.Create(&job).Error; err != nil {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to create job record: %w", err)
	}

	go s.run(job)

	return &job, nil
}

// Status reports whether a run is in flight plus the last recorded outcome.
func (s *ReprocessService) Status() (JobStatus, error) {
	s.mu.Lock()
	running := s.running
	startedAt := s.startedAt
	s.mu.Unlock()

	status := JobStatus{IsRunning: running}
	if running {
		status.ElapsedSeconds = time.Since(startedAt).Seconds()
	}

	var last models.JobRun
	err := database.DB.Order("started_at DESC").First(&last).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			status.LastStatus = "never_run"
			return status, nil
		}
		return JobStatus{}, fmt.Errorf("failed to load last job: %w", err)
	}
	status.LastStatus = last.Status

	return status, nil
}

func (s *ReprocessService) run(job models.JobRun) {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	err := s.ingest(&job)

	completedAt := time.Now().UTC()
	job.CompletedAt = &completedAt
	if err != nil {
		msg := err.Error()
		job.Status = models.JobFailed
		job.ErrorMessage = &msg
		s.log.Error("Reprocess job failed", zap.String("job", job.UUID), zap.Error(err))
	} else {
		job.Status = models.JobCompleted
		s.log.Info("Reprocess job completed",
			zap.String("job", job.UUID),
			zap.Duration("elapsed", completedAt.Sub(job.StartedAt)),
		)
	}

	if saveErr := database.DB.Save(&job).Error; saveErr != nil {
		s.log.Error("Failed to save job record", zap.String("job", job.UUID), zap.Error(saveErr))
	}
}

// ingest parses the CSV export, normalizes and dedups records, stamps
// escalation flags, and replaces the messages table in one transaction.
func (s *ReprocessService) ingest(job *models.JobRun) error {
	records, dropped, err := s.parseCSV(s.cfg.Data.CSVPath)
	if err != nil {
		return fmt.Errorf("failed to parse CSV: %w", err)
	}

	records, duplicates := dedupRecords(records)
	applyEscalationFlags(records)

	for i := range records {
		records[i].Seq = i
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM messages").Error; err != nil {
			return fmt.Errorf("failed to clear messages: %w", err)
		}

		batchSize := 1000
		for i := 0; i < len(records); i += batchSize {
			end := i + batchSize
			if end > len(records) {
				end = len(records)
			}
			if err := tx.CreateInBatches(records[i:end], batchSize).Error; err != nil {
				return fmt.Errorf("failed to create messages batch: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	referrals := 0
	for _, r := range records {
		if r.IsReferral {
			referrals++
		}
	}

	stats := map[string]interface{}{
		"records_loaded":     len(records),
		"rows_skipped":       dropped,
		"duplicates_dropped": duplicates,
		"referrals_flagged":  referrals,
	}
	statsJSON, _ := json.Marshal(stats)
	job.Stats = string(statsJSON)

	s.log.Info("Ingestion completed",
		zap.Int("records", len(records)),
		zap.Int("skipped", dropped),
		zap.Int("duplicates", duplicates),
	)
	return nil
}

// sentimentAliases folds classifier output variants onto the canonical set.
var sentimentAliases = map[string]string{
	"positive": models.SentimentPositive,
	"positivo": models.SentimentPositive,
	"neutral":  models.SentimentNeutral,
	"neutro":   models.SentimentNeutral,
	"neutra":   models.SentimentNeutral,
	"negative": models.SentimentNegative,
	"negativo": models.SentimentNegative,
}

// noiseLabels are classifier outputs that mean "no label".
var noiseLabels = map[string]bool{
	"":                    true,
	"nan":                 true,
	"none":                true,
	"null":                true,
	"ninguno":             true,
	"desconocido":         true,
	"sin clasificar":      true,
	"sin intencion clara": true,
	"sin intención clara": true,
}

func (s *ReprocessService) parseCSV(path string) ([]models.Message, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open data file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // tolerate ragged rows, we validate per field

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read CSV header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"message_id", "thread_id", "sender_type"} {
		if _, ok := col[required]; !ok {
			return nil, 0, fmt.Errorf("CSV is missing required column %q", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []models.Message
	skipped := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		m := models.Message{
			MessageID:  field(row, "message_id"),
			ThreadID:   field(row, "thread_id"),
			SenderType: strings.ToLower(field(row, "sender_type")),
			Text:       field(row, "text"),
			Date:       normalizeDate(field(row, "date")),
			Category:   normalizeLabel(field(row, "category")),
			Intent:     normalizeLabel(field(row, "intent")),
			Product:    normalizeLabel(field(row, "product")),
			Sentiment:  normalizeSentiment(field(row, "sentiment")),
		}
		if m.MessageID == "" || m.ThreadID == "" {
			skipped++
			continue
		}
		switch m.SenderType {
		case models.SenderHuman, models.SenderAI, models.SenderTool:
		default:
			skipped++
			continue
		}
		if hour, err := strconv.Atoi(field(row, "hour")); err == nil && hour >= 0 && hour <= 23 {
			m.Hour = hour
		}
		if field(row, "requires_review") == "1" || strings.EqualFold(field(row, "requires_review"), "true") {
			m.RequiresReview = true
		}

		records = append(records, m)
	}

	return records, skipped, nil
}

// normalizeDate coerces dates to YYYY-MM-DD; unparseable dates become empty.
func normalizeDate(raw string) string {
	if raw == "" {
		return ""
	}
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339, "02/01/2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

// normalizeLabel maps noise classifier output to a missing label.
func normalizeLabel(raw string) *string {
	if noiseLabels[strings.ToLower(raw)] {
		return nil
	}
	return &raw
}

func normalizeSentiment(raw string) *string {
	if canonical, ok := sentimentAliases[strings.ToLower(raw)]; ok {
		return &canonical
	}
	return nil
}

// dedupRecords drops exact re-imports: first by source message ID, then by
// content for rows that got fresh IDs for the same event.
func dedupRecords(records []models.Message) ([]models.Message, int) {
	seenID := make(map[string]bool, len(records))
	seenContent := make(map[string]bool, len(records))

	out := records[:0]
	duplicates := 0
	for _, m := range records {
		if seenID[m.MessageID] {
			duplicates++
			continue
		}
		contentKey := strings.Join([]string{m.ThreadID, m.SenderType, m.Text, m.Date, strconv.Itoa(m.Hour)}, "\x00")
		if seenContent[contentKey] {
			duplicates++
			continue
		}
		seenID[m.MessageID] = true
		seenContent[contentKey] = true
		out = append(out, m)
	}
	return out, duplicates
}
