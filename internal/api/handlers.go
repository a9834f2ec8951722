package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"chatbot-insights-go/internal/database"
	"chatbot-insights-go/internal/insight"
	"chatbot-insights-go/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler holds all handlers and dependencies
type Handler struct {
	panelService     *services.PanelService
	relabelService   *services.RelabelService
	reprocessService *services.ReprocessService
	log              *zap.Logger
}

// NewHandler creates a new handler instance
func NewHandler(
	panelService *services.PanelService,
	relabelService *services.RelabelService,
	reprocessService *services.ReprocessService,
	log *zap.Logger,
) *Handler {
	return &Handler{
		panelService:     panelService,
		relabelService:   relabelService,
		reprocessService: reprocessService,
		log:              log,
	}
}

// HealthCheck handles health check endpoint
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ReadyCheck handles readiness check endpoint
func (h *Handler) ReadyCheck(c *gin.Context) {
	sqlDB, err := database.DB.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"reason": "database_connection_failed",
		})
		return
	}

	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"reason": "database_ping_failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// GetOptions lists the available filter values
func (h *Handler) GetOptions(c *gin.Context) {
	opts, err := h.panelService.Options(c.Request.Context())
	if err != nil {
		h.serviceError(c, "OPTIONS_ERROR", "Failed to load filter options", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"options": opts})
}

// ListMessages answers the message explorer query
func (h *Handler) ListMessages(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))

	params := services.MessagesParams{
		Filter:   filterFromQuery(c),
		Page:     page,
		PageSize: pageSize,
	}

	result, err := h.panelService.Messages(c.Request.Context(), params)
	if err != nil {
		h.serviceError(c, "MESSAGES_ERROR", "Failed to list messages", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": result.Data,
		"pagination": gin.H{
			"page":      page,
			"page_size": result.PageSize,
			"total":     result.Total,
		},
	})
}

// GetSummary answers the grouped summary table query
func (h *Handler) GetSummary(c *gin.Context) {
	params := services.SummaryParams{
		Range:   rangeFromQuery(c),
		SortKey: c.Query("sort"),
		SortDir: directionFromQuery(c),
	}

	result, err := h.panelService.SummaryTable(c.Request.Context(), params)
	if err != nil {
		h.serviceError(c, "SUMMARY_ERROR", "Failed to build summary table", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rows":   result.Rows,
		"totals": result.Totals,
	})
}

// GetFaqs answers the FAQ extraction query
func (h *Handler) GetFaqs(c *gin.Context) {
	k, _ := strconv.Atoi(c.DefaultQuery("k", "0"))

	faqs, err := h.panelService.Faqs(c.Request.Context(), k)
	if err != nil {
		h.serviceError(c, "FAQS_ERROR", "Failed to extract FAQs", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"faqs": faqs})
}

// ListFailures answers the failed-conversation query
func (h *Handler) ListFailures(c *gin.Context) {
	page, pageSize := pageFromQuery(c)

	result, err := h.panelService.Failures(c.Request.Context(), rangeFromQuery(c), page, pageSize)
	if err != nil {
		h.serviceError(c, "FAILURES_ERROR", "Failed to list failed conversations", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"failures": result.Data,
		"stats":    result.Stats,
		"pagination": gin.H{
			"page":  page,
			"total": result.Total,
		},
	})
}

// ListReferrals answers the service-line referral query
func (h *Handler) ListReferrals(c *gin.Context) {
	page, pageSize := pageFromQuery(c)

	result, err := h.panelService.Referrals(c.Request.Context(), rangeFromQuery(c), page, pageSize)
	if err != nil {
		h.serviceError(c, "REFERRALS_ERROR", "Failed to list referrals", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referrals": result.Data,
		"stats":     result.Stats,
		"pagination": gin.H{
			"page":  page,
			"total": result.Total,
		},
	})
}

// ListUncategorized answers the unclassified-conversation query
func (h *Handler) ListUncategorized(c *gin.Context) {
	page, pageSize := pageFromQuery(c)

	result, err := h.panelService.Uncategorized(c.Request.Context(), rangeFromQuery(c), page, pageSize)
	if err != nil {
		h.serviceError(c, "UNCATEGORIZED_ERROR", "Failed to list unclassified conversations", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversations": result.Data,
		"stats":         result.Stats,
		"pagination": gin.H{
			"page":  page,
			"total": result.Total,
		},
	})
}

// ListAdvisors answers the advisor-request query
func (h *Handler) ListAdvisors(c *gin.Context) {
	page, pageSize := pageFromQuery(c)

	result, err := h.panelService.Advisors(c.Request.Context(), rangeFromQuery(c), page, pageSize)
	if err != nil {
		h.serviceError(c, "ADVISORS_ERROR", "Failed to list advisor requests", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": result.Data,
		"stats":    result.Stats,
		"pagination": gin.H{
			"page":  page,
			"total": result.Total,
		},
	})
}

// GetKPIs answers the headline-numbers query
func (h *Handler) GetKPIs(c *gin.Context) {
	kpis, err := h.panelService.KPIs(c.Request.Context(), rangeFromQuery(c))
	if err != nil {
		h.serviceError(c, "KPIS_ERROR", "Failed to compute KPIs", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kpis": kpis})
}

// GetTemporal answers the volume-over-time query
func (h *Handler) GetTemporal(c *gin.Context) {
	result, err := h.panelService.Temporal(c.Request.Context(), rangeFromQuery(c))
	if err != nil {
		h.serviceError(c, "TEMPORAL_ERROR", "Failed to compute temporal breakdown", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetInsights answers the analytical-overview query
func (h *Handler) GetInsights(c *gin.Context) {
	result, err := h.panelService.Insights(c.Request.Context(), rangeFromQuery(c))
	if err != nil {
		h.serviceError(c, "INSIGHTS_ERROR", "Failed to compute insights", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetQualitative answers the sentiment-mix query
func (h *Handler) GetQualitative(c *gin.Context) {
	result, err := h.panelService.Qualitative(c.Request.Context(), rangeFromQuery(c))
	if err != nil {
		h.serviceError(c, "QUALITATIVE_ERROR", "Failed to compute qualitative breakdown", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetSurveys answers the in-chat survey query
func (h *Handler) GetSurveys(c *gin.Context) {
	result, err := h.panelService.Surveys(c.Request.Context(), rangeFromQuery(c))
	if err != nil {
		h.serviceError(c, "SURVEYS_ERROR", "Failed to summarize surveys", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"surveys": result})
}

// GetConversation answers the transcript query for one thread
func (h *Handler) GetConversation(c *gin.Context) {
	result, err := h.panelService.Conversation(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.serviceError(c, "CONVERSATION_ERROR", "Failed to load conversation", err)
		return
	}
	if result == nil {
		h.errorResponse(c, http.StatusNotFound, "NOT_FOUND", "Conversation not found", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": result})
}

// ListReviews lists records awaiting human relabeling
func (h *Handler) ListReviews(c *gin.Context) {
	page, pageSize := pageFromQuery(c)

	result, err := h.relabelService.Pending(c.Request.Context(), page, pageSize)
	if err != nil {
		h.serviceError(c, "REVIEWS_ERROR", "Failed to list pending reviews", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reviews": result.Data,
		"pagination": gin.H{
			"page":  page,
			"total": result.Total,
		},
	})
}

// SubmitRelabel applies a human correction to one record
func (h *Handler) SubmitRelabel(c *gin.Context) {
	var req services.RelabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_BODY", "Invalid relabel request body", err)
		return
	}

	if err := h.relabelService.Submit(c.Request.Context(), c.Param("id"), req); err != nil {
		h.serviceError(c, "RELABEL_ERROR", "Failed to apply relabel", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Record relabeled successfully",
	})
}

// StartReprocess launches the ingestion pipeline
func (h *Handler) StartReprocess(c *gin.Context) {
	job, err := h.reprocessService.Start()
	if err != nil {
		h.errorResponse(c, http.StatusConflict, "JOB_RUNNING", err.Error(), err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job": job})
}

// GetJobStatus reports the ingestion pipeline state
func (h *Handler) GetJobStatus(c *gin.Context) {
	status, err := h.reprocessService.Status()
	if err != nil {
		h.errorResponse(c, http.StatusInternalServerError, "STATUS_ERROR", "Failed to read job status", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": status})
}

// serviceError maps the insight sentinel errors onto HTTP statuses.
func (h *Handler) serviceError(c *gin.Context, code, message string, err error) {
	switch {
	case errors.Is(err, insight.ErrInvalidArgument):
		h.errorResponse(c, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error(), err)
	case errors.Is(err, insight.ErrDataUnavailable):
		h.errorResponse(c, http.StatusServiceUnavailable, "DATA_UNAVAILABLE", "Conversation data is unavailable", err)
	default:
		h.errorResponse(c, http.StatusInternalServerError, code, message, err)
	}
}

// errorResponse sends a standardized error response
func (h *Handler) errorResponse(c *gin.Context, status int, code, message string, err error) {
	requestID := c.GetString("request_id")

	response := gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
		"request_id": requestID,
	}

	if err != nil {
		h.log.Error("Request error",
			zap.String("code", code),
			zap.String("message", message),
			zap.Error(err),
			zap.String("request_id", requestID),
		)
	}

	c.JSON(status, response)
}

// Query parameter helpers

func pageFromQuery(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))
	return page, pageSize
}

func rangeFromQuery(c *gin.Context) services.DateRange {
	return services.DateRange{
		Start: c.Query("start_date"),
		End:   c.Query("end_date"),
	}
}

// directionFromQuery resolves the sort direction. A client that sends its
// previous sort state gets click-to-toggle semantics; otherwise the explicit
// dir parameter wins, defaulting to ascending.
func directionFromQuery(c *gin.Context) insight.Direction {
	if prevKey := c.Query("prev_sort"); prevKey != "" {
		prevDir := insight.Ascending
		if c.Query("prev_dir") == string(insight.Descending) {
			prevDir = insight.Descending
		}
		return insight.ToggleDirection(prevKey, c.Query("sort"), prevDir, insight.Ascending)
	}
	if c.Query("dir") == string(insight.Descending) {
		return insight.Descending
	}
	return insight.Ascending
}

func filterFromQuery(c *gin.Context) insight.Filter {
	return insight.Filter{
		StartDate:    c.Query("start_date"),
		EndDate:      c.Query("end_date"),
		Search:       c.Query("search"),
		Category:     c.Query("category"),
		Intent:       c.Query("intent"),
		Sentiment:    c.Query("sentiment"),
		Product:      c.Query("product"),
		SenderType:   c.Query("sender_type"),
		ThreadID:     c.Query("thread_id"),
		ExcludeEmpty: c.Query("exclude_empty") == "true",
		SortKey:      c.Query("sort"),
		SortDir:      directionFromQuery(c),
	}
}
