package api

import (
	"chatbot-insights-go/internal/config"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, handler *Handler, cfg *config.Config) {
	v1 := router.Group("/api/v1")
	{
		// System endpoints
		v1.GET("/health", handler.HealthCheck)
		v1.GET("/ready", handler.ReadyCheck)
		v1.GET("/options", handler.GetOptions)

		// Corpus exploration
		v1.GET("/messages", handler.ListMessages)
		v1.GET("/summary", handler.GetSummary)
		v1.GET("/faqs", handler.GetFaqs)
		conversations := v1.Group("/conversations")
		{
			conversations.GET("/:id", handler.GetConversation)
		}

		// Escalation panels
		v1.GET("/failures", handler.ListFailures)
		v1.GET("/referrals", handler.ListReferrals)
		v1.GET("/uncategorized", handler.ListUncategorized)
		v1.GET("/advisors", handler.ListAdvisors)

		// Analytics panels
		v1.GET("/kpis", handler.GetKPIs)
		v1.GET("/temporal", handler.GetTemporal)
		v1.GET("/surveys", handler.GetSurveys)
		insights := v1.Group("/insights")
		{
			insights.GET("", handler.GetInsights)
			insights.GET("/qualitative", handler.GetQualitative)
		}

		// Human review
		reviews := v1.Group("/reviews")
		{
			reviews.GET("", handler.ListReviews)
			reviews.POST("/:id/relabel", handler.SubmitRelabel)
		}

		// Ingestion jobs
		jobs := v1.Group("/jobs")
		{
			jobs.POST("/reprocess", handler.StartReprocess)
			jobs.GET("/status", handler.GetJobStatus)
		}
	}
}

// SetupMiddleware configures all middleware
func SetupMiddleware(router *gin.Engine, cfg *config.Config) {
	router.Use(RequestIDMiddleware())

	allowedOrigins := []string{"http://localhost:3000", "http://localhost:8080"}
	router.Use(CORSMiddleware(allowedOrigins))

	limiter := rate.NewLimiter(rate.Limit(float64(cfg.RateLimit.RequestsPerMinute)/60.0), cfg.RateLimit.BurstSize)
	router.Use(RateLimitMiddleware(limiter))
}
