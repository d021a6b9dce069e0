// internal/api/router.go
package api

import (
	"time"

	"github.com/gin-gonic/gin"
)

// RouterOptions tunes the HTTP surface.
type RouterOptions struct {
	Debug bool
	// RateLimitPerMinute bounds generation and export calls per client IP.
	// Zero disables the limit.
	RateLimitPerMinute int
}

// SetupRouter builds the gin engine with every route registered.
func SetupRouter(handler *Handler, opts RouterOptions) *gin.Engine {
	if !opts.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(accessLog(handler.logger, handler.metrics))
	r.Use(corsMiddleware())

	// generation and export calls are expensive; everything else is not
	limited := RateLimitByIP(NewRateLimiter(opts.RateLimitPerMinute, time.Minute), handler.response)

	r.GET("/health", handler.Health)
	r.GET("/ws/progress/:taskID", handler.ProgressWebSocket)

	api := r.Group("/api")
	{
		api.GET("/health", handler.Health)
		api.GET("/metrics", handler.GetMetrics)
		api.GET("/progress/:taskID", handler.SubscribeProgress)

		// ===============================
		// LLM configuration
		// ===============================
		llmGroup := api.Group("/llm")
		{
			llmGroup.GET("/status", handler.GetLLMStatus)
			llmGroup.GET("/providers", handler.GetLLMProviders)
			llmGroup.GET("/models", handler.GetLLMModels)
			llmGroup.PUT("/config", handler.UpdateLLMConfig)
		}

		// ===============================
		// Sessions
		// ===============================
		sessions := api.Group("/sessions")
		{
			sessions.GET("", handler.ListSessions)
			sessions.POST("", handler.CreateSession)
			sessions.GET("/:id", handler.GetSession)
			sessions.DELETE("/:id", handler.DeleteSession)
			sessions.POST("/:id/reset", handler.ResetSession)
			sessions.POST("/:id/phase", handler.AdvancePhase)
			sessions.PUT("/:id/text/:field", handler.EditText)

			create := sessions.Group("/:id/create")
			{
				create.PUT("/course-info", handler.SetCourseInfo)
				create.POST("/research", limited, handler.Research)
				create.PUT("/suggested-modules", handler.SetSuggestedModules)
				create.POST("/landscape/:category/:itemID/toggle", handler.ToggleLandscapeItem)
				create.POST("/modules/approve", handler.ApproveModules)
				create.PATCH("/modules/:index", handler.UpdateModule)
				create.POST("/modules/:index/interview", limited, handler.Interview)
				create.POST("/modules/:index/concepts/:conceptID/deep-dive", limited, handler.DeepDive)
				create.POST("/assessments", limited, handler.Assessments)
				create.POST("/delivery", limited, handler.Delivery)
			}

			enhance := sessions.Group("/:id/enhance")
			{
				enhance.POST("/files", handler.UploadFile)
				enhance.DELETE("/files/:fileID", handler.RemoveFile)
				enhance.POST("/analyze", limited, handler.Analyze)
				enhance.POST("/gaps", handler.AddGap)
				enhance.PUT("/gaps/:gapID", handler.SetGapAction)
				enhance.PUT("/strengths/:strengthID", handler.SetStrengthAction)
				enhance.POST("/whats-new", limited, handler.WhatsNew)
				enhance.PATCH("/whats-new/:itemID", handler.SetWhatsNewItem)
				enhance.POST("/proposals", limited, handler.Proposals)
				enhance.POST("/proposals/:proposalID/toggle", handler.ToggleProposal)
				enhance.POST("/changes", limited, handler.GenerateChanges)
				enhance.POST("/changes/:changeID/regenerate", limited, handler.RegenerateChange)
				enhance.POST("/changes/:changeID/approve", handler.ApproveChange)
				enhance.POST("/changes/:changeID/reject", handler.RejectChange)
				enhance.PUT("/changes/:changeID/feedback", handler.SetChangeFeedback)
			}

			export := sessions.Group("/:id/export")
			{
				export.GET("/files", handler.ExportFiles)
				export.GET("/markdown", limited, handler.ExportMarkdown)
				export.GET("/slides", limited, handler.ExportSlides)
				export.GET("/pdf", limited, handler.ExportPDF)
			}
		}
	}

	return r
}
