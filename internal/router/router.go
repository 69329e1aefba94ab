package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sovseas/sse/internal/engine"
	"github.com/sovseas/sse/internal/handler"
	"gorm.io/gorm"
)

func Setup(eng *engine.Engine, db *gorm.DB) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "sovereign-seas-engine",
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 活动相关路由
		campaignHandler := handler.NewCampaignHandler(eng, db)
		voteHandler := handler.NewVoteHandler(eng, db)
		eventHandler := handler.NewEventHandler(db)
		campaigns := v1.Group("/campaigns")
		{
			campaigns.POST("", campaignHandler.CreateCampaign)
			campaigns.GET("", campaignHandler.GetCampaigns)
			campaigns.GET("/:id", campaignHandler.GetCampaign)
			campaigns.GET("/:id/stats", campaignHandler.GetCampaignStats)
			campaigns.POST("/:id/join", campaignHandler.JoinCampaign)
			campaigns.GET("/:id/participations", campaignHandler.GetParticipations)
			campaigns.POST("/:id/participations/:project_id/approve", campaignHandler.ApproveParticipation)
			campaigns.POST("/:id/stewards", campaignHandler.AddSteward)
			campaigns.POST("/:id/finalize", campaignHandler.FinalizeCampaign)
			campaigns.GET("/:id/payouts", campaignHandler.GetPayoutRecords)
			campaigns.POST("/:id/votes", voteHandler.CastVote)
			campaigns.GET("/:id/votes", voteHandler.GetVoteRecords)
			campaigns.GET("/:id/events", eventHandler.GetCampaignEvents)
		}

		// 投票人与账户流水路由
		v1.GET("/voters/:voter/votes", voteHandler.GetVoterRecords)
		v1.GET("/accounts/:account/payouts", eventHandler.GetAccountPayouts)
		v1.GET("/accounts/:account/refunds", eventHandler.GetAccountRefunds)

		// 项目相关路由
		projectHandler := handler.NewProjectHandler(eng, db)
		milestoneHandler := handler.NewMilestoneHandler(eng, db)
		projects := v1.Group("/projects")
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.GetProjects)
			projects.GET("/:id", projectHandler.GetProject)
			projects.POST("/:id/transfer", projectHandler.TransferProject)
			projects.POST("/:id/deactivate", projectHandler.DeactivateProject)
			projects.GET("/:id/milestones", milestoneHandler.GetProjectMilestones)
		}

		// 里程碑相关路由
		milestones := v1.Group("/milestones")
		{
			milestones.POST("", milestoneHandler.CreateMilestone)
			milestones.GET("/:id", milestoneHandler.GetMilestone)
			milestones.POST("/:id/fund", milestoneHandler.FundMilestone)
			milestones.POST("/:id/claim", milestoneHandler.ClaimMilestone)
			milestones.POST("/:id/evidence", milestoneHandler.SubmitEvidence)
			milestones.POST("/:id/approve", milestoneHandler.ApproveMilestone)
			milestones.POST("/:id/reject", milestoneHandler.RejectMilestone)
			milestones.POST("/:id/reward", milestoneHandler.ClaimReward)
			milestones.POST("/:id/cancel", milestoneHandler.CancelMilestone)
			milestones.GET("/:id/fundings", milestoneHandler.GetFundings)
			milestones.GET("/:id/refunds", milestoneHandler.GetRefunds)
			milestones.GET("/:id/events", eventHandler.GetMilestoneEvents)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Account")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
