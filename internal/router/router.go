package router

import (
	"github.com/blues/pledge/internal/handler"
	"github.com/blues/pledge/internal/logic"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Setup(
	campaignLogic *logic.CampaignLogic,
	pledgeLogic *logic.PledgeLogic,
	tokenLogic *logic.TokenLogic,
	raffleLogic *logic.RaffleLogic,
	requestLogic *logic.RequestLogic,
	prizeLogic *logic.PrizeLogic,
	eventLogic *logic.EventLogic,
) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "pledge-service",
		})
	})

	// Prometheus指标
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 活动相关路由
		campaignHandler := handler.NewCampaignHandler(campaignLogic)
		pledgeHandler := handler.NewPledgeHandler(pledgeLogic)
		prizeHandler := handler.NewPrizeHandler(prizeLogic)
		raffleHandler := handler.NewRaffleHandler(raffleLogic, requestLogic, eventLogic)
		campaigns := v1.Group("/campaigns")
		{
			campaigns.POST("", campaignHandler.CreateCampaign)
			campaigns.GET("", campaignHandler.GetCampaigns)
			campaigns.GET("/count", campaignHandler.CampaignCount)
			campaigns.GET("/:id", campaignHandler.GetCampaign)
			campaigns.POST("/:id/end", campaignHandler.EndCampaign)
			campaigns.POST("/:id/withdraw", campaignHandler.WithdrawCampaignFunds)
			campaigns.POST("/:id/pledges", pledgeHandler.CreatePledge)
			campaigns.GET("/:id/pledges", pledgeHandler.GetCampaignPledges)
			campaigns.POST("/:id/prizes", prizeHandler.DepositPrize)
			campaigns.GET("/:id/prizes", prizeHandler.GetCampaignPrizes)
			campaigns.POST("/:id/distribute", prizeHandler.DistributePrizes)
			campaigns.GET("/:id/events", raffleHandler.GetCampaignEvents)
		}

		// 抽奖与随机数相关路由
		raffles := v1.Group("/raffles")
		{
			raffles.POST("/daily/draw", raffleHandler.DrawDailyRaffle)
		}
		vrf := v1.Group("/vrf")
		{
			vrf.GET("/fee", raffleHandler.EstimateVrfFee)
			vrf.POST("/fund", raffleHandler.FundVrfReserve)
			vrf.GET("/pool", raffleHandler.GetFeePool)
		}

		// 用户相关路由
		tokenHandler := handler.NewTokenHandler(tokenLogic)
		users := v1.Group("/users")
		{
			users.GET("/:address/pledged", pledgeHandler.GetUserPledged)
			users.GET("/:address/pledges", pledgeHandler.GetUserPledges)
			users.GET("/:address/tokens", tokenHandler.GetUserTokens)
		}

		// 成就凭证相关路由
		tokens := v1.Group("/tokens")
		{
			tokens.GET("/:id/metadata", tokenHandler.GetTokenMetadata)
			tokens.POST("/:id/transfer", tokenHandler.TransferToken)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
