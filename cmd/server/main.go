package main

import (
	"log"
	"time"

	"github.com/blues/pledge/internal/config"
	"github.com/blues/pledge/internal/database"
	"github.com/blues/pledge/internal/event"
	"github.com/blues/pledge/internal/logger"
	"github.com/blues/pledge/internal/logic"
	"github.com/blues/pledge/internal/router"
	"github.com/blues/pledge/internal/task"
	"github.com/blues/pledge/internal/vault"
	"github.com/blues/pledge/internal/vrf"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	logger.Setup(cfg.Log)

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// 初始化随机数预言机客户端
	vrfClient, err := vrf.Init(cfg.Vrf)
	if err != nil {
		log.Fatalf("Failed to initialize vrf client: %v", err)
	}

	// 初始化奖品金库
	assetVault, err := vault.Init(cfg.Vrf)
	if err != nil {
		log.Fatalf("Failed to initialize asset vault: %v", err)
	}

	// 初始化业务逻辑
	eventLogic := logic.NewEventLogic(db)
	tokenLogic := logic.NewTokenLogic(db)
	requestLogic := logic.NewRequestLogic(db, vrfClient, assetVault, eventLogic)
	raffleLogic := logic.NewRaffleLogic(db, requestLogic, eventLogic, clockwork.NewRealClock(),
		cfg.Raffle.MilestoneStepBps, time.Duration(cfg.Raffle.DailyIntervalHours)*time.Hour)
	campaignLogic := logic.NewCampaignLogic(db, eventLogic, requestLogic, cfg.Raffle.MilestoneStepBps)
	prizeLogic := logic.NewPrizeLogic(db, assetVault, eventLogic, requestLogic)
	pledgeLogic := logic.NewPledgeLogic(db, cfg.Fee.Schedule(), tokenLogic, eventLogic, raffleLogic, requestLogic)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(campaignLogic, pledgeLogic, tokenLogic, raffleLogic, requestLogic, prizeLogic, eventLogic)

	// 启动定时任务
	manager := task.Start(cfg, raffleLogic, requestLogic)
	defer manager.Stop()

	// 启动回调事件监控
	processor := event.NewFulfillmentProcessor(requestLogic)
	monitor := event.NewMonitor(db, vrfClient, processor, cfg.Vrf.StartBlock,
		time.Duration(cfg.Vrf.PollIntervalSeconds)*time.Second)
	if err := monitor.Start(); err != nil {
		log.Fatalf("Failed to start fulfillment monitor: %v", err)
	}
	defer monitor.Stop()

	// 启动服务器
	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
