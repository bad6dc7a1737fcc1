package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/pledge/internal/logic"
	"github.com/gin-gonic/gin"
)

type RaffleHandler struct {
	raffleLogic  *logic.RaffleLogic
	requestLogic *logic.RequestLogic
	eventLogic   *logic.EventLogic
}

func NewRaffleHandler(raffleLogic *logic.RaffleLogic, requestLogic *logic.RequestLogic, eventLogic *logic.EventLogic) *RaffleHandler {
	return &RaffleHandler{
		raffleLogic:  raffleLogic,
		requestLogic: requestLogic,
		eventLogic:   eventLogic,
	}
}

// DrawDailyRaffle 触发每日抽奖，任何调用方都可以触发，窗口由服务端校验
func (h *RaffleHandler) DrawDailyRaffle(c *gin.Context) {
	request, err := h.raffleLogic.DrawDaily(c.Request.Context())
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusAccepted, "每日抽奖已发起", gin.H{
		"correlation_id": request.CorrelationId,
		"scope":          request.Scope,
	})
}

// EstimateVrfFee 估算一次随机数请求的费用
func (h *RaffleHandler) EstimateVrfFee(c *gin.Context) {
	fee, err := h.requestLogic.EstimateFee(c.Request.Context())
	if err != nil {
		FailWith(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"fee": fee})
}

// FundVrfReserve 向随机数储备金注资
func (h *RaffleHandler) FundVrfReserve(c *gin.Context) {
	var req struct {
		Funder string `json:"funder" binding:"required"`
		Amount int64  `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	reserve, err := h.requestLogic.FundReserve(req.Funder, req.Amount)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "注资成功", gin.H{"vrf_reserve": reserve})
}

// GetFeePool 查询平台资金池状态
func (h *RaffleHandler) GetFeePool(c *gin.Context) {
	pool, err := h.requestLogic.GetFeePool()
	if err != nil {
		FailWith(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"fee_pool": pool})
}

// GetCampaignEvents 获取活动事件记录
func (h *RaffleHandler) GetCampaignEvents(c *gin.Context) {
	campaignId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	eventType := c.Query("type")

	events, total, err := h.eventLogic.GetEvents(campaignId, eventType, page, pageSize)
	if err != nil {
		FailWith(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events":    events,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}
