package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/pledge/internal/logic"
	"github.com/blues/pledge/internal/model"
	"github.com/gin-gonic/gin"
)

type PrizeHandler struct {
	prizeLogic *logic.PrizeLogic
}

func NewPrizeHandler(prizeLogic *logic.PrizeLogic) *PrizeHandler {
	return &PrizeHandler{prizeLogic: prizeLogic}
}

// DepositPrize 托管一份奖品。资产先入金库，入账失败不产生任何记录。
func (h *PrizeHandler) DepositPrize(c *gin.Context) {
	campaignId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return
	}

	var req struct {
		Kind         string `json:"kind" binding:"required"`
		Asset        string `json:"asset" binding:"required"`
		Amount       int64  `json:"amount"`
		AssetTokenId int64  `json:"asset_token_id"`
		Depositor    string `json:"depositor" binding:"required"`
		Description  string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var prize *model.PrizeModel
	switch model.PrizeKind(req.Kind) {
	case model.PrizeKindFungible:
		prize, err = h.prizeLogic.DepositFungible(c.Request.Context(), campaignId, req.Asset, req.Amount, req.Depositor, req.Description)
	case model.PrizeKindNonFungible:
		prize, err = h.prizeLogic.DepositNonFungible(c.Request.Context(), campaignId, req.Asset, req.AssetTokenId, req.Depositor, req.Description)
	default:
		ErrorResponse(c, http.StatusBadRequest, "无效的奖品类型")
		return
	}
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "奖品托管成功", prize)
}

// GetCampaignPrizes 获取活动的奖品列表
func (h *PrizeHandler) GetCampaignPrizes(c *gin.Context) {
	campaignId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return
	}

	prizes, err := h.prizeLogic.GetCampaignPrizes(campaignId)
	if err != nil {
		FailWith(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"prizes": prizes})
}

// DistributePrizes 补发奖品分发请求，活动结束时请求失败后可由此重试
func (h *PrizeHandler) DistributePrizes(c *gin.Context) {
	campaignId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return
	}

	if err := h.prizeLogic.EnsureDistribution(c.Request.Context(), campaignId); err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusAccepted, "奖品分发已发起", nil)
}
