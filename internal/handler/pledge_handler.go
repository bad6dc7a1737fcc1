package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/pledge/internal/logic"
	"github.com/gin-gonic/gin"
)

type PledgeHandler struct {
	pledgeLogic *logic.PledgeLogic
}

func NewPledgeHandler(pledgeLogic *logic.PledgeLogic) *PledgeHandler {
	return &PledgeHandler{pledgeLogic: pledgeLogic}
}

// CreatePledge 记录一笔出资
func (h *PledgeHandler) CreatePledge(c *gin.Context) {
	campaignId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return
	}

	var req struct {
		Pledger string `json:"pledger" binding:"required"`
		Amount  int64  `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	pledge, err := h.pledgeLogic.RecordPledge(c.Request.Context(), campaignId, req.Pledger, req.Amount)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "出资成功", pledge)
}

// GetCampaignPledges 获取活动的出资记录
func (h *PledgeHandler) GetCampaignPledges(c *gin.Context) {
	campaignId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	pledges, total, err := h.pledgeLogic.GetCampaignPledges(campaignId, page, pageSize)
	if err != nil {
		FailWith(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pledges":   pledges,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetUserPledged 获取用户的累计出资额（按原始金额计）
func (h *PledgeHandler) GetUserPledged(c *gin.Context) {
	address := c.Param("address")

	total, err := h.pledgeLogic.TotalPledgedByUser(address)
	if err != nil {
		FailWith(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address": address,
		"pledged": total,
	})
}

// GetUserPledges 获取用户的出资记录
func (h *PledgeHandler) GetUserPledges(c *gin.Context) {
	address := c.Param("address")

	pledges, err := h.pledgeLogic.GetUserPledges(address)
	if err != nil {
		FailWith(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pledges": pledges})
}
