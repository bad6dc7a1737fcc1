package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/pledge/internal/logic"
	"github.com/gin-gonic/gin"
)

type CampaignHandler struct {
	campaignLogic *logic.CampaignLogic
}

func NewCampaignHandler(campaignLogic *logic.CampaignLogic) *CampaignHandler {
	return &CampaignHandler{campaignLogic: campaignLogic}
}

// CreateCampaign 创建活动
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req struct {
		Creator     string `json:"creator" binding:"required"`
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
		ImageURL    string `json:"image_url"`
		Goal        int64  `json:"goal"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	campaign, err := h.campaignLogic.CreateCampaign(req.Creator, req.Title, req.Description, req.ImageURL, req.Goal)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "活动创建成功", campaign)
}

// GetCampaigns 获取活动列表
func (h *CampaignHandler) GetCampaigns(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	campaigns, total, err := h.campaignLogic.GetCampaigns(page, pageSize)
	if err != nil {
		FailWith(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"campaigns": campaigns,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetCampaign 获取单个活动详情
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return
	}

	campaign, err := h.campaignLogic.GetCampaign(id)
	if err != nil {
		FailWith(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"campaign": campaign})
}

// CampaignCount 活动总数
func (h *CampaignHandler) CampaignCount(c *gin.Context) {
	count, err := h.campaignLogic.CampaignCount()
	if err != nil {
		FailWith(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// EndCampaign 结束活动，只有创建者可以调用
func (h *CampaignHandler) EndCampaign(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return
	}

	var req struct {
		Caller string `json:"caller" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.campaignLogic.EndCampaign(c.Request.Context(), id, req.Caller); err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "活动已结束", nil)
}

// WithdrawCampaignFunds 创建者提取活动资金
func (h *CampaignHandler) WithdrawCampaignFunds(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return
	}

	var req struct {
		Caller string `json:"caller" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := h.campaignLogic.WithdrawCampaignFunds(id, req.Caller)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "资金提取成功", gin.H{"amount": amount})
}
