package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/pledge/internal/logic"
	"github.com/gin-gonic/gin"
)

type TokenHandler struct {
	tokenLogic *logic.TokenLogic
}

func NewTokenHandler(tokenLogic *logic.TokenLogic) *TokenHandler {
	return &TokenHandler{tokenLogic: tokenLogic}
}

// GetUserTokens 获取用户持有的成就凭证
func (h *TokenHandler) GetUserTokens(c *gin.Context) {
	address := c.Param("address")

	tokens, err := h.tokenLogic.ListUserTokens(address)
	if err != nil {
		FailWith(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// GetTokenMetadata 获取凭证元数据
func (h *TokenHandler) GetTokenMetadata(c *gin.Context) {
	tokenId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的凭证ID")
		return
	}

	metadata, err := h.tokenLogic.Describe(tokenId)
	if err != nil {
		FailWith(c, err)
		return
	}

	uri, err := h.tokenLogic.DescribeURI(tokenId)
	if err != nil {
		FailWith(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"metadata": metadata,
		"uri":      uri,
	})
}

// TransferToken 转移凭证。凭证与获得者绑定，任何转移都会被拒绝。
func (h *TokenHandler) TransferToken(c *gin.Context) {
	tokenId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的凭证ID")
		return
	}

	var req struct {
		From   string `json:"from" binding:"required"`
		To     string `json:"to" binding:"required"`
		Caller string `json:"caller" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.tokenLogic.Transfer(tokenId, req.From, req.To, req.Caller); err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "转移成功", nil)
}
