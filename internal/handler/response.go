package handler

import (
	"errors"
	"net/http"

	"github.com/blues/pledge/internal/model"
	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// FailWith 按错误类型映射HTTP状态码
func FailWith(c *gin.Context, err error) {
	ErrorResponse(c, statusForError(err), err.Error())
}

func statusForError(err error) int {
	switch {
	// 输入校验错误
	case errors.Is(err, model.ErrInvalidGoal),
		errors.Is(err, model.ErrZeroAmount),
		errors.Is(err, model.ErrEmptyCandidateSet),
		errors.Is(err, model.ErrInvalidPrizeParams):
		return http.StatusBadRequest

	case errors.Is(err, model.ErrCampaignNotFound),
		errors.Is(err, model.ErrTokenNotFound),
		errors.Is(err, model.ErrUnknownRequest):
		return http.StatusNotFound

	// 权限错误
	case errors.Is(err, model.ErrNotCreator):
		return http.StatusForbidden

	// 状态错误
	case errors.Is(err, model.ErrCampaignInactive),
		errors.Is(err, model.ErrAlreadyEnded),
		errors.Is(err, model.ErrCampaignNotEnded),
		errors.Is(err, model.ErrAlreadyWithdrawn),
		errors.Is(err, model.ErrRequestAlreadyPending),
		errors.Is(err, model.ErrAlreadyFulfilled),
		errors.Is(err, model.ErrTooEarly),
		errors.Is(err, model.ErrEmptyPool),
		errors.Is(err, model.ErrNonTransferable):
		return http.StatusConflict

	// 资源错误，调用方可重试
	case errors.Is(err, model.ErrInsufficientReserve),
		errors.Is(err, model.ErrTransferFailed):
		return http.StatusUnprocessableEntity
	}

	return http.StatusInternalServerError
}
