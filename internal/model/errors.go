package model

import (
	"errors"
)

// 业务错误定义，调用方用 errors.Is 判断。
// 所有错误均同步返回，失败的操作不保留任何部分状态。
var (
	// 输入校验错误
	ErrInvalidGoal        = errors.New("目标金额必须大于0")
	ErrZeroAmount         = errors.New("金额必须大于0")
	ErrCampaignNotFound   = errors.New("活动不存在")
	ErrTokenNotFound      = errors.New("成就代币不存在")
	ErrEmptyCandidateSet  = errors.New("候选人权重总和为0")
	ErrInvalidPrizeParams = errors.New("奖品参数无效")

	// 状态错误
	ErrCampaignInactive      = errors.New("活动未激活或已结束")
	ErrAlreadyEnded          = errors.New("活动已结束")
	ErrCampaignNotEnded      = errors.New("活动尚未结束")
	ErrAlreadyWithdrawn      = errors.New("资金已提取")
	ErrRequestAlreadyPending = errors.New("该作用域已有等待中的随机数请求")
	ErrUnknownRequest        = errors.New("随机数请求不存在")
	ErrAlreadyFulfilled      = errors.New("随机数请求已完成")
	ErrTooEarly              = errors.New("距离上次开奖不足24小时")
	ErrEmptyPool             = errors.New("奖池为空")

	// 权限错误
	ErrNotCreator = errors.New("调用者不是活动创建者")

	// 资源错误
	ErrInsufficientReserve = errors.New("VRF储备金不足")
	ErrTransferFailed      = errors.New("资产转账失败")

	// 结构性错误：成就代币不可转让，对任何调用者都无条件生效
	ErrNonTransferable = errors.New("成就代币不可转让")
)
