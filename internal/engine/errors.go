package engine

import (
	"errors"
	"fmt"
)

// 领域错误，handler 层按类别映射到HTTP状态码
var (
	// 实体不存在
	ErrCampaignNotFound      = errors.New("活动不存在")
	ErrProjectNotFound       = errors.New("项目不存在")
	ErrMilestoneNotFound     = errors.New("里程碑不存在")
	ErrParticipationNotFound = errors.New("项目未报名该活动")
	ErrVoteRecordNotFound    = errors.New("投票记录不存在")

	// 输入错误
	ErrZeroAmount           = errors.New("金额必须大于0")
	ErrUnsupportedToken     = errors.New("不支持的代币")
	ErrTokenMismatch        = errors.New("代币与里程碑资金代币不一致")
	ErrInvalidTimeWindow    = errors.New("开始时间必须早于结束时间")
	ErrInvalidFee           = errors.New("手续费比例必须在0-10000之间")
	ErrInvalidPolicy        = errors.New("未知的分配策略")
	ErrCustomWeightMismatch = errors.New("自定义权重与获胜项目集合不匹配")

	// 状态错误
	ErrCampaignNotActive       = errors.New("活动未激活")
	ErrCampaignWindowClosed    = errors.New("不在活动投票时间窗口内")
	ErrCampaignStillOpen       = errors.New("活动尚未结束，不能结算")
	ErrAlreadyDistributed      = errors.New("活动已完成结算")
	ErrAlreadyParticipating    = errors.New("项目已报名该活动")
	ErrProjectInactive         = errors.New("项目已停用")
	ErrProjectNotTransferrable = errors.New("项目不允许转让")
	ErrInvalidMilestoneState   = errors.New("里程碑当前状态不允许该操作")

	// 权限错误
	ErrUnauthorized = errors.New("没有操作权限")

	// 依赖错误
	ErrOracleUnavailable = errors.New("汇率服务不可用")
	ErrInsufficientPool  = errors.New("资金池余额不足")
	ErrTransferFailed    = errors.New("代币转账失败")
)

// invalidTransition 构造带上下文的状态错误，重试同样的非法转换得到同样的错误
func invalidTransition(m *Milestone, action string) error {
	return fmt.Errorf("%w: 里程碑 %d 状态为 %s，无法执行 %s", ErrInvalidMilestoneState, m.ID, m.Status, action)
}
