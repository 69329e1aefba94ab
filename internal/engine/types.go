package engine

import (
	"math/big"
	"time"
)

// Account 账户地址（十六进制字符串）
type Account string

// Token 代币标识
type Token string

// DistributionPolicy 资金分配策略
type DistributionPolicy string

const (
	PolicyLinear    DistributionPolicy = "linear"    // 线性分配
	PolicyQuadratic DistributionPolicy = "quadratic" // 二次方分配
	PolicyCustom    DistributionPolicy = "custom"    // 自定义权重分配
)

// Valid 检查分配策略是否合法
func (p DistributionPolicy) Valid() bool {
	switch p {
	case PolicyLinear, PolicyQuadratic, PolicyCustom:
		return true
	}
	return false
}

// Campaign 众筹活动
type Campaign struct {
	ID           int64
	Admin        Account
	Stewards     map[Account]bool // 活动管理员之外的审批人
	StartTime    time.Time
	EndTime      time.Time
	AdminFeeBps  int64 // 手续费，基点（0-10000）
	MaxWinners   int   // 0 表示不限制获胜项目数
	Policy       DistributionPolicy
	PayoutToken  Token
	Active       bool
	AutoFinalize bool     // 结束后由平台任务自动结算
	TotalFunds   *big.Int // 累计的标准单位资金池
	Finalized    bool
}

// Project 项目
type Project struct {
	ID            int64
	Owner         Account
	Active        bool
	Transferrable bool
	CampaignIDs   map[int64]bool // 参与的活动
}

// Participation 项目在某个活动中的参与记录
type Participation struct {
	CampaignID    int64
	ProjectID     int64
	Approved      bool
	VoteCount     *big.Int // 标准单位累计票数
	FundsReceived *big.Int // 结算后获得的标准单位资金
}

// VoteKey 投票记录键
type VoteKey struct {
	ProjectID int64
	Voter     Account
	Token     Token
}

// VoteRecord 投票记录，只增不减
type VoteRecord struct {
	CampaignID      int64
	ProjectID       int64
	Voter           Account
	Token           Token
	RawAmount       *big.Int // 代币原生单位
	CanonicalAmount *big.Int // 投票时刻换算的标准单位，之后不再重算
}

// MilestoneType 里程碑类型
type MilestoneType string

const (
	MilestoneFixed MilestoneType = "fixed" // 创建时指定负责人
	MilestoneOpen  MilestoneType = "open"  // 任何人可以认领
)

// MilestoneStatus 里程碑状态
type MilestoneStatus string

const (
	MilestoneActive    MilestoneStatus = "active"    // 初始状态
	MilestoneClaimed   MilestoneStatus = "claimed"   // 已认领
	MilestoneSubmitted MilestoneStatus = "submitted" // 已提交证明
	MilestoneApproved  MilestoneStatus = "approved"  // 审批通过
	MilestoneRejected  MilestoneStatus = "rejected"  // 审批驳回，可重新提交
	MilestonePaid      MilestoneStatus = "paid"      // 奖励已发放（终态）
	MilestoneCancelled MilestoneStatus = "cancelled" // 已取消（终态）
)

// Terminal 是否为终态
func (s MilestoneStatus) Terminal() bool {
	return s == MilestonePaid || s == MilestoneCancelled
}

// MilestoneFunding 里程碑单笔注资
type MilestoneFunding struct {
	Funder Account
	Amount *big.Int
}

// Milestone 项目里程碑
type Milestone struct {
	ID            int64
	ProjectID     int64
	Type          MilestoneType
	Status        MilestoneStatus
	AssignedTo    Account // Fixed 类型的负责人
	ClaimedBy     Account // Open 类型的认领人
	FundingToken  Token
	FundingAmount *big.Int           // 累计注资
	Fundings      []MilestoneFunding // 逐笔注资记录，取消时按此退款
	EvidenceRef   string             // 完成证明（内容哈希等不透明指针）
	RewardAmount  *big.Int           // 固定奖励；为0时发放累计注资
}

// Worker 里程碑的实际执行人
func (m *Milestone) Worker() Account {
	if m.Type == MilestoneFixed {
		return m.AssignedTo
	}
	return m.ClaimedBy
}

// Payout 单个项目的结算结果
type Payout struct {
	ProjectID int64
	Owner     Account
	Amount    *big.Int
}
