package handler

// Response 统一响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// CreateCampaignRequest 创建活动请求
type CreateCampaignRequest struct {
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	StartTime    int64  `json:"start_time" binding:"required"` // Unix 秒
	EndTime      int64  `json:"end_time" binding:"required"`
	AdminFeeBps  int64  `json:"admin_fee_bps"`
	MaxWinners   int    `json:"max_winners"`
	Policy       string `json:"policy" binding:"required"` // linear, quadratic, custom
	PayoutToken  string `json:"payout_token" binding:"required"`
	AutoFinalize bool   `json:"auto_finalize"`
}

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Title         string `json:"title" binding:"required"`
	Description   string `json:"description"`
	ImageURL      string `json:"image_url"`
	Category      string `json:"category"`
	Transferrable *bool  `json:"transferrable"` // 缺省为 true
}

// TransferProjectRequest 转让项目请求
type TransferProjectRequest struct {
	NewOwner string `json:"new_owner" binding:"required"`
}

// JoinCampaignRequest 项目报名活动请求
type JoinCampaignRequest struct {
	ProjectId int64 `json:"project_id" binding:"required"`
}

// AddStewardRequest 添加活动管理员请求
type AddStewardRequest struct {
	Steward string `json:"steward" binding:"required"`
}

// CastVoteRequest 投票请求
type CastVoteRequest struct {
	ProjectId int64  `json:"project_id" binding:"required"`
	Token     string `json:"token" binding:"required"`
	Amount    string `json:"amount" binding:"required"` // 代币原生单位，十进制字符串
}

// FinalizeCampaignRequest 结算请求，custom 策略时必须带权重
type FinalizeCampaignRequest struct {
	CustomWeights map[int64]string `json:"custom_weights"`
}

// CreateMilestoneRequest 创建里程碑请求
type CreateMilestoneRequest struct {
	ProjectId    int64  `json:"project_id" binding:"required"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Type         string `json:"type" binding:"required"` // fixed, open
	AssignedTo   string `json:"assigned_to"`
	FundingToken string `json:"funding_token" binding:"required"`
	RewardAmount string `json:"reward_amount"` // 为空表示发放累计注资
}

// FundMilestoneRequest 里程碑注资请求
type FundMilestoneRequest struct {
	Token  string `json:"token" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

// SubmitEvidenceRequest 提交完成证明请求
type SubmitEvidenceRequest struct {
	EvidenceRef string `json:"evidence_ref" binding:"required"`
}
