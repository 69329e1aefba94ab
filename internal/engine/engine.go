package engine

import (
	"math/big"
	"time"
)

// Config 引擎配置，结算时显式传入，不依赖进程级单例
type Config struct {
	// SupportedTokens 支持的投票代币
	SupportedTokens []Token
	// PoolAccount 托管资金池账户，所有出账的来源
	PoolAccount Account
	// FeeSink 手续费及取整余数的归集账户，为空时归活动管理员
	FeeSink Account
}

// Deps 引擎外部依赖
type Deps struct {
	Ledger   TokenLedger
	Oracle   RateOracle
	Identity Identity
	Sink     EventSink
	// Clock 当前时间来源，为空时使用 time.Now
	Clock func() time.Time
}

// Engine 结算引擎：投票账本、资金分配、里程碑托管和权限控制的聚合。
// 每个修改状态的操作要么完整生效要么完全不生效。
type Engine struct {
	cfg       Config
	store     *Store
	access    *AccessControl
	ledger    TokenLedger
	oracle    RateOracle
	sink      EventSink
	now       func() time.Time
	supported map[Token]bool
}

// New 创建引擎
func New(cfg Config, deps Deps) *Engine {
	store := NewStore()
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	supported := make(map[Token]bool, len(cfg.SupportedTokens))
	for _, t := range cfg.SupportedTokens {
		supported[t] = true
	}
	return &Engine{
		cfg:       cfg,
		store:     store,
		access:    NewAccessControl(deps.Identity, store),
		ledger:    deps.Ledger,
		oracle:    deps.Oracle,
		sink:      deps.Sink,
		now:       now,
		supported: supported,
	}
}

// Access 暴露权限控制给外层只读使用
func (e *Engine) Access() *AccessControl {
	return e.access
}

// SetSink 设置事件出口。事件消费方自身依赖引擎时在构造后注入。
func (e *Engine) SetSink(sink EventSink) {
	e.sink = sink
}

// CampaignParams 创建活动的参数
type CampaignParams struct {
	Admin        Account
	StartTime    time.Time
	EndTime      time.Time
	AdminFeeBps  int64
	MaxWinners   int
	Policy       DistributionPolicy
	PayoutToken  Token
	AutoFinalize bool
}

// CreateCampaign 创建活动
func (e *Engine) CreateCampaign(params CampaignParams) (*Campaign, error) {
	if !params.StartTime.Before(params.EndTime) {
		return nil, ErrInvalidTimeWindow
	}
	if params.AdminFeeBps < 0 || params.AdminFeeBps > 10000 {
		return nil, ErrInvalidFee
	}
	if !params.Policy.Valid() {
		return nil, ErrInvalidPolicy
	}
	if !e.supported[params.PayoutToken] {
		return nil, ErrUnsupportedToken
	}

	c := &Campaign{
		Admin:        params.Admin,
		Stewards:     make(map[Account]bool),
		StartTime:    params.StartTime,
		EndTime:      params.EndTime,
		AdminFeeBps:  params.AdminFeeBps,
		MaxWinners:   params.MaxWinners,
		Policy:       params.Policy,
		PayoutToken:  params.PayoutToken,
		Active:       true,
		AutoFinalize: params.AutoFinalize,
		TotalFunds:   new(big.Int),
	}
	e.store.addCampaign(c)

	e.emit(Event{Kind: EventCampaignCreated, CampaignID: c.ID, Actor: params.Admin})
	return c, nil
}

// CreateProject 创建项目
func (e *Engine) CreateProject(owner Account, transferrable bool) (*Project, error) {
	if owner == "" {
		return nil, ErrUnauthorized
	}
	p := &Project{
		Owner:         owner,
		Active:        true,
		Transferrable: transferrable,
		CampaignIDs:   make(map[int64]bool),
	}
	e.store.addProject(p)

	e.emit(Event{Kind: EventProjectCreated, ProjectID: p.ID, Actor: owner})
	return p, nil
}

// TransferProject 转让项目所有权，仅限可转让的项目
func (e *Engine) TransferProject(actor Account, projectID int64, newOwner Account) error {
	var events []Event
	defer e.flush(&events)

	e.store.mu.Lock()
	defer e.store.mu.Unlock()

	p, ok := e.store.projects[projectID]
	if !ok {
		return ErrProjectNotFound
	}
	if !e.access.HasPermission(actor, ActionTransferProject, Target{Project: p}) {
		return ErrUnauthorized
	}
	if !p.Transferrable {
		return ErrProjectNotTransferrable
	}
	if newOwner == "" {
		return ErrUnauthorized
	}

	p.Owner = newOwner
	e.stage(&events, Event{Kind: EventProjectTransferred, ProjectID: p.ID, Actor: actor, NewState: string(newOwner)})
	return nil
}

// DeactivateProject 停用项目，项目不会被删除
func (e *Engine) DeactivateProject(actor Account, projectID int64) error {
	var events []Event
	defer e.flush(&events)

	e.store.mu.Lock()
	defer e.store.mu.Unlock()

	p, ok := e.store.projects[projectID]
	if !ok {
		return ErrProjectNotFound
	}
	if !e.access.HasPermission(actor, ActionDeactivateProject, Target{Project: p}) {
		return ErrUnauthorized
	}

	p.Active = false
	e.stage(&events, Event{Kind: EventProjectDeactivated, ProjectID: p.ID, Actor: actor})
	return nil
}

// JoinCampaign 项目报名活动，初始为未审批状态
func (e *Engine) JoinCampaign(actor Account, campaignID, projectID int64) error {
	p, ok := e.store.project(projectID)
	if !ok {
		return ErrProjectNotFound
	}
	if !p.Active {
		return ErrProjectInactive
	}
	if !e.access.HasPermission(actor, ActionJoinCampaign, Target{Project: p}) {
		return ErrUnauthorized
	}

	cs, ok := e.store.campaignEntry(campaignID)
	if !ok {
		return ErrCampaignNotFound
	}

	cs.mu.Lock()
	if _, exists := cs.participations[projectID]; exists {
		cs.mu.Unlock()
		return ErrAlreadyParticipating
	}
	cs.participations[projectID] = &Participation{
		CampaignID:    campaignID,
		ProjectID:     projectID,
		VoteCount:     new(big.Int),
		FundsReceived: new(big.Int),
	}
	cs.mu.Unlock()

	e.store.linkProject(projectID, campaignID)

	e.emit(Event{Kind: EventCampaignJoined, CampaignID: campaignID, ProjectID: projectID, Actor: actor})
	return nil
}

// ApproveParticipation 审批项目参与资格，未审批的项目保留票数但不参与分配
func (e *Engine) ApproveParticipation(actor Account, campaignID, projectID int64) error {
	cs, ok := e.store.campaignEntry(campaignID)
	if !ok {
		return ErrCampaignNotFound
	}

	var events []Event
	defer e.flush(&events)

	cs.mu.Lock()
	defer cs.mu.Unlock()

	if !e.access.HasPermission(actor, ActionApproveParticipation, Target{Campaign: cs.campaign}) {
		return ErrUnauthorized
	}
	part, ok := cs.participations[projectID]
	if !ok {
		return ErrParticipationNotFound
	}

	part.Approved = true
	e.stage(&events, Event{Kind: EventParticipationApproved, CampaignID: campaignID, ProjectID: projectID, Actor: actor})
	return nil
}

// AddSteward 为活动添加审批人
func (e *Engine) AddSteward(actor Account, campaignID int64, steward Account) error {
	cs, ok := e.store.campaignEntry(campaignID)
	if !ok {
		return ErrCampaignNotFound
	}

	var events []Event
	defer e.flush(&events)

	cs.mu.Lock()
	defer cs.mu.Unlock()

	if !e.access.HasPermission(actor, ActionAddSteward, Target{Campaign: cs.campaign}) {
		return ErrUnauthorized
	}
	if steward == "" {
		return ErrUnauthorized
	}

	cs.campaign.Stewards[steward] = true
	e.stage(&events, Event{Kind: EventStewardAdded, CampaignID: campaignID, Actor: actor, NewState: string(steward)})
	return nil
}

// Campaign 读取活动快照
func (e *Engine) Campaign(id int64) (*Campaign, error) {
	cs, ok := e.store.campaignEntry(id)
	if !ok {
		return nil, ErrCampaignNotFound
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	snapshot := *cs.campaign
	snapshot.TotalFunds = new(big.Int).Set(cs.campaign.TotalFunds)
	snapshot.Stewards = make(map[Account]bool, len(cs.campaign.Stewards))
	for s := range cs.campaign.Stewards {
		snapshot.Stewards[s] = true
	}
	return &snapshot, nil
}

// Project 读取项目快照
func (e *Engine) Project(id int64) (*Project, error) {
	p, ok := e.store.project(id)
	if !ok {
		return nil, ErrProjectNotFound
	}
	return p, nil
}

// Participation 读取参与记录快照
func (e *Engine) Participation(campaignID, projectID int64) (*Participation, error) {
	cs, ok := e.store.campaignEntry(campaignID)
	if !ok {
		return nil, ErrCampaignNotFound
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	part, ok := cs.participations[projectID]
	if !ok {
		return nil, ErrParticipationNotFound
	}
	snapshot := *part
	snapshot.VoteCount = new(big.Int).Set(part.VoteCount)
	snapshot.FundsReceived = new(big.Int).Set(part.FundsReceived)
	return &snapshot, nil
}

// Milestone 读取里程碑快照
func (e *Engine) Milestone(id int64) (*Milestone, error) {
	ms, ok := e.store.milestoneEntry(id)
	if !ok {
		return nil, ErrMilestoneNotFound
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	snapshot := *ms.milestone
	snapshot.FundingAmount = new(big.Int).Set(ms.milestone.FundingAmount)
	snapshot.Fundings = append([]MilestoneFunding(nil), ms.milestone.Fundings...)
	return &snapshot, nil
}

// feeSink 手续费归集账户，未配置时退回活动管理员
func (e *Engine) feeSink(c *Campaign) Account {
	if e.cfg.FeeSink != "" {
		return e.cfg.FeeSink
	}
	return c.Admin
}
