package engine

// Action 受权限控制的操作
type Action string

const (
	ActionConfigureCampaign    Action = "configure_campaign"
	ActionAddSteward           Action = "add_steward"
	ActionApproveParticipation Action = "approve_participation"
	ActionFinalizeCampaign     Action = "finalize_campaign"
	ActionTransferProject      Action = "transfer_project"
	ActionDeactivateProject    Action = "deactivate_project"
	ActionJoinCampaign         Action = "join_campaign"
	ActionCreateMilestone      Action = "create_milestone"
	ActionSubmitEvidence       Action = "submit_evidence"
	ActionApproveMilestone     Action = "approve_milestone"
	ActionRejectMilestone      Action = "reject_milestone"
	ActionClaimReward          Action = "claim_reward"
	ActionCancelMilestone      Action = "cancel_milestone"
)

// Target 权限判断的对象，按操作填充对应实体
type Target struct {
	Campaign  *Campaign
	Project   *Project
	Milestone *Milestone
}

// AccessControl 角色解析。角色不冗余存储：
// 项目所有人、活动管理员、审批人、认领人都从当前状态推导，
// 平台级角色由 Identity 提供。超级管理员放行一切。
type AccessControl struct {
	identity Identity
	store    *Store
}

// NewAccessControl 创建权限控制
func NewAccessControl(identity Identity, store *Store) *AccessControl {
	return &AccessControl{identity: identity, store: store}
}

// HasPermission 判断 actor 能否对 target 执行 action
func (a *AccessControl) HasPermission(actor Account, action Action, target Target) bool {
	if actor == "" {
		return false
	}
	if a.isSuperAdmin(actor) {
		return true
	}

	switch action {
	case ActionConfigureCampaign, ActionAddSteward, ActionFinalizeCampaign:
		return a.isCampaignAdmin(actor, target.Campaign)

	case ActionApproveParticipation:
		return a.isCampaignAdmin(actor, target.Campaign) || a.isSteward(actor, target.Campaign)

	case ActionTransferProject, ActionDeactivateProject, ActionJoinCampaign, ActionCreateMilestone:
		return a.isProjectOwner(actor, target.Project)

	case ActionSubmitEvidence, ActionClaimReward:
		return a.isMilestoneWorker(actor, target.Milestone)

	case ActionApproveMilestone, ActionRejectMilestone:
		return a.isProjectOwner(actor, target.Project) || a.isProjectSteward(actor, target.Project)

	case ActionCancelMilestone:
		return a.isProjectOwner(actor, target.Project) || a.isProjectAdmin(actor, target.Project)
	}

	return false
}

// isSuperAdmin 平台超级管理员
func (a *AccessControl) isSuperAdmin(actor Account) bool {
	if a.identity == nil {
		return false
	}
	for _, role := range a.identity.ResolveRoles(actor) {
		if role == RoleSuperAdmin {
			return true
		}
	}
	return false
}

func (a *AccessControl) isCampaignAdmin(actor Account, c *Campaign) bool {
	return c != nil && c.Admin == actor
}

func (a *AccessControl) isSteward(actor Account, c *Campaign) bool {
	return c != nil && c.Stewards[actor]
}

func (a *AccessControl) isProjectOwner(actor Account, p *Project) bool {
	return p != nil && p.Owner == actor
}

func (a *AccessControl) isMilestoneWorker(actor Account, m *Milestone) bool {
	return m != nil && m.Worker() != "" && m.Worker() == actor
}

// isProjectSteward actor 是否为项目所参加的某个活动的审批人
func (a *AccessControl) isProjectSteward(actor Account, p *Project) bool {
	return a.projectCampaignMatch(p, func(c *Campaign) bool { return c.Stewards[actor] })
}

// isProjectAdmin actor 是否为项目所参加的某个活动的管理员
func (a *AccessControl) isProjectAdmin(actor Account, p *Project) bool {
	return a.projectCampaignMatch(p, func(c *Campaign) bool { return c.Admin == actor })
}

// projectCampaignMatch 在项目参与的活动上逐个检查谓词。
// 活动字段（Admin、Stewards）在各自的活动锁内修改，谓词也必须在
// 活动锁内求值；外层锁只用来定位活动，定位完立即释放，不嵌套持有。
func (a *AccessControl) projectCampaignMatch(p *Project, match func(*Campaign) bool) bool {
	if p == nil || a.store == nil {
		return false
	}

	a.store.mu.RLock()
	states := make([]*campaignState, 0, len(p.CampaignIDs))
	for id := range p.CampaignIDs {
		if cs, ok := a.store.campaigns[id]; ok {
			states = append(states, cs)
		}
	}
	a.store.mu.RUnlock()

	for _, cs := range states {
		cs.mu.Lock()
		matched := match(cs.campaign)
		cs.mu.Unlock()
		if matched {
			return true
		}
	}
	return false
}
