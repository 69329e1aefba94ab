package engine

import (
	"context"
	"fmt"
	"math/big"
)

// MilestoneParams 创建里程碑的参数
type MilestoneParams struct {
	ProjectID    int64
	Type         MilestoneType
	AssignedTo   Account // Fixed 类型必填
	FundingToken Token
	RewardAmount *big.Int // 可为nil，表示发放累计注资
}

// CreateMilestone 创建里程碑，初始状态 Active。
// Fixed 类型在创建时指定负责人，视为已认领；Open 类型等待认领。
func (e *Engine) CreateMilestone(actor Account, params MilestoneParams) (*Milestone, error) {
	p, ok := e.store.project(params.ProjectID)
	if !ok {
		return nil, ErrProjectNotFound
	}
	if !p.Active {
		return nil, ErrProjectInactive
	}
	if !e.access.HasPermission(actor, ActionCreateMilestone, Target{Project: p}) {
		return nil, ErrUnauthorized
	}
	if params.Type != MilestoneFixed && params.Type != MilestoneOpen {
		return nil, fmt.Errorf("%w: 未知的里程碑类型 %s", ErrInvalidMilestoneState, params.Type)
	}
	if params.Type == MilestoneFixed && params.AssignedTo == "" {
		return nil, fmt.Errorf("%w: Fixed 类型必须指定负责人", ErrInvalidMilestoneState)
	}
	if !e.supported[params.FundingToken] {
		return nil, ErrUnsupportedToken
	}

	reward := new(big.Int)
	if params.RewardAmount != nil {
		if params.RewardAmount.Sign() < 0 {
			return nil, ErrZeroAmount
		}
		reward.Set(params.RewardAmount)
	}

	m := &Milestone{
		ProjectID:     params.ProjectID,
		Type:          params.Type,
		Status:        MilestoneActive,
		AssignedTo:    params.AssignedTo,
		FundingToken:  params.FundingToken,
		FundingAmount: new(big.Int),
		RewardAmount:  reward,
	}
	e.store.addMilestone(m)

	e.emit(Event{Kind: EventMilestoneCreated, ProjectID: m.ProjectID, MilestoneID: m.ID, Actor: actor, NewState: string(MilestoneActive)})
	return m, nil
}

// FundMilestone 注资。任何非终态且未发放的里程碑都可以注资，状态不变。
// 逐笔记录注资人和金额，取消时按记录退款。
func (e *Engine) FundMilestone(actor Account, milestoneID int64, token Token, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}

	ms, ok := e.store.milestoneEntry(milestoneID)
	if !ok {
		return ErrMilestoneNotFound
	}

	var events []Event
	defer e.flush(&events)

	ms.mu.Lock()
	defer ms.mu.Unlock()

	m := ms.milestone
	if m.Status.Terminal() {
		return invalidTransition(m, "fund")
	}
	if token != m.FundingToken {
		return ErrTokenMismatch
	}

	m.FundingAmount.Add(m.FundingAmount, amount)
	m.Fundings = append(m.Fundings, MilestoneFunding{Funder: actor, Amount: new(big.Int).Set(amount)})

	e.stage(&events, Event{
		Kind:        EventMilestoneFunded,
		ProjectID:   m.ProjectID,
		MilestoneID: m.ID,
		Actor:       actor,
		Token:       token,
		Amount:      new(big.Int).Set(amount),
	})
	return nil
}

// ClaimMilestone 认领 Open 类型的里程碑
func (e *Engine) ClaimMilestone(actor Account, milestoneID int64) error {
	ms, ok := e.store.milestoneEntry(milestoneID)
	if !ok {
		return ErrMilestoneNotFound
	}

	var events []Event
	defer e.flush(&events)

	ms.mu.Lock()
	defer ms.mu.Unlock()

	m := ms.milestone
	if m.Type != MilestoneOpen {
		return invalidTransition(m, "claim")
	}
	if m.Status != MilestoneActive {
		return invalidTransition(m, "claim")
	}
	if actor == "" {
		return ErrUnauthorized
	}

	m.Status = MilestoneClaimed
	m.ClaimedBy = actor

	e.stage(&events, Event{
		Kind:        EventMilestoneClaimed,
		ProjectID:   m.ProjectID,
		MilestoneID: m.ID,
		Actor:       actor,
		OldState:    string(MilestoneActive),
		NewState:    string(MilestoneClaimed),
	})
	return nil
}

// SubmitEvidence 提交完成证明。认领人（或 Fixed 类型的负责人）可从
// Claimed、Active（仅 Fixed）或 Rejected（重新提交）状态提交。
func (e *Engine) SubmitEvidence(actor Account, milestoneID int64, evidenceRef string) error {
	ms, ok := e.store.milestoneEntry(milestoneID)
	if !ok {
		return ErrMilestoneNotFound
	}

	var events []Event
	defer e.flush(&events)

	ms.mu.Lock()
	defer ms.mu.Unlock()

	m := ms.milestone
	if !e.access.HasPermission(actor, ActionSubmitEvidence, Target{Milestone: m}) {
		return ErrUnauthorized
	}

	switch m.Status {
	case MilestoneClaimed, MilestoneRejected:
	case MilestoneActive:
		if m.Type != MilestoneFixed {
			return invalidTransition(m, "submit_evidence")
		}
	default:
		return invalidTransition(m, "submit_evidence")
	}

	old := m.Status
	m.Status = MilestoneSubmitted
	m.EvidenceRef = evidenceRef

	e.stage(&events, Event{
		Kind:        EventEvidenceSubmitted,
		ProjectID:   m.ProjectID,
		MilestoneID: m.ID,
		Actor:       actor,
		OldState:    string(old),
		NewState:    string(MilestoneSubmitted),
	})
	return nil
}

// ApproveMilestone 审批通过，仅从 Submitted 状态
func (e *Engine) ApproveMilestone(actor Account, milestoneID int64) error {
	return e.reviewMilestone(actor, milestoneID, true)
}

// RejectMilestone 审批驳回，保留证明和认领人以便重新提交
func (e *Engine) RejectMilestone(actor Account, milestoneID int64) error {
	return e.reviewMilestone(actor, milestoneID, false)
}

func (e *Engine) reviewMilestone(actor Account, milestoneID int64, approve bool) error {
	ms, ok := e.store.milestoneEntry(milestoneID)
	if !ok {
		return ErrMilestoneNotFound
	}

	var events []Event
	defer e.flush(&events)

	ms.mu.Lock()
	defer ms.mu.Unlock()

	m := ms.milestone
	p, ok := e.store.project(m.ProjectID)
	if !ok {
		return ErrProjectNotFound
	}

	action, kind, next := ActionApproveMilestone, EventMilestoneApproved, MilestoneApproved
	if !approve {
		action, kind, next = ActionRejectMilestone, EventMilestoneRejected, MilestoneRejected
	}

	if !e.access.HasPermission(actor, action, Target{Project: p, Milestone: m}) {
		return ErrUnauthorized
	}
	if m.Status != MilestoneSubmitted {
		return invalidTransition(m, string(action))
	}

	m.Status = next

	e.stage(&events, Event{
		Kind:        kind,
		ProjectID:   m.ProjectID,
		MilestoneID: m.ID,
		Actor:       actor,
		OldState:    string(MilestoneSubmitted),
		NewState:    string(next),
	})
	return nil
}

// ClaimReward 领取奖励，仅认领人/负责人可从 Approved 状态调用。
// 奖励金额为 RewardAmount；未设置固定奖励时发放累计注资。
// 转账成功后才进入 Paid 终态，保证奖励只发放一次。
func (e *Engine) ClaimReward(ctx context.Context, actor Account, milestoneID int64) error {
	ms, ok := e.store.milestoneEntry(milestoneID)
	if !ok {
		return ErrMilestoneNotFound
	}

	var events []Event
	defer e.flush(&events)

	ms.mu.Lock()
	defer ms.mu.Unlock()

	m := ms.milestone
	if !e.access.HasPermission(actor, ActionClaimReward, Target{Milestone: m}) {
		return ErrUnauthorized
	}
	if m.Status != MilestoneApproved {
		return invalidTransition(m, "claim_reward")
	}

	reward := m.RewardAmount
	if reward.Sign() == 0 {
		reward = m.FundingAmount
	}

	if reward.Sign() > 0 {
		balance, err := e.ledger.BalanceOf(ctx, m.FundingToken, e.cfg.PoolAccount)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		if balance.Cmp(reward) < 0 {
			return ErrInsufficientPool
		}
		if err := e.ledger.Transfer(ctx, m.FundingToken, e.cfg.PoolAccount, actor, reward); err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
	}

	m.Status = MilestonePaid

	e.stage(&events, Event{
		Kind:        EventRewardPaid,
		ProjectID:   m.ProjectID,
		MilestoneID: m.ID,
		Actor:       actor,
		Token:       m.FundingToken,
		Amount:      new(big.Int).Set(reward),
		OldState:    string(MilestoneApproved),
		NewState:    string(MilestonePaid),
	})
	return nil
}

// CancelMilestone 取消里程碑，仅从 Active 或 Claimed 状态。
// 资金处置策略：按注资记录原路全额退款给每个注资人（顺序确定），
// 全部退款成功后才进入 Cancelled 终态。
func (e *Engine) CancelMilestone(ctx context.Context, actor Account, milestoneID int64) error {
	ms, ok := e.store.milestoneEntry(milestoneID)
	if !ok {
		return ErrMilestoneNotFound
	}

	var events []Event
	defer e.flush(&events)

	ms.mu.Lock()
	defer ms.mu.Unlock()

	m := ms.milestone
	p, ok := e.store.project(m.ProjectID)
	if !ok {
		return ErrProjectNotFound
	}
	if !e.access.HasPermission(actor, ActionCancelMilestone, Target{Project: p, Milestone: m}) {
		return ErrUnauthorized
	}
	if m.Status != MilestoneActive && m.Status != MilestoneClaimed {
		return invalidTransition(m, "cancel")
	}

	if m.FundingAmount.Sign() > 0 {
		balance, err := e.ledger.BalanceOf(ctx, m.FundingToken, e.cfg.PoolAccount)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		if balance.Cmp(m.FundingAmount) < 0 {
			return ErrInsufficientPool
		}

		var refunded []MilestoneFunding
		for _, f := range m.Fundings {
			if err := e.ledger.Transfer(ctx, m.FundingToken, e.cfg.PoolAccount, f.Funder, f.Amount); err != nil {
				// 反向补偿已退款项，保持取消前的状态
				for i := len(refunded) - 1; i >= 0; i-- {
					_ = e.ledger.Transfer(ctx, m.FundingToken, refunded[i].Funder, e.cfg.PoolAccount, refunded[i].Amount)
				}
				return fmt.Errorf("%w: 退款给 %s: %v", ErrTransferFailed, f.Funder, err)
			}
			refunded = append(refunded, f)
		}
	}

	old := m.Status
	m.Status = MilestoneCancelled

	for _, f := range m.Fundings {
		e.stage(&events, Event{
			Kind:        EventRefundIssued,
			ProjectID:   m.ProjectID,
			MilestoneID: m.ID,
			Actor:       f.Funder,
			Token:       m.FundingToken,
			Amount:      new(big.Int).Set(f.Amount),
		})
	}
	e.stage(&events, Event{
		Kind:        EventMilestoneCancelled,
		ProjectID:   m.ProjectID,
		MilestoneID: m.ID,
		Actor:       actor,
		OldState:    string(old),
		NewState:    string(MilestoneCancelled),
	})
	return nil
}
