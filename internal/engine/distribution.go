package engine

import (
	"context"
	"fmt"
	"math/big"
	"sort"
)

var bpsDenominator = big.NewInt(10000)

// FinalizeCampaign 结算活动并向获胜项目发放资金。
// 结算严格一次：finalized 标志与付款在同一个活动锁内翻转，
// 重复调用返回 ErrAlreadyDistributed。
// 付款分两阶段：先校验资金池余额，再逐笔转账；中途失败会对已完成的
// 转账做反向补偿，活动保持未结算状态。
//
// customWeights 仅在活动采用自定义权重策略时使用，必须恰好覆盖获胜项目集合。
func (e *Engine) FinalizeCampaign(ctx context.Context, actor Account, campaignID int64, customWeights map[int64]*big.Int) ([]Payout, error) {
	cs, ok := e.store.campaignEntry(campaignID)
	if !ok {
		return nil, ErrCampaignNotFound
	}

	var events []Event
	defer e.flush(&events)

	cs.mu.Lock()
	defer cs.mu.Unlock()

	c := cs.campaign
	if !e.access.HasPermission(actor, ActionFinalizeCampaign, Target{Campaign: c}) {
		return nil, ErrUnauthorized
	}
	if e.now().Before(c.EndTime) {
		return nil, ErrCampaignStillOpen
	}
	if c.Finalized {
		return nil, ErrAlreadyDistributed
	}

	winners := e.selectWinners(cs)

	// 没有可分配的项目：按无操作结算，资金池保持不动
	if len(winners) == 0 {
		c.Finalized = true
		c.Active = false
		e.stage(&events, Event{Kind: EventCampaignFinalized, CampaignID: c.ID, Actor: actor, Amount: new(big.Int)})
		return []Payout{}, nil
	}

	payouts, feeAmount, err := e.computePayouts(c, winners, customWeights)
	if err != nil {
		return nil, err
	}

	if err := e.settle(ctx, c, payouts, feeAmount); err != nil {
		return nil, err
	}

	// 转账全部成功后才落状态
	for _, p := range payouts {
		cs.participations[p.ProjectID].FundsReceived.Set(p.Amount)
		e.stage(&events, Event{
			Kind:       EventPayoutSent,
			CampaignID: c.ID,
			ProjectID:  p.ProjectID,
			Actor:      p.Owner,
			Token:      c.PayoutToken,
			Amount:     new(big.Int).Set(p.Amount),
		})
	}
	if feeAmount.Sign() > 0 {
		e.stage(&events, Event{
			Kind:       EventFeeCollected,
			CampaignID: c.ID,
			Actor:      e.feeSink(c),
			Token:      c.PayoutToken,
			Amount:     new(big.Int).Set(feeAmount),
		})
	}

	c.TotalFunds.SetInt64(0)
	c.Finalized = true
	c.Active = false
	e.stage(&events, Event{Kind: EventCampaignFinalized, CampaignID: c.ID, Actor: actor})

	return payouts, nil
}

// selectWinners 选出获胜项目：已审批且票数大于0，按票数降序排序，
// 同票按项目ID升序保证确定性；maxWinners>0 时截断到前 N 名。
func (e *Engine) selectWinners(cs *campaignState) []*Participation {
	var eligible []*Participation
	for _, part := range cs.participations {
		if part.Approved && part.VoteCount.Sign() > 0 {
			eligible = append(eligible, part)
		}
	}

	sort.Slice(eligible, func(i, j int) bool {
		cmp := eligible[i].VoteCount.Cmp(eligible[j].VoteCount)
		if cmp != 0 {
			return cmp > 0
		}
		return eligible[i].ProjectID < eligible[j].ProjectID
	})

	if max := cs.campaign.MaxWinners; max > 0 && len(eligible) > max {
		eligible = eligible[:max]
	}
	return eligible
}

// computePayouts 按策略计算各获胜项目的发放金额。
// 整数除法统一向下取整，取整余数全部归手续费账户，不会丢失。
func (e *Engine) computePayouts(c *Campaign, winners []*Participation, customWeights map[int64]*big.Int) ([]Payout, *big.Int, error) {
	// netPool = totalFunds * (10000 - feeBps) / 10000
	netPool := new(big.Int).Mul(c.TotalFunds, big.NewInt(10000-c.AdminFeeBps))
	netPool.Div(netPool, bpsDenominator)

	weights, weightTotal, err := e.policyWeights(c, winners, customWeights)
	if err != nil {
		return nil, nil, err
	}

	payouts := make([]Payout, 0, len(winners))
	distributed := new(big.Int)
	for _, part := range winners {
		amount := new(big.Int)
		if weightTotal.Sign() > 0 {
			amount.Mul(netPool, weights[part.ProjectID])
			amount.Div(amount, weightTotal)
		}
		distributed.Add(distributed, amount)

		owner := Account("")
		if p, ok := e.store.project(part.ProjectID); ok {
			owner = p.Owner
		}
		payouts = append(payouts, Payout{ProjectID: part.ProjectID, Owner: owner, Amount: amount})
	}

	// 手续费 = 资金池 - 实际发放，含费率部分和所有取整余数
	feeAmount := new(big.Int).Sub(c.TotalFunds, distributed)
	return payouts, feeAmount, nil
}

// policyWeights 计算各获胜项目的权重
func (e *Engine) policyWeights(c *Campaign, winners []*Participation, customWeights map[int64]*big.Int) (map[int64]*big.Int, *big.Int, error) {
	weights := make(map[int64]*big.Int, len(winners))
	total := new(big.Int)

	switch c.Policy {
	case PolicyLinear:
		for _, part := range winners {
			w := new(big.Int).Set(part.VoteCount)
			weights[part.ProjectID] = w
			total.Add(total, w)
		}

	case PolicyQuadratic:
		// 聚合票数的整数平方根（向下取整）
		for _, part := range winners {
			w := new(big.Int).Sqrt(part.VoteCount)
			weights[part.ProjectID] = w
			total.Add(total, w)
		}

	case PolicyCustom:
		if len(customWeights) != len(winners) {
			return nil, nil, ErrCustomWeightMismatch
		}
		for _, part := range winners {
			w, ok := customWeights[part.ProjectID]
			if !ok || w == nil || w.Sign() < 0 {
				return nil, nil, ErrCustomWeightMismatch
			}
			weights[part.ProjectID] = new(big.Int).Set(w)
			total.Add(total, w)
		}
		if total.Sign() <= 0 {
			return nil, nil, ErrCustomWeightMismatch
		}

	default:
		return nil, nil, ErrInvalidPolicy
	}

	return weights, total, nil
}

// settle 执行两阶段付款：余额预检，然后逐笔转账，失败时反向补偿
func (e *Engine) settle(ctx context.Context, c *Campaign, payouts []Payout, feeAmount *big.Int) error {
	pool := e.cfg.PoolAccount

	balance, err := e.ledger.BalanceOf(ctx, c.PayoutToken, pool)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if balance.Cmp(c.TotalFunds) < 0 {
		return ErrInsufficientPool
	}

	type done struct {
		to     Account
		amount *big.Int
	}
	var completed []done

	rollback := func() {
		// 反向补偿已完成的转账，尽力而为
		for i := len(completed) - 1; i >= 0; i-- {
			_ = e.ledger.Transfer(ctx, c.PayoutToken, completed[i].to, pool, completed[i].amount)
		}
	}

	for _, p := range payouts {
		if p.Amount.Sign() == 0 {
			continue
		}
		if p.Owner == "" {
			rollback()
			return fmt.Errorf("%w: 项目 %d 缺少所有人账户", ErrTransferFailed, p.ProjectID)
		}
		if err := e.ledger.Transfer(ctx, c.PayoutToken, pool, p.Owner, p.Amount); err != nil {
			rollback()
			return fmt.Errorf("%w: 项目 %d: %v", ErrTransferFailed, p.ProjectID, err)
		}
		completed = append(completed, done{to: p.Owner, amount: p.Amount})
	}

	if feeAmount.Sign() > 0 {
		if err := e.ledger.Transfer(ctx, c.PayoutToken, pool, e.feeSink(c), feeAmount); err != nil {
			rollback()
			return fmt.Errorf("%w: 手续费: %v", ErrTransferFailed, err)
		}
	}

	return nil
}
