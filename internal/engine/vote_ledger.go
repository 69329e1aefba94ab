package engine

import (
	"context"
	"fmt"
	"math/big"
)

// RecordVote 记录一笔投票并返回换算后的标准单位金额。
// 汇率在投票时刻换算一次，之后不再重算，历史公平性不受汇率波动影响。
// 任何前置条件失败都不会留下部分状态。
func (e *Engine) RecordVote(ctx context.Context, campaignID, projectID int64, voter Account, token Token, rawAmount *big.Int) (*big.Int, error) {
	if rawAmount == nil || rawAmount.Sign() <= 0 {
		return nil, ErrZeroAmount
	}
	if !e.supported[token] {
		return nil, ErrUnsupportedToken
	}

	cs, ok := e.store.campaignEntry(campaignID)
	if !ok {
		return nil, ErrCampaignNotFound
	}

	var events []Event
	defer e.flush(&events)

	cs.mu.Lock()
	defer cs.mu.Unlock()

	c := cs.campaign
	if !c.Active || c.Finalized {
		return nil, ErrCampaignNotActive
	}
	now := e.now()
	if now.Before(c.StartTime) || !now.Before(c.EndTime) {
		return nil, ErrCampaignWindowClosed
	}
	part, ok := cs.participations[projectID]
	if !ok {
		return nil, ErrParticipationNotFound
	}

	// 换算在持锁期间完成，保证换算值与账本更新属于同一个原子单元
	canonical, err := e.oracle.Convert(ctx, token, rawAmount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	if canonical == nil || canonical.Sign() < 0 {
		return nil, fmt.Errorf("%w: 换算结果非法", ErrOracleUnavailable)
	}

	key := VoteKey{ProjectID: projectID, Voter: voter, Token: token}
	record, ok := cs.votes[key]
	if !ok {
		record = &VoteRecord{
			CampaignID:      campaignID,
			ProjectID:       projectID,
			Voter:           voter,
			Token:           token,
			RawAmount:       new(big.Int),
			CanonicalAmount: new(big.Int),
		}
		cs.votes[key] = record
	}
	record.RawAmount.Add(record.RawAmount, rawAmount)
	record.CanonicalAmount.Add(record.CanonicalAmount, canonical)

	part.VoteCount.Add(part.VoteCount, canonical)
	// 资金在投票时刻进入托管池
	c.TotalFunds.Add(c.TotalFunds, canonical)

	e.stage(&events, Event{
		Kind:       EventVoteRecorded,
		CampaignID: campaignID,
		ProjectID:  projectID,
		Actor:      voter,
		Token:      token,
		Amount:     new(big.Int).Set(canonical),
	})

	return new(big.Int).Set(canonical), nil
}

// VoteRecordOf 读取单条投票记录快照
func (e *Engine) VoteRecordOf(campaignID, projectID int64, voter Account, token Token) (*VoteRecord, error) {
	cs, ok := e.store.campaignEntry(campaignID)
	if !ok {
		return nil, ErrCampaignNotFound
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	record, ok := cs.votes[VoteKey{ProjectID: projectID, Voter: voter, Token: token}]
	if !ok {
		return nil, ErrVoteRecordNotFound
	}
	snapshot := *record
	snapshot.RawAmount = new(big.Int).Set(record.RawAmount)
	snapshot.CanonicalAmount = new(big.Int).Set(record.CanonicalAmount)
	return &snapshot, nil
}
