package engine

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	owner  = Account("0xOWNER")
	worker = Account("0xWORKER")
	funder = Account("0xFUNDER")
)

func newProjectWithMilestone(t *testing.T, f *fixture, mType MilestoneType, assignedTo Account) (*Project, *Milestone) {
	t.Helper()
	p, err := f.eng.CreateProject(owner, true)
	require.NoError(t, err)
	m, err := f.eng.CreateMilestone(owner, MilestoneParams{
		ProjectID:    p.ID,
		Type:         mType,
		AssignedTo:   assignedTo,
		FundingToken: tokenCUSD,
	})
	require.NoError(t, err)
	return p, m
}

// TestMilestoneFullLifecycle 覆盖场景：两次注资500累计1000；
// 认领 → 提交 → 驳回 → 重新提交 → 通过 → 领取奖励，终态 Paid，
// 奖励恰好发放一次。
func TestMilestoneFullLifecycle(t *testing.T) {
	f := newFixture(t)
	_, m := newProjectWithMilestone(t, f, MilestoneOpen, "")
	ctx := context.Background()

	require.NoError(t, f.eng.FundMilestone(funder, m.ID, tokenCUSD, big.NewInt(500)))
	require.NoError(t, f.eng.FundMilestone(funder, m.ID, tokenCUSD, big.NewInt(500)))

	got, err := f.eng.Milestone(m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got.FundingAmount.Int64())
	assert.Equal(t, MilestoneActive, got.Status)

	require.NoError(t, f.eng.ClaimMilestone(worker, m.ID))
	require.NoError(t, f.eng.SubmitEvidence(worker, m.ID, "ipfs://ref1"))
	require.NoError(t, f.eng.RejectMilestone(owner, m.ID))

	// 驳回保留认领人和证明，允许重新提交
	got, err = f.eng.Milestone(m.ID)
	require.NoError(t, err)
	assert.Equal(t, MilestoneRejected, got.Status)
	assert.Equal(t, worker, got.ClaimedBy)
	assert.Equal(t, "ipfs://ref1", got.EvidenceRef)

	require.NoError(t, f.eng.SubmitEvidence(worker, m.ID, "ipfs://ref2"))
	require.NoError(t, f.eng.ApproveMilestone(owner, m.ID))

	f.ledger.setBalance(tokenCUSD, poolAccount, 1000)
	require.NoError(t, f.eng.ClaimReward(ctx, worker, m.ID))

	got, err = f.eng.Milestone(m.ID)
	require.NoError(t, err)
	assert.Equal(t, MilestonePaid, got.Status)
	assert.Equal(t, "ipfs://ref2", got.EvidenceRef)
	assert.Equal(t, int64(1000), f.ledger.balance(tokenCUSD, worker).Int64())

	// 终态不能再次领取
	err = f.eng.ClaimReward(ctx, worker, m.ID)
	assert.ErrorIs(t, err, ErrInvalidMilestoneState)
	assert.Equal(t, int64(1000), f.ledger.balance(tokenCUSD, worker).Int64())
}

func TestMilestoneFixedTypeSkipsClaim(t *testing.T) {
	f := newFixture(t)
	_, m := newProjectWithMilestone(t, f, MilestoneFixed, worker)

	// Fixed 类型不需要认领
	err := f.eng.ClaimMilestone(worker, m.ID)
	assert.ErrorIs(t, err, ErrInvalidMilestoneState)

	// 负责人可以直接从 Active 提交
	require.NoError(t, f.eng.SubmitEvidence(worker, m.ID, "ref"))

	got, err := f.eng.Milestone(m.ID)
	require.NoError(t, err)
	assert.Equal(t, MilestoneSubmitted, got.Status)
}

func TestMilestoneIllegalTransitions(t *testing.T) {
	f := newFixture(t)
	_, m := newProjectWithMilestone(t, f, MilestoneOpen, "")
	ctx := context.Background()

	// Active 状态不能审批
	err := f.eng.ApproveMilestone(owner, m.ID)
	assert.ErrorIs(t, err, ErrInvalidMilestoneState)

	// 未认领的 Open 类型不能提交
	err = f.eng.SubmitEvidence(worker, m.ID, "ref")
	assert.ErrorIs(t, err, ErrUnauthorized)

	// 非 Approved 状态不能领取奖励
	require.NoError(t, f.eng.ClaimMilestone(worker, m.ID))
	err = f.eng.ClaimReward(ctx, worker, m.ID)
	assert.ErrorIs(t, err, ErrInvalidMilestoneState)

	// 重复认领失败
	err = f.eng.ClaimMilestone("0xOTHER", m.ID)
	assert.ErrorIs(t, err, ErrInvalidMilestoneState)

	// 同一个非法转换重试得到同样的错误，而不是静默成功
	err2 := f.eng.ClaimMilestone("0xOTHER", m.ID)
	assert.Equal(t, err.Error(), err2.Error())
}

func TestMilestoneReviewerAuthorization(t *testing.T) {
	f := newFixture(t)
	_, m := newProjectWithMilestone(t, f, MilestoneOpen, "")

	require.NoError(t, f.eng.ClaimMilestone(worker, m.ID))
	require.NoError(t, f.eng.SubmitEvidence(worker, m.ID, "ref"))

	// 认领人自己不能审批
	err := f.eng.ApproveMilestone(worker, m.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// 超级管理员可以审批
	require.NoError(t, f.eng.ApproveMilestone(platformRoot, m.ID))
}

func TestMilestoneStewardCanReview(t *testing.T) {
	f := newFixture(t)
	c := f.newCampaign(t, admin, 0, 0, PolicyLinear)
	p, m := newProjectWithMilestone(t, f, MilestoneOpen, "")

	// 项目加入活动后，活动审批人可以审批其里程碑
	require.NoError(t, f.eng.JoinCampaign(owner, c.ID, p.ID))
	require.NoError(t, f.eng.AddSteward(admin, c.ID, "0xSTEWARD"))

	require.NoError(t, f.eng.ClaimMilestone(worker, m.ID))
	require.NoError(t, f.eng.SubmitEvidence(worker, m.ID, "ref"))
	require.NoError(t, f.eng.ApproveMilestone("0xSTEWARD", m.ID))
}

func TestMilestoneFunding(t *testing.T) {
	f := newFixture(t)
	_, m := newProjectWithMilestone(t, f, MilestoneOpen, "")

	err := f.eng.FundMilestone(funder, m.ID, tokenCUSD, big.NewInt(0))
	assert.ErrorIs(t, err, ErrZeroAmount)

	err = f.eng.FundMilestone(funder, m.ID, tokenCELO, big.NewInt(10))
	assert.ErrorIs(t, err, ErrTokenMismatch)

	// 认领后仍可注资，状态不变
	require.NoError(t, f.eng.ClaimMilestone(worker, m.ID))
	require.NoError(t, f.eng.FundMilestone(funder, m.ID, tokenCUSD, big.NewInt(10)))

	got, err := f.eng.Milestone(m.ID)
	require.NoError(t, err)
	assert.Equal(t, MilestoneClaimed, got.Status)
	assert.Equal(t, int64(10), got.FundingAmount.Int64())
}

// TestMilestoneCancelRefundsFunders 取消时按注资记录退款给每个注资人
func TestMilestoneCancelRefundsFunders(t *testing.T) {
	f := newFixture(t)
	_, m := newProjectWithMilestone(t, f, MilestoneOpen, "")
	ctx := context.Background()

	require.NoError(t, f.eng.FundMilestone("0xF1", m.ID, tokenCUSD, big.NewInt(300)))
	require.NoError(t, f.eng.FundMilestone("0xF2", m.ID, tokenCUSD, big.NewInt(200)))

	f.ledger.setBalance(tokenCUSD, poolAccount, 500)
	require.NoError(t, f.eng.CancelMilestone(ctx, owner, m.ID))

	assert.Equal(t, int64(300), f.ledger.balance(tokenCUSD, "0xF1").Int64())
	assert.Equal(t, int64(200), f.ledger.balance(tokenCUSD, "0xF2").Int64())
	assert.Equal(t, int64(0), f.ledger.balance(tokenCUSD, poolAccount).Int64())

	got, err := f.eng.Milestone(m.ID)
	require.NoError(t, err)
	assert.Equal(t, MilestoneCancelled, got.Status)
	assert.Len(t, f.sink.byKind(EventRefundIssued), 2)

	// 终态不能再注资
	err = f.eng.FundMilestone(funder, m.ID, tokenCUSD, big.NewInt(1))
	assert.ErrorIs(t, err, ErrInvalidMilestoneState)
}

func TestMilestoneCancelRefundFailureKeepsState(t *testing.T) {
	f := newFixture(t)
	_, m := newProjectWithMilestone(t, f, MilestoneOpen, "")
	ctx := context.Background()

	require.NoError(t, f.eng.FundMilestone("0xF1", m.ID, tokenCUSD, big.NewInt(300)))
	require.NoError(t, f.eng.FundMilestone("0xF2", m.ID, tokenCUSD, big.NewInt(200)))

	f.ledger.setBalance(tokenCUSD, poolAccount, 500)
	f.ledger.failTo = "0xF2"

	err := f.eng.CancelMilestone(ctx, owner, m.ID)
	assert.ErrorIs(t, err, ErrTransferFailed)

	// 已退的第一笔被补偿回资金池，状态不变
	assert.Equal(t, int64(500), f.ledger.balance(tokenCUSD, poolAccount).Int64())
	assert.Equal(t, int64(0), f.ledger.balance(tokenCUSD, "0xF1").Int64())

	got, err := f.eng.Milestone(m.ID)
	require.NoError(t, err)
	assert.Equal(t, MilestoneActive, got.Status)
}

func TestMilestoneCancelOnlyFromEarlyStates(t *testing.T) {
	f := newFixture(t)
	_, m := newProjectWithMilestone(t, f, MilestoneOpen, "")
	ctx := context.Background()

	require.NoError(t, f.eng.ClaimMilestone(worker, m.ID))
	require.NoError(t, f.eng.SubmitEvidence(worker, m.ID, "ref"))

	// Submitted 状态不能取消
	err := f.eng.CancelMilestone(ctx, owner, m.ID)
	assert.ErrorIs(t, err, ErrInvalidMilestoneState)
}

func TestMilestoneFixedReward(t *testing.T) {
	f := newFixture(t)
	p, err := f.eng.CreateProject(owner, true)
	require.NoError(t, err)

	m, err := f.eng.CreateMilestone(owner, MilestoneParams{
		ProjectID:    p.ID,
		Type:         MilestoneFixed,
		AssignedTo:   worker,
		FundingToken: tokenCUSD,
		RewardAmount: big.NewInt(250),
	})
	require.NoError(t, err)

	require.NoError(t, f.eng.FundMilestone(funder, m.ID, tokenCUSD, big.NewInt(1000)))
	require.NoError(t, f.eng.SubmitEvidence(worker, m.ID, "ref"))
	require.NoError(t, f.eng.ApproveMilestone(owner, m.ID))

	f.ledger.setBalance(tokenCUSD, poolAccount, 1000)
	require.NoError(t, f.eng.ClaimReward(context.Background(), worker, m.ID))

	// 设置了固定奖励时发放固定金额而不是累计注资
	assert.Equal(t, int64(250), f.ledger.balance(tokenCUSD, worker).Int64())
}
