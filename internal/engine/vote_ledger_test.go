package engine

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const admin = Account("0xADMIN")

func TestRecordVoteAccumulates(t *testing.T) {
	f := newFixture(t)
	c := f.newCampaign(t, admin, 0, 0, PolicyLinear)
	p := f.newApprovedProject(t, "0xOWNER", admin, c.ID)

	canonical, err := f.eng.RecordVote(context.Background(), c.ID, p.ID, "0xVOTER", tokenCELO, big.NewInt(100))
	require.NoError(t, err)
	assert.Equal(t, int64(100), canonical.Int64())

	// 同一键再投一次累加到同一条记录
	_, err = f.eng.RecordVote(context.Background(), c.ID, p.ID, "0xVOTER", tokenCELO, big.NewInt(40))
	require.NoError(t, err)

	record, err := f.eng.VoteRecordOf(c.ID, p.ID, "0xVOTER", tokenCELO)
	require.NoError(t, err)
	assert.Equal(t, int64(140), record.RawAmount.Int64())
	assert.Equal(t, int64(140), record.CanonicalAmount.Int64())

	part, err := f.eng.Participation(c.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(140), part.VoteCount.Int64())

	got, err := f.eng.Campaign(c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(140), got.TotalFunds.Int64())

	assert.Len(t, f.sink.byKind(EventVoteRecorded), 2)
}

func TestRecordVoteUsesRateAtVoteTime(t *testing.T) {
	f := newFixture(t)
	f.oracle.rate = 10
	c := f.newCampaign(t, admin, 0, 0, PolicyLinear)
	p := f.newApprovedProject(t, "0xOWNER", admin, c.ID)

	canonical, err := f.eng.RecordVote(context.Background(), c.ID, p.ID, "0xVOTER", tokenCUSD, big.NewInt(5))
	require.NoError(t, err)
	assert.Equal(t, int64(50), canonical.Int64())

	// 汇率之后变化，历史记录不重算
	f.oracle.rate = 1
	record, err := f.eng.VoteRecordOf(c.ID, p.ID, "0xVOTER", tokenCUSD)
	require.NoError(t, err)
	assert.Equal(t, int64(50), record.CanonicalAmount.Int64())
}

func TestRecordVotePreconditions(t *testing.T) {
	f := newFixture(t)
	c := f.newCampaign(t, admin, 0, 0, PolicyLinear)
	p := f.newApprovedProject(t, "0xOWNER", admin, c.ID)
	ctx := context.Background()

	_, err := f.eng.RecordVote(ctx, c.ID, p.ID, "0xVOTER", tokenCELO, big.NewInt(0))
	assert.ErrorIs(t, err, ErrZeroAmount)

	_, err = f.eng.RecordVote(ctx, c.ID, p.ID, "0xVOTER", Token("DOGE"), big.NewInt(1))
	assert.ErrorIs(t, err, ErrUnsupportedToken)

	_, err = f.eng.RecordVote(ctx, c.ID, 999, "0xVOTER", tokenCELO, big.NewInt(1))
	assert.ErrorIs(t, err, ErrParticipationNotFound)

	_, err = f.eng.RecordVote(ctx, 999, p.ID, "0xVOTER", tokenCELO, big.NewInt(1))
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}

func TestRecordVoteWindowClosed(t *testing.T) {
	f := newFixture(t)
	c := f.newCampaign(t, admin, 0, 0, PolicyLinear)
	p := f.newApprovedProject(t, "0xOWNER", admin, c.ID)
	ctx := context.Background()

	// 窗口结束时刻（endTime 本身不在窗口内）
	f.advance(time.Hour)
	_, err := f.eng.RecordVote(ctx, c.ID, p.ID, "0xVOTER", tokenCELO, big.NewInt(1))
	assert.ErrorIs(t, err, ErrCampaignWindowClosed)

	got, err := f.eng.Campaign(c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.TotalFunds.Int64())
}

func TestRecordVoteBeforeStart(t *testing.T) {
	f := newFixture(t)
	c, err := f.eng.CreateCampaign(CampaignParams{
		Admin:       admin,
		StartTime:   f.now.Add(time.Hour),
		EndTime:     f.now.Add(2 * time.Hour),
		Policy:      PolicyLinear,
		PayoutToken: tokenCELO,
	})
	require.NoError(t, err)

	p, err := f.eng.CreateProject("0xOWNER", true)
	require.NoError(t, err)
	require.NoError(t, f.eng.JoinCampaign("0xOWNER", c.ID, p.ID))

	_, err = f.eng.RecordVote(context.Background(), c.ID, p.ID, "0xVOTER", tokenCELO, big.NewInt(1))
	assert.ErrorIs(t, err, ErrCampaignWindowClosed)
}

func TestRecordVoteOracleFailureLeavesNoState(t *testing.T) {
	f := newFixture(t)
	c := f.newCampaign(t, admin, 0, 0, PolicyLinear)
	p := f.newApprovedProject(t, "0xOWNER", admin, c.ID)

	f.oracle.fail = true
	_, err := f.eng.RecordVote(context.Background(), c.ID, p.ID, "0xVOTER", tokenCELO, big.NewInt(100))
	assert.ErrorIs(t, err, ErrOracleUnavailable)

	part, err := f.eng.Participation(c.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), part.VoteCount.Int64())

	got, err := f.eng.Campaign(c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.TotalFunds.Int64())

	_, err = f.eng.VoteRecordOf(c.ID, p.ID, "0xVOTER", tokenCELO)
	assert.ErrorIs(t, err, ErrVoteRecordNotFound)
}

func TestUnapprovedProjectRetainsVotes(t *testing.T) {
	f := newFixture(t)
	c := f.newCampaign(t, admin, 0, 0, PolicyLinear)

	p, err := f.eng.CreateProject("0xOWNER", true)
	require.NoError(t, err)
	require.NoError(t, f.eng.JoinCampaign("0xOWNER", c.ID, p.ID))

	f.vote(t, c.ID, p.ID, "0xVOTER", 30)

	part, err := f.eng.Participation(c.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, part.Approved)
	assert.Equal(t, int64(30), part.VoteCount.Int64())
}
