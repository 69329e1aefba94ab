package engine

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"
)

// reentrantSink 在 Emit 里同步回读引擎快照，
// 模拟在发送线程上直接更新读模型的消费方
type reentrantSink struct {
	eng    *Engine
	events []Event
}

func (s *reentrantSink) Emit(ev Event) {
	switch {
	case ev.MilestoneID != 0:
		_, _ = s.eng.Milestone(ev.MilestoneID)
	case ev.CampaignID != 0 && ev.ProjectID != 0:
		_, _ = s.eng.Participation(ev.CampaignID, ev.ProjectID)
	case ev.CampaignID != 0:
		_, _ = s.eng.Campaign(ev.CampaignID)
	case ev.ProjectID != 0:
		_, _ = s.eng.Project(ev.ProjectID)
	}
	s.events = append(s.events, ev)
}

// 事件发送必须发生在实体锁释放之后：消费方回读快照会重新加锁，
// 持锁发送会把整条操作卡死
func TestEmitHappensOutsideEntityLocks(t *testing.T) {
	f := newFixture(t)
	sink := &reentrantSink{eng: f.eng}
	f.eng.SetSink(sink)
	f.ledger.setBalance(tokenCELO, poolAccount, 10_000)

	var flowErr error
	fail := func(err error) {
		if flowErr == nil && err != nil {
			flowErr = err
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		c, err := f.eng.CreateCampaign(CampaignParams{
			Admin:       admin,
			StartTime:   f.now,
			EndTime:     f.now.Add(time.Hour),
			AdminFeeBps: 500,
			Policy:      PolicyLinear,
			PayoutToken: tokenCELO,
		})
		if err != nil {
			fail(err)
			return
		}
		p, err := f.eng.CreateProject(owner, true)
		if err != nil {
			fail(err)
			return
		}
		fail(f.eng.JoinCampaign(owner, c.ID, p.ID))
		fail(f.eng.ApproveParticipation(admin, c.ID, p.ID))
		fail(f.eng.AddSteward(admin, c.ID, "0xSTEW"))
		_, err = f.eng.RecordVote(context.Background(), c.ID, p.ID, "0xV1", tokenCELO, big.NewInt(1000))
		fail(err)

		m, err := f.eng.CreateMilestone(owner, MilestoneParams{
			ProjectID:    p.ID,
			Type:         MilestoneFixed,
			AssignedTo:   worker,
			FundingToken: tokenCELO,
		})
		if err != nil {
			fail(err)
			return
		}
		fail(f.eng.FundMilestone(funder, m.ID, tokenCELO, big.NewInt(300)))
		fail(f.eng.SubmitEvidence(worker, m.ID, "ipfs://done"))
		fail(f.eng.ApproveMilestone(owner, m.ID))
		fail(f.eng.ClaimReward(context.Background(), worker, m.ID))

		fail(f.eng.TransferProject(owner, p.ID, "0xNEWOWNER"))

		f.advance(2 * time.Hour)
		_, err = f.eng.FinalizeCampaign(context.Background(), admin, c.ID, nil)
		fail(err)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("操作未在5秒内完成：事件发送时仍持有实体锁")
	}
	if flowErr != nil {
		t.Fatalf("操作失败: %v", flowErr)
	}

	var finalized, voted, rewarded bool
	for _, ev := range sink.events {
		switch ev.Kind {
		case EventCampaignFinalized:
			finalized = true
		case EventVoteRecorded:
			voted = true
		case EventRewardPaid:
			rewarded = true
		}
		if ev.At.IsZero() {
			t.Fatalf("事件 %s 缺少时间戳", ev.Kind)
		}
	}
	if !voted || !rewarded || !finalized {
		t.Fatalf("事件缺失: voted=%v rewarded=%v finalized=%v", voted, rewarded, finalized)
	}
}

// 审批人名单的权限查找与 AddSteward 并发执行不得互相干扰
func TestStewardLookupDuringAddSteward(t *testing.T) {
	f := newFixture(t)
	c := f.newCampaign(t, admin, 0, 0, PolicyLinear)
	p := f.newApprovedProject(t, owner, admin, c.ID)
	m, err := f.eng.CreateMilestone(owner, MilestoneParams{
		ProjectID:    p.ID,
		Type:         MilestoneFixed,
		AssignedTo:   worker,
		FundingToken: tokenCELO,
	})
	if err != nil {
		t.Fatalf("CreateMilestone: %v", err)
	}
	if err := f.eng.SubmitEvidence(worker, m.ID, "ipfs://done"); err != nil {
		t.Fatalf("SubmitEvidence: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = f.eng.AddSteward(admin, c.ID, Account(fmt.Sprintf("0xS%d", i)))
		}
	}()
	go func() {
		defer wg.Done()
		// 未授权账户每次都走审批人名单查找
		for i := 0; i < 200; i++ {
			if err := f.eng.RejectMilestone("0xNOBODY", m.ID); !errors.Is(err, ErrUnauthorized) {
				return
			}
		}
	}()
	wg.Wait()

	if err := f.eng.ApproveMilestone("0xS1", m.ID); err != nil {
		t.Fatalf("审批人审批失败: %v", err)
	}
	snapshot, err := f.eng.Milestone(m.ID)
	if err != nil {
		t.Fatalf("Milestone: %v", err)
	}
	if snapshot.Status != MilestoneApproved {
		t.Fatalf("期望状态 %s，实际 %s", MilestoneApproved, snapshot.Status)
	}
}

// 读快照与引擎内部状态脱钩，修改快照不影响后续读取
func TestSnapshotsDetachedFromEngineState(t *testing.T) {
	f := newFixture(t)
	c := f.newCampaign(t, admin, 0, 0, PolicyLinear)
	p := f.newApprovedProject(t, owner, admin, c.ID)

	snapshot, err := f.eng.Project(p.ID)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	snapshot.Owner = "0xEVIL"
	snapshot.CampaignIDs[999] = true

	fresh, err := f.eng.Project(p.ID)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if fresh.Owner != owner {
		t.Fatalf("项目所有人被快照修改污染: %s", fresh.Owner)
	}
	if fresh.CampaignIDs[999] {
		t.Fatal("参与活动集合被快照修改污染")
	}
	if !fresh.CampaignIDs[c.ID] {
		t.Fatal("快照丢失了参与活动记录")
	}

	if err := f.eng.AddSteward(admin, c.ID, "0xSTEW"); err != nil {
		t.Fatalf("AddSteward: %v", err)
	}
	campaignSnap, err := f.eng.Campaign(c.ID)
	if err != nil {
		t.Fatalf("Campaign: %v", err)
	}
	campaignSnap.Stewards["0xEVIL"] = true

	freshCampaign, err := f.eng.Campaign(c.ID)
	if err != nil {
		t.Fatalf("Campaign: %v", err)
	}
	if freshCampaign.Stewards["0xEVIL"] {
		t.Fatal("审批人名单被快照修改污染")
	}
	if !freshCampaign.Stewards["0xSTEW"] {
		t.Fatal("快照丢失了审批人")
	}
}
