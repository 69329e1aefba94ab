package event

import (
	"github.com/sovseas/sse/internal/engine"
	"github.com/sovseas/sse/internal/logger"
	"github.com/sovseas/sse/internal/logic"
	"github.com/sovseas/sse/internal/model"
	"gorm.io/gorm"
)

// Processor 把引擎事件落成数据库读模型。
// 创建类记录由接口层直接入库，这里只负责状态迁移的同步。
type Processor struct {
	eng *engine.Engine

	campaignLogic      *logic.CampaignLogic
	projectLogic       *logic.ProjectLogic
	participationLogic *logic.ParticipationLogic
	milestoneLogic     *logic.MilestoneLogic
	payoutLogic        *logic.PayoutRecordLogic
	refundLogic        *logic.RefundRecordLogic
	eventLogic         *logic.EventLogic
}

// NewProcessor 创建事件处理器
func NewProcessor(eng *engine.Engine, db *gorm.DB) *Processor {
	return &Processor{
		eng:                eng,
		campaignLogic:      logic.NewCampaignLogic(db),
		projectLogic:       logic.NewProjectLogic(db),
		participationLogic: logic.NewParticipationLogic(db),
		milestoneLogic:     logic.NewMilestoneLogic(db),
		payoutLogic:        logic.NewPayoutRecordLogic(db),
		refundLogic:        logic.NewRefundRecordLogic(db),
		eventLogic:         logic.NewEventLogic(db),
	}
}

// Process 处理单个事件
func (p *Processor) Process(ev engine.Event) {
	// 所有事件先进审计表
	record := &model.EventModel{
		Kind:        string(ev.Kind),
		CampaignId:  ev.CampaignID,
		ProjectId:   ev.ProjectID,
		MilestoneId: ev.MilestoneID,
		Actor:       string(ev.Actor),
		Token:       string(ev.Token),
		Amount:      model.Amount(ev.Amount),
		OldState:    ev.OldState,
		NewState:    ev.NewState,
		EmittedAt:   ev.At,
	}
	if err := p.eventLogic.CreateEvent(record); err != nil {
		logger.Error("Failed to persist event %s: %v", ev.Kind, err)
	}

	if err := p.apply(ev); err != nil {
		logger.Error("Failed to apply event %s to read model: %v", ev.Kind, err)
	}
}

// apply 更新对应的读模型
func (p *Processor) apply(ev engine.Event) error {
	switch ev.Kind {
	case engine.EventVoteRecorded:
		return p.applyVote(ev)

	case engine.EventParticipationApproved:
		return p.participationLogic.Approve(ev.CampaignID, ev.ProjectID)

	case engine.EventCampaignFinalized:
		return p.campaignLogic.MarkFinalized(ev.CampaignID)

	case engine.EventPayoutSent:
		if err := p.payoutLogic.CreatePayoutRecord(&model.PayoutRecordModel{
			CampaignId: ev.CampaignID,
			ProjectId:  ev.ProjectID,
			Recipient:  string(ev.Actor),
			Token:      string(ev.Token),
			Amount:     model.Amount(ev.Amount),
			Kind:       model.PayoutKindProject,
		}); err != nil {
			return err
		}
		return p.participationLogic.UpdateFundsReceived(ev.CampaignID, ev.ProjectID, model.Amount(ev.Amount))

	case engine.EventFeeCollected:
		return p.payoutLogic.CreatePayoutRecord(&model.PayoutRecordModel{
			CampaignId: ev.CampaignID,
			Recipient:  string(ev.Actor),
			Token:      string(ev.Token),
			Amount:     model.Amount(ev.Amount),
			Kind:       model.PayoutKindFee,
		})

	case engine.EventProjectTransferred:
		return p.projectLogic.UpdateOwner(ev.ProjectID, ev.NewState)

	case engine.EventProjectDeactivated:
		return p.projectLogic.Deactivate(ev.ProjectID)

	case engine.EventMilestoneFunded:
		return p.applyMilestoneFunding(ev)

	case engine.EventMilestoneClaimed:
		return p.milestoneLogic.UpdateStatus(ev.MilestoneID, ev.NewState,
			map[string]interface{}{"claimed_by": string(ev.Actor)})

	case engine.EventEvidenceSubmitted:
		m, err := p.eng.Milestone(ev.MilestoneID)
		if err != nil {
			return err
		}
		return p.milestoneLogic.UpdateStatus(ev.MilestoneID, ev.NewState,
			map[string]interface{}{"evidence_ref": m.EvidenceRef})

	case engine.EventMilestoneApproved, engine.EventMilestoneRejected,
		engine.EventRewardPaid, engine.EventMilestoneCancelled:
		return p.milestoneLogic.UpdateStatus(ev.MilestoneID, ev.NewState, nil)

	case engine.EventRefundIssued:
		return p.refundLogic.CreateRefundRecord(&model.RefundRecordModel{
			MilestoneId: ev.MilestoneID,
			ProjectId:   ev.ProjectID,
			Funder:      string(ev.Actor),
			Token:       string(ev.Token),
			Amount:      model.Amount(ev.Amount),
		})
	}

	// 其余事件由接口层直接入库，这里只留审计记录
	return nil
}

// applyVote 同步票数和资金池累计值
func (p *Processor) applyVote(ev engine.Event) error {
	part, err := p.eng.Participation(ev.CampaignID, ev.ProjectID)
	if err != nil {
		return err
	}
	if err := p.participationLogic.UpdateVoteCount(ev.CampaignID, ev.ProjectID, model.Amount(part.VoteCount)); err != nil {
		return err
	}

	c, err := p.eng.Campaign(ev.CampaignID)
	if err != nil {
		return err
	}
	return p.campaignLogic.UpdateTotalFunds(ev.CampaignID, model.Amount(c.TotalFunds))
}

// applyMilestoneFunding 记录注资并同步累计注资额
func (p *Processor) applyMilestoneFunding(ev engine.Event) error {
	m, err := p.eng.Milestone(ev.MilestoneID)
	if err != nil {
		return err
	}
	return p.milestoneLogic.AddFunding(&model.MilestoneFundingModel{
		MilestoneId: ev.MilestoneID,
		Funder:      string(ev.Actor),
		Token:       string(ev.Token),
		Amount:      model.Amount(ev.Amount),
	}, model.Amount(m.FundingAmount))
}
