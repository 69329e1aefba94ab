package engine

import (
	"math/big"
	"time"
)

// EventKind 事件类型
type EventKind string

const (
	EventCampaignCreated       EventKind = "campaign_created"
	EventProjectCreated        EventKind = "project_created"
	EventProjectTransferred    EventKind = "project_transferred"
	EventProjectDeactivated    EventKind = "project_deactivated"
	EventCampaignJoined        EventKind = "campaign_joined"
	EventParticipationApproved EventKind = "participation_approved"
	EventStewardAdded          EventKind = "steward_added"
	EventVoteRecorded          EventKind = "vote_recorded"
	EventCampaignFinalized     EventKind = "campaign_finalized"
	EventPayoutSent            EventKind = "payout_sent"
	EventFeeCollected          EventKind = "fee_collected"
	EventMilestoneCreated      EventKind = "milestone_created"
	EventMilestoneFunded       EventKind = "milestone_funded"
	EventMilestoneClaimed      EventKind = "milestone_claimed"
	EventEvidenceSubmitted     EventKind = "evidence_submitted"
	EventMilestoneApproved     EventKind = "milestone_approved"
	EventMilestoneRejected     EventKind = "milestone_rejected"
	EventRewardPaid            EventKind = "reward_paid"
	EventMilestoneCancelled    EventKind = "milestone_cancelled"
	EventRefundIssued          EventKind = "refund_issued"
)

// Event 状态迁移事件
type Event struct {
	Kind        EventKind `json:"kind"`
	CampaignID  int64     `json:"campaign_id,omitempty"`
	ProjectID   int64     `json:"project_id,omitempty"`
	MilestoneID int64     `json:"milestone_id,omitempty"`
	Actor       Account   `json:"actor,omitempty"`
	Token       Token     `json:"token,omitempty"`
	Amount      *big.Int  `json:"amount,omitempty"`
	OldState    string    `json:"old_state,omitempty"`
	NewState    string    `json:"new_state,omitempty"`
	At          time.Time `json:"at"`
}

// emit 立即发送事件，只在不持任何实体锁时调用；sink 为空时丢弃。
// 持锁路径使用 stage/flush。
func (e *Engine) emit(ev Event) {
	if e.sink == nil {
		return
	}
	ev.At = e.now()
	e.sink.Emit(ev)
}

// stage 暂存事件，时间戳在持锁期间确定。
// 消费方可能在 Emit 里同步回读引擎快照，持锁发送会自死锁，
// 所以持锁操作只暂存，锁释放后由 flush 统一发送。
func (e *Engine) stage(events *[]Event, ev Event) {
	ev.At = e.now()
	*events = append(*events, ev)
}

// flush 按暂存顺序发送事件。配合 defer 使用时必须在加锁之前注册，
// 保证发送发生在实体锁释放之后。
func (e *Engine) flush(events *[]Event) {
	if e.sink == nil {
		return
	}
	for _, ev := range *events {
		e.sink.Emit(ev)
	}
}
