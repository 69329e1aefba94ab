package handler

import (
	"math/big"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sovseas/sse/internal/engine"
	"github.com/sovseas/sse/internal/logger"
	"github.com/sovseas/sse/internal/logic"
	"github.com/sovseas/sse/internal/model"
	"gorm.io/gorm"
)

// MilestoneHandler 里程碑接口
type MilestoneHandler struct {
	eng            *engine.Engine
	milestoneLogic *logic.MilestoneLogic
	refundLogic    *logic.RefundRecordLogic
}

// NewMilestoneHandler 创建里程碑接口
func NewMilestoneHandler(eng *engine.Engine, db *gorm.DB) *MilestoneHandler {
	return &MilestoneHandler{
		eng:            eng,
		milestoneLogic: logic.NewMilestoneLogic(db),
		refundLogic:    logic.NewRefundRecordLogic(db),
	}
}

// CreateMilestone 创建里程碑
func (h *MilestoneHandler) CreateMilestone(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req CreateMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var reward *big.Int
	if req.RewardAmount != "" {
		v, ok := new(big.Int).SetString(req.RewardAmount, 10)
		if !ok || v.Sign() < 0 {
			ErrorResponse(c, http.StatusBadRequest, "无效的奖励金额")
			return
		}
		reward = v
	}

	m, err := h.eng.CreateMilestone(actor, engine.MilestoneParams{
		ProjectID:    req.ProjectId,
		Type:         engine.MilestoneType(req.Type),
		AssignedTo:   engine.Account(req.AssignedTo),
		FundingToken: engine.Token(req.FundingToken),
		RewardAmount: reward,
	})
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}

	record := &model.MilestoneModel{
		Id:            m.ID,
		ProjectId:     m.ProjectID,
		Title:         req.Title,
		Description:   req.Description,
		Type:          string(m.Type),
		Status:        string(m.Status),
		AssignedTo:    string(m.AssignedTo),
		FundingToken:  string(m.FundingToken),
		FundingAmount: "0",
		RewardAmount:  model.Amount(m.RewardAmount),
	}
	if err := h.milestoneLogic.CreateMilestone(record); err != nil {
		logger.Error("Failed to persist milestone %d: %v", m.ID, err)
	}

	SuccessResponse(c, http.StatusCreated, "里程碑创建成功", gin.H{
		"milestone_id": m.ID,
		"status":       m.Status,
	})
}

// GetMilestone 获取里程碑详情
func (h *MilestoneHandler) GetMilestone(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}

	m, err := h.eng.Milestone(id)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}

	data := gin.H{
		"milestone_id":   m.ID,
		"project_id":     m.ProjectID,
		"type":           m.Type,
		"status":         m.Status,
		"assigned_to":    m.AssignedTo,
		"claimed_by":     m.ClaimedBy,
		"funding_token":  m.FundingToken,
		"funding_amount": m.FundingAmount.String(),
		"reward_amount":  m.RewardAmount.String(),
		"evidence_ref":   m.EvidenceRef,
	}
	if record, err := h.milestoneLogic.GetMilestone(id); err == nil {
		data["title"] = record.Title
		data["description"] = record.Description
	}
	SuccessResponse(c, http.StatusOK, "", data)
}

// GetProjectMilestones 获取项目里程碑列表
func (h *MilestoneHandler) GetProjectMilestones(c *gin.Context) {
	projectId, ok := pathId(c, "id")
	if !ok {
		return
	}

	milestones, err := h.milestoneLogic.GetMilestonesByProject(projectId)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{"milestones": milestones})
}

// FundMilestone 里程碑注资
func (h *MilestoneHandler) FundMilestone(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathId(c, "id")
	if !ok {
		return
	}

	var req FundMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	amount, ok := parseAmount(req.Amount)
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "金额必须是正整数字符串")
		return
	}

	if err := h.eng.FundMilestone(actor, id, engine.Token(req.Token), amount); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "注资成功", nil)
}

// ClaimMilestone 认领里程碑
func (h *MilestoneHandler) ClaimMilestone(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathId(c, "id")
	if !ok {
		return
	}

	if err := h.eng.ClaimMilestone(actor, id); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "认领成功", nil)
}

// SubmitEvidence 提交完成证明
func (h *MilestoneHandler) SubmitEvidence(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathId(c, "id")
	if !ok {
		return
	}

	var req SubmitEvidenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.eng.SubmitEvidence(actor, id, req.EvidenceRef); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "证明提交成功", nil)
}

// ApproveMilestone 审批通过里程碑
func (h *MilestoneHandler) ApproveMilestone(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathId(c, "id")
	if !ok {
		return
	}

	if err := h.eng.ApproveMilestone(actor, id); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "审批通过", nil)
}

// RejectMilestone 驳回里程碑
func (h *MilestoneHandler) RejectMilestone(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathId(c, "id")
	if !ok {
		return
	}

	if err := h.eng.RejectMilestone(actor, id); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "已驳回", nil)
}

// ClaimReward 领取里程碑奖励
func (h *MilestoneHandler) ClaimReward(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathId(c, "id")
	if !ok {
		return
	}

	if err := h.eng.ClaimReward(c.Request.Context(), actor, id); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "奖励发放成功", nil)
}

// CancelMilestone 取消里程碑并退款
func (h *MilestoneHandler) CancelMilestone(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathId(c, "id")
	if !ok {
		return
	}

	if err := h.eng.CancelMilestone(c.Request.Context(), actor, id); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "里程碑已取消", nil)
}

// GetFundings 获取里程碑注资记录
func (h *MilestoneHandler) GetFundings(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}

	fundings, err := h.milestoneLogic.GetFundings(id)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{"fundings": fundings})
}

// GetRefunds 获取里程碑退款记录
func (h *MilestoneHandler) GetRefunds(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}

	refunds, err := h.refundLogic.GetRefundRecords(id)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{"refunds": refunds})
}
