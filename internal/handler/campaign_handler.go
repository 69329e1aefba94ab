package handler

import (
	"math/big"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sovseas/sse/internal/engine"
	"github.com/sovseas/sse/internal/logger"
	"github.com/sovseas/sse/internal/logic"
	"github.com/sovseas/sse/internal/model"
	"gorm.io/gorm"
)

// CampaignHandler 活动接口
type CampaignHandler struct {
	eng                *engine.Engine
	campaignLogic      *logic.CampaignLogic
	participationLogic *logic.ParticipationLogic
	payoutLogic        *logic.PayoutRecordLogic
}

// NewCampaignHandler 创建活动接口
func NewCampaignHandler(eng *engine.Engine, db *gorm.DB) *CampaignHandler {
	return &CampaignHandler{
		eng:                eng,
		campaignLogic:      logic.NewCampaignLogic(db),
		participationLogic: logic.NewParticipationLogic(db),
		payoutLogic:        logic.NewPayoutRecordLogic(db),
	}
}

// CreateCampaign 创建活动
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	campaign, err := h.eng.CreateCampaign(engine.CampaignParams{
		Admin:        actor,
		StartTime:    time.Unix(req.StartTime, 0),
		EndTime:      time.Unix(req.EndTime, 0),
		AdminFeeBps:  req.AdminFeeBps,
		MaxWinners:   req.MaxWinners,
		Policy:       engine.DistributionPolicy(req.Policy),
		PayoutToken:  engine.Token(req.PayoutToken),
		AutoFinalize: req.AutoFinalize,
	})
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}

	// 数据库是读模型，落库失败不回滚引擎
	record := &model.CampaignModel{
		Id:           campaign.ID,
		Title:        req.Title,
		Description:  req.Description,
		Admin:        string(actor),
		StartTime:    campaign.StartTime,
		EndTime:      campaign.EndTime,
		AdminFeeBps:  campaign.AdminFeeBps,
		MaxWinners:   campaign.MaxWinners,
		Policy:       string(campaign.Policy),
		PayoutToken:  string(campaign.PayoutToken),
		AutoFinalize: campaign.AutoFinalize,
	}
	if err := h.campaignLogic.CreateCampaign(record); err != nil {
		logger.Error("Failed to persist campaign %d: %v", campaign.ID, err)
	}

	SuccessResponse(c, http.StatusCreated, "活动创建成功", gin.H{
		"campaign_id": campaign.ID,
		"start_time":  campaign.StartTime.Unix(),
		"end_time":    campaign.EndTime.Unix(),
		"policy":      campaign.Policy,
	})
}

// GetCampaigns 获取活动列表
func (h *CampaignHandler) GetCampaigns(c *gin.Context) {
	campaigns, err := h.campaignLogic.GetCampaigns()
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{"campaigns": campaigns})
}

// GetCampaign 获取活动详情，实时数据取自引擎
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}

	campaign, err := h.eng.Campaign(id)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}

	record, err := h.campaignLogic.GetCampaign(id)
	if err != nil {
		// 读模型落后时只返回引擎快照
		logger.Warn("Campaign %d missing from read model: %v", id, err)
	}

	data := gin.H{
		"campaign_id":   campaign.ID,
		"admin":         campaign.Admin,
		"start_time":    campaign.StartTime.Unix(),
		"end_time":      campaign.EndTime.Unix(),
		"admin_fee_bps": campaign.AdminFeeBps,
		"max_winners":   campaign.MaxWinners,
		"policy":        campaign.Policy,
		"payout_token":  campaign.PayoutToken,
		"total_funds":   campaign.TotalFunds.String(),
		"finalized":     campaign.Finalized,
		"active":        campaign.Active,
	}
	if record != nil {
		data["title"] = record.Title
		data["description"] = record.Description
	}
	SuccessResponse(c, http.StatusOK, "", data)
}

// GetCampaignStats 获取活动统计
func (h *CampaignHandler) GetCampaignStats(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}

	stats, err := h.campaignLogic.GetCampaignStats(id)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "", stats)
}

// JoinCampaign 项目报名活动
func (h *CampaignHandler) JoinCampaign(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathId(c, "id")
	if !ok {
		return
	}

	var req JoinCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.eng.JoinCampaign(actor, id, req.ProjectId); err != nil {
		EngineErrorResponse(c, err)
		return
	}

	if err := h.participationLogic.CreateParticipation(&model.ParticipationModel{
		CampaignId: id,
		ProjectId:  req.ProjectId,
	}); err != nil {
		logger.Error("Failed to persist participation %d/%d: %v", id, req.ProjectId, err)
	}

	SuccessResponse(c, http.StatusCreated, "报名成功", nil)
}

// ApproveParticipation 审批项目参与
func (h *CampaignHandler) ApproveParticipation(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	projectId, ok := pathId(c, "project_id")
	if !ok {
		return
	}

	if err := h.eng.ApproveParticipation(actor, id, projectId); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "审批成功", nil)
}

// GetParticipations 获取活动参与列表
func (h *CampaignHandler) GetParticipations(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}

	participations, err := h.participationLogic.GetParticipations(id)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{"participations": participations})
}

// AddSteward 添加活动管理员
func (h *CampaignHandler) AddSteward(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathId(c, "id")
	if !ok {
		return
	}

	var req AddStewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.eng.AddSteward(actor, id, engine.Account(req.Steward)); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "管理员添加成功", nil)
}

// FinalizeCampaign 结算活动
func (h *CampaignHandler) FinalizeCampaign(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathId(c, "id")
	if !ok {
		return
	}

	var req FinalizeCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var weights map[int64]*big.Int
	if len(req.CustomWeights) > 0 {
		weights = make(map[int64]*big.Int, len(req.CustomWeights))
		for projectId, s := range req.CustomWeights {
			w, ok := new(big.Int).SetString(s, 10)
			if !ok || w.Sign() < 0 {
				ErrorResponse(c, http.StatusBadRequest, "无效的自定义权重")
				return
			}
			weights[projectId] = w
		}
	}

	payouts, err := h.eng.FinalizeCampaign(c.Request.Context(), actor, id, weights)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}

	result := make([]gin.H, 0, len(payouts))
	for _, p := range payouts {
		result = append(result, gin.H{
			"project_id": p.ProjectID,
			"recipient":  p.Owner,
			"amount":     p.Amount.String(),
		})
	}
	SuccessResponse(c, http.StatusOK, "结算完成", gin.H{"payouts": result})
}

// GetPayoutRecords 获取活动发放记录
func (h *CampaignHandler) GetPayoutRecords(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}

	records, err := h.payoutLogic.GetPayoutRecords(id)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{"payouts": records})
}
