package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sovseas/sse/internal/logic"
	"gorm.io/gorm"
)

// EventHandler 审计事件与账户流水查询接口
type EventHandler struct {
	eventLogic  *logic.EventLogic
	payoutLogic *logic.PayoutRecordLogic
	refundLogic *logic.RefundRecordLogic
}

// NewEventHandler 创建审计事件接口
func NewEventHandler(db *gorm.DB) *EventHandler {
	return &EventHandler{
		eventLogic:  logic.NewEventLogic(db),
		payoutLogic: logic.NewPayoutRecordLogic(db),
		refundLogic: logic.NewRefundRecordLogic(db),
	}
}

// GetCampaignEvents 获取活动审计事件
func (h *EventHandler) GetCampaignEvents(c *gin.Context) {
	campaignId, ok := pathId(c, "id")
	if !ok {
		return
	}

	events, err := h.eventLogic.GetEventsByCampaign(campaignId)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{"events": events})
}

// GetMilestoneEvents 获取里程碑审计事件
func (h *EventHandler) GetMilestoneEvents(c *gin.Context) {
	milestoneId, ok := pathId(c, "id")
	if !ok {
		return
	}

	events, err := h.eventLogic.GetEventsByMilestone(milestoneId)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{"events": events})
}

// GetAccountPayouts 获取账户收到的拨付记录
func (h *EventHandler) GetAccountPayouts(c *gin.Context) {
	account := c.Param("account")
	if account == "" {
		ErrorResponse(c, http.StatusBadRequest, "无效的account")
		return
	}

	records, err := h.payoutLogic.GetPayoutRecordsByRecipient(account)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{"payouts": records})
}

// GetAccountRefunds 获取账户收到的退款记录
func (h *EventHandler) GetAccountRefunds(c *gin.Context) {
	account := c.Param("account")
	if account == "" {
		ErrorResponse(c, http.StatusBadRequest, "无效的account")
		return
	}

	records, err := h.refundLogic.GetRefundRecordsByFunder(account)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{"refunds": records})
}
