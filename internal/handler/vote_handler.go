package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sovseas/sse/internal/engine"
	"github.com/sovseas/sse/internal/logger"
	"github.com/sovseas/sse/internal/logic"
	"github.com/sovseas/sse/internal/model"
	"gorm.io/gorm"
)

// VoteHandler 投票接口
type VoteHandler struct {
	eng       *engine.Engine
	voteLogic *logic.VoteRecordLogic
}

// NewVoteHandler 创建投票接口
func NewVoteHandler(eng *engine.Engine, db *gorm.DB) *VoteHandler {
	return &VoteHandler{
		eng:       eng,
		voteLogic: logic.NewVoteRecordLogic(db),
	}
}

// CastVote 投票
func (h *VoteHandler) CastVote(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	campaignId, ok := pathId(c, "id")
	if !ok {
		return
	}

	var req CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	rawAmount, ok := parseAmount(req.Amount)
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "金额必须是正整数字符串")
		return
	}

	canonical, err := h.eng.RecordVote(c.Request.Context(), campaignId, req.ProjectId, actor, engine.Token(req.Token), rawAmount)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}

	if err := h.voteLogic.CreateVoteRecord(&model.VoteRecordModel{
		CampaignId:      campaignId,
		ProjectId:       req.ProjectId,
		Voter:           string(actor),
		Token:           req.Token,
		RawAmount:       rawAmount.String(),
		CanonicalAmount: canonical.String(),
	}); err != nil {
		logger.Error("Failed to persist vote record: %v", err)
	}

	SuccessResponse(c, http.StatusCreated, "投票成功", gin.H{
		"canonical_amount": canonical.String(),
	})
}

// GetVoteRecords 获取活动投票记录
func (h *VoteHandler) GetVoteRecords(c *gin.Context) {
	campaignId, ok := pathId(c, "id")
	if !ok {
		return
	}

	var (
		records []model.VoteRecordModel
		err     error
	)
	if projectId := c.Query("project_id"); projectId != "" {
		id, parseErr := strconv.ParseInt(projectId, 10, 64)
		if parseErr != nil {
			ErrorResponse(c, http.StatusBadRequest, "无效的project_id")
			return
		}
		records, err = h.voteLogic.GetVoteRecordsByProject(campaignId, id)
	} else {
		records, err = h.voteLogic.GetVoteRecords(campaignId)
	}
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{"votes": records})
}

// GetVoterRecords 获取投票人的投票记录
func (h *VoteHandler) GetVoterRecords(c *gin.Context) {
	voter := c.Param("voter")
	if voter == "" {
		ErrorResponse(c, http.StatusBadRequest, "无效的voter")
		return
	}

	records, err := h.voteLogic.GetVoteRecordsByVoter(voter)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{"votes": records})
}
