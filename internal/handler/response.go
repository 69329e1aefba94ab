package handler

import (
	"errors"
	"math/big"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sovseas/sse/internal/engine"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// EngineErrorResponse 把引擎错误映射为HTTP状态码
func EngineErrorResponse(c *gin.Context, err error) {
	ErrorResponse(c, statusForError(err), err.Error())
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, engine.ErrCampaignNotFound),
		errors.Is(err, engine.ErrProjectNotFound),
		errors.Is(err, engine.ErrMilestoneNotFound),
		errors.Is(err, engine.ErrParticipationNotFound),
		errors.Is(err, engine.ErrVoteRecordNotFound):
		return http.StatusNotFound

	case errors.Is(err, engine.ErrUnauthorized):
		return http.StatusForbidden

	case errors.Is(err, engine.ErrZeroAmount),
		errors.Is(err, engine.ErrUnsupportedToken),
		errors.Is(err, engine.ErrTokenMismatch),
		errors.Is(err, engine.ErrInvalidTimeWindow),
		errors.Is(err, engine.ErrInvalidFee),
		errors.Is(err, engine.ErrInvalidPolicy),
		errors.Is(err, engine.ErrCustomWeightMismatch):
		return http.StatusBadRequest

	case errors.Is(err, engine.ErrCampaignNotActive),
		errors.Is(err, engine.ErrCampaignWindowClosed),
		errors.Is(err, engine.ErrCampaignStillOpen),
		errors.Is(err, engine.ErrAlreadyDistributed),
		errors.Is(err, engine.ErrAlreadyParticipating),
		errors.Is(err, engine.ErrProjectInactive),
		errors.Is(err, engine.ErrProjectNotTransferrable),
		errors.Is(err, engine.ErrInvalidMilestoneState):
		return http.StatusConflict

	case errors.Is(err, engine.ErrOracleUnavailable),
		errors.Is(err, engine.ErrInsufficientPool),
		errors.Is(err, engine.ErrTransferFailed):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// actorFrom 从请求头解析操作账户
func actorFrom(c *gin.Context) (engine.Account, bool) {
	account := c.GetHeader("X-Account")
	if account == "" {
		ErrorResponse(c, http.StatusUnauthorized, "缺少 X-Account 请求头")
		return "", false
	}
	return engine.Account(account), true
}

// pathId 解析路径里的数字ID
func pathId(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		ErrorResponse(c, http.StatusBadRequest, "无效的"+name)
		return 0, false
	}
	return id, true
}

// parseAmount 解析十进制金额字符串，必须为正
func parseAmount(s string) (*big.Int, bool) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() <= 0 {
		return nil, false
	}
	return v, true
}
