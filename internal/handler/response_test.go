package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/sovseas/sse/internal/engine"
	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	v, ok := parseAmount("1000000000000000000")
	assert.True(t, ok)
	assert.Equal(t, "1000000000000000000", v.String())

	for _, s := range []string{"", "0", "-5", "1.5", "abc", "0x10"} {
		_, ok := parseAmount(s)
		assert.False(t, ok, "应当拒绝 %q", s)
	}
}

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{engine.ErrCampaignNotFound, http.StatusNotFound},
		{engine.ErrMilestoneNotFound, http.StatusNotFound},
		{engine.ErrUnauthorized, http.StatusForbidden},
		{engine.ErrZeroAmount, http.StatusBadRequest},
		{engine.ErrCustomWeightMismatch, http.StatusBadRequest},
		{engine.ErrAlreadyDistributed, http.StatusConflict},
		{engine.ErrInvalidMilestoneState, http.StatusConflict},
		{engine.ErrTransferFailed, http.StatusBadGateway},
		{fmt.Errorf("其他错误"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusForError(tc.err), "err=%v", tc.err)
	}
}

func TestStatusForWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("%w: 退款失败", engine.ErrTransferFailed)
	assert.Equal(t, http.StatusBadGateway, statusForError(wrapped))
}
