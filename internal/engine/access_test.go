package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasPermissionMatrix(t *testing.T) {
	f := newFixture(t)
	c := f.newCampaign(t, admin, 0, 0, PolicyLinear)
	require.NoError(t, f.eng.AddSteward(admin, c.ID, "0xSTEWARD"))

	p, err := f.eng.CreateProject(owner, true)
	require.NoError(t, err)
	require.NoError(t, f.eng.JoinCampaign(owner, c.ID, p.ID))

	campaign, err := f.eng.Campaign(c.ID)
	require.NoError(t, err)
	project, err := f.eng.Project(p.ID)
	require.NoError(t, err)

	access := f.eng.Access()

	tests := []struct {
		name   string
		actor  Account
		action Action
		target Target
		want   bool
	}{
		{"管理员可结算", admin, ActionFinalizeCampaign, Target{Campaign: campaign}, true},
		{"审批人不可结算", "0xSTEWARD", ActionFinalizeCampaign, Target{Campaign: campaign}, false},
		{"审批人可审批参与", "0xSTEWARD", ActionApproveParticipation, Target{Campaign: campaign}, true},
		{"路人不可审批参与", "0xNOBODY", ActionApproveParticipation, Target{Campaign: campaign}, false},
		{"所有人可建里程碑", owner, ActionCreateMilestone, Target{Project: project}, true},
		{"路人不可建里程碑", "0xNOBODY", ActionCreateMilestone, Target{Project: project}, false},
		{"超级管理员放行一切", platformRoot, ActionCancelMilestone, Target{}, true},
		{"空账户一律拒绝", "", ActionFinalizeCampaign, Target{Campaign: campaign}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, access.HasPermission(tt.actor, tt.action, tt.target))
		})
	}
}

func TestProjectOwnershipTransfer(t *testing.T) {
	f := newFixture(t)

	p, err := f.eng.CreateProject(owner, true)
	require.NoError(t, err)

	// 非所有人不能转让
	err = f.eng.TransferProject("0xNOBODY", p.ID, "0xNEW")
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, f.eng.TransferProject(owner, p.ID, "0xNEW"))
	got, err := f.eng.Project(p.ID)
	require.NoError(t, err)
	assert.Equal(t, Account("0xNEW"), got.Owner)

	// 原所有人失去权限
	err = f.eng.TransferProject(owner, p.ID, "0xBACK")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestNonTransferrableProject(t *testing.T) {
	f := newFixture(t)

	p, err := f.eng.CreateProject(owner, false)
	require.NoError(t, err)

	err = f.eng.TransferProject(owner, p.ID, "0xNEW")
	assert.ErrorIs(t, err, ErrProjectNotTransferrable)
}

func TestCampaignValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.eng.CreateCampaign(CampaignParams{
		Admin:       admin,
		StartTime:   f.now.Add(time.Hour),
		EndTime:     f.now,
		Policy:      PolicyLinear,
		PayoutToken: tokenCELO,
	})
	assert.ErrorIs(t, err, ErrInvalidTimeWindow)

	_, err = f.eng.CreateCampaign(CampaignParams{
		Admin:       admin,
		StartTime:   f.now,
		EndTime:     f.now.Add(time.Hour),
		AdminFeeBps: 10001,
		Policy:      PolicyLinear,
		PayoutToken: tokenCELO,
	})
	assert.ErrorIs(t, err, ErrInvalidFee)

	_, err = f.eng.CreateCampaign(CampaignParams{
		Admin:       admin,
		StartTime:   f.now,
		EndTime:     f.now.Add(time.Hour),
		Policy:      DistributionPolicy("both"),
		PayoutToken: tokenCELO,
	})
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}
