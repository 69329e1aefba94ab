package identity

import (
	"testing"

	"github.com/sovseas/sse/internal/engine"
	"github.com/stretchr/testify/assert"
)

func TestResolveSuperAdmin(t *testing.T) {
	r := NewResolver([]string{"0xAdmin", "0xRoot"})

	roles := r.ResolveRoles(engine.Account("0xAdmin"))
	assert.Equal(t, []engine.Role{engine.RoleSuperAdmin}, roles)

	// 地址匹配大小写不敏感
	roles = r.ResolveRoles(engine.Account("0xROOT"))
	assert.Equal(t, []engine.Role{engine.RoleSuperAdmin}, roles)
}

func TestResolveUnknownAccount(t *testing.T) {
	r := NewResolver([]string{"0xAdmin"})

	assert.Nil(t, r.ResolveRoles(engine.Account("0xSomebody")))
	assert.Nil(t, r.ResolveRoles(engine.Account("")))
}
