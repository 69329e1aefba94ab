package identity

import (
	"strings"

	"github.com/sovseas/sse/internal/engine"
)

// Resolver 基于配置的平台身份解析，账户地址大小写不敏感
type Resolver struct {
	superAdmins map[engine.Account]struct{}
}

// NewResolver 创建身份解析器
func NewResolver(superAdmins []string) *Resolver {
	admins := make(map[engine.Account]struct{}, len(superAdmins))
	for _, a := range superAdmins {
		admins[normalize(a)] = struct{}{}
	}
	return &Resolver{superAdmins: admins}
}

// ResolveRoles 返回账户的平台级角色
func (r *Resolver) ResolveRoles(account engine.Account) []engine.Role {
	if _, ok := r.superAdmins[normalize(string(account))]; ok {
		return []engine.Role{engine.RoleSuperAdmin}
	}
	return nil
}

func normalize(account string) engine.Account {
	return engine.Account(strings.ToLower(strings.TrimSpace(account)))
}
