package model

import (
	"time"
)

// ProjectModel 项目模型
type ProjectModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`
	ImageURL    string `json:"image_url"`
	Category    string `json:"category"`

	// 所有权
	Owner         string `json:"owner" gorm:"not null;index"`
	Transferrable bool   `json:"transferrable" gorm:"default:true"` // 是否允许转让所有权

	// 状态：项目只停用不删除
	Active bool `json:"active" gorm:"default:true"`
}

// TableName 自定义表名
func (ProjectModel) TableName() string {
	return "project"
}
