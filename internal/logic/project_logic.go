package logic

import (
	"errors"
	"fmt"

	"github.com/sovseas/sse/internal/model"
	"gorm.io/gorm"
)

// ProjectLogic 项目业务逻辑
type ProjectLogic struct {
	db *gorm.DB
}

// NewProjectLogic 创建项目业务逻辑
func NewProjectLogic(db *gorm.DB) *ProjectLogic {
	return &ProjectLogic{db: db}
}

// CreateProject 创建项目
func (p *ProjectLogic) CreateProject(project *model.ProjectModel) error {
	if project.Title == "" {
		return errors.New("项目标题不能为空")
	}
	if project.Owner == "" {
		return errors.New("项目所有者不能为空")
	}

	project.Active = true

	if err := p.db.Create(project).Error; err != nil {
		return fmt.Errorf("创建项目失败: %w", err)
	}
	return nil
}

// GetProjects 获取项目列表
func (p *ProjectLogic) GetProjects() ([]model.ProjectModel, error) {
	var projects []model.ProjectModel
	if err := p.db.Order("id desc").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("获取项目列表失败: %w", err)
	}
	return projects, nil
}

// GetProject 获取项目详情
func (p *ProjectLogic) GetProject(id int64) (*model.ProjectModel, error) {
	var project model.ProjectModel
	if err := p.db.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("项目不存在")
		}
		return nil, fmt.Errorf("获取项目详情失败: %w", err)
	}
	return &project, nil
}

// GetProjectsByOwner 按所有者获取项目
func (p *ProjectLogic) GetProjectsByOwner(owner string) ([]model.ProjectModel, error) {
	var projects []model.ProjectModel
	if err := p.db.Where("owner = ?", owner).Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("按所有者获取项目失败: %w", err)
	}
	return projects, nil
}

// UpdateOwner 更新项目所有者
func (p *ProjectLogic) UpdateOwner(id int64, owner string) error {
	result := p.db.Model(&model.ProjectModel{}).
		Where("id = ?", id).
		Update("owner", owner)
	if result.Error != nil {
		return fmt.Errorf("更新项目所有者失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("项目不存在")
	}
	return nil
}

// Deactivate 停用项目，保留记录不删除
func (p *ProjectLogic) Deactivate(id int64) error {
	result := p.db.Model(&model.ProjectModel{}).
		Where("id = ?", id).
		Update("active", false)
	if result.Error != nil {
		return fmt.Errorf("停用项目失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("项目不存在")
	}
	return nil
}
