package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sovseas/sse/internal/engine"
	"github.com/sovseas/sse/internal/logger"
	"github.com/sovseas/sse/internal/logic"
	"github.com/sovseas/sse/internal/model"
	"gorm.io/gorm"
)

// ProjectHandler 项目接口
type ProjectHandler struct {
	eng          *engine.Engine
	projectLogic *logic.ProjectLogic
}

// NewProjectHandler 创建项目接口
func NewProjectHandler(eng *engine.Engine, db *gorm.DB) *ProjectHandler {
	return &ProjectHandler{
		eng:          eng,
		projectLogic: logic.NewProjectLogic(db),
	}
}

// CreateProject 创建项目
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	transferrable := true
	if req.Transferrable != nil {
		transferrable = *req.Transferrable
	}

	project, err := h.eng.CreateProject(actor, transferrable)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}

	record := &model.ProjectModel{
		Id:            project.ID,
		Title:         req.Title,
		Description:   req.Description,
		ImageURL:      req.ImageURL,
		Category:      req.Category,
		Owner:         string(actor),
		Transferrable: transferrable,
	}
	if err := h.projectLogic.CreateProject(record); err != nil {
		logger.Error("Failed to persist project %d: %v", project.ID, err)
	}

	SuccessResponse(c, http.StatusCreated, "项目创建成功", gin.H{
		"project_id": project.ID,
		"owner":      project.Owner,
	})
}

// GetProjects 获取项目列表
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	owner := c.Query("owner")

	var (
		projects []model.ProjectModel
		err      error
	)
	if owner != "" {
		projects, err = h.projectLogic.GetProjectsByOwner(owner)
	} else {
		projects, err = h.projectLogic.GetProjects()
	}
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{"projects": projects})
}

// GetProject 获取项目详情
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}

	project, err := h.eng.Project(id)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}

	data := gin.H{
		"project_id":    project.ID,
		"owner":         project.Owner,
		"transferrable": project.Transferrable,
		"active":        project.Active,
	}
	if record, err := h.projectLogic.GetProject(id); err == nil {
		data["title"] = record.Title
		data["description"] = record.Description
		data["image_url"] = record.ImageURL
		data["category"] = record.Category
	}
	SuccessResponse(c, http.StatusOK, "", data)
}

// TransferProject 转让项目所有权
func (h *ProjectHandler) TransferProject(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathId(c, "id")
	if !ok {
		return
	}

	var req TransferProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.eng.TransferProject(actor, id, engine.Account(req.NewOwner)); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "项目转让成功", nil)
}

// DeactivateProject 停用项目
func (h *ProjectHandler) DeactivateProject(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathId(c, "id")
	if !ok {
		return
	}

	if err := h.eng.DeactivateProject(actor, id); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "项目已停用", nil)
}
