package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/docauthor/internal/services"
	"github.com/localnerve/docauthor/internal/types"
	"gorm.io/gorm"
)

const projectNotFound = "Project not found"

// ProjectHandler handles project routes
type ProjectHandler struct {
	DB       *gorm.DB
	Workflow *services.Workflow
	Exports  *services.ExportService
}

// CreateProjectRequest is the body of POST /projects
type CreateProjectRequest struct {
	Title          string                 `json:"title" validate:"required,max=255"`
	DocumentType   string                 `json:"document_type" validate:"required,oneof=docx pptx"`
	MainTopic      *string                `json:"main_topic" validate:"omitempty,max=1024"`
	Tone           *string                `json:"tone" validate:"omitempty,max=255"`
	TargetAudience *string                `json:"target_audience" validate:"omitempty,max=255"`
	Sections       types.FlexList[string] `json:"sections" swaggertype:"array,string"`
}

// SuggestOutlineRequest is the body of POST /projects/:id/suggest-outline
type SuggestOutlineRequest struct {
	MainTopic string `json:"main_topic" validate:"required"`
}

// GenerateRequest is the body of POST /projects/:id/generate
type GenerateRequest struct {
	MainTopic     string                 `json:"main_topic" validate:"required"`
	SectionTitles types.FlexList[string] `json:"section_titles" validate:"required,dive,required,max=512" swaggertype:"array,string"`
}

// CreateProject handles POST /api/v1/projects
// @Summary Create a project
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateProjectRequest true "Project"
// @Success 201 {object} services.ProjectView
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /projects [post]
func (h *ProjectHandler) CreateProject(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req CreateProjectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	view, err := services.CreateProject(c.UserContext(), h.DB, user.ID, services.ProjectInput{
		Title:          req.Title,
		DocumentType:   req.DocumentType,
		MainTopic:      req.MainTopic,
		Tone:           req.Tone,
		TargetAudience: req.TargetAudience,
		Sections:       types.TrimStrings(req.Sections),
	})
	if err != nil {
		return serviceError(c, err, projectNotFound)
	}

	return c.Status(fiber.StatusCreated).JSON(view)
}

// ListProjects handles GET /api/v1/projects
// @Summary List the caller's projects, newest first
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Success 200 {array} services.ProjectView
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /projects [get]
func (h *ProjectHandler) ListProjects(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	views, err := services.ListProjects(c.UserContext(), h.DB, user.ID)
	if err != nil {
		return serviceError(c, err, projectNotFound)
	}
	return c.JSON(views)
}

// GetProject handles GET /api/v1/projects/:id
// @Summary Get a project with its sections
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Success 200 {object} services.ProjectView
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /projects/{id} [get]
func (h *ProjectHandler) GetProject(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	projectID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	view, err := services.GetProject(c.UserContext(), h.DB, user.ID, projectID)
	if err != nil {
		return serviceError(c, err, projectNotFound)
	}
	return c.JSON(view)
}

// DeleteProject handles DELETE /api/v1/projects/:id
// @Summary Delete a project, its sections and their history
// @Tags Projects
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Success 204
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /projects/{id} [delete]
func (h *ProjectHandler) DeleteProject(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	projectID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := services.DeleteProject(c.UserContext(), h.DB, user.ID, projectID); err != nil {
		return serviceError(c, err, projectNotFound)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SuggestOutline handles POST /api/v1/projects/:id/suggest-outline
// @Summary Suggest section titles for a topic
// @Description Advisory only, nothing is stored. An unavailable LLM yields an empty list.
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param body body SuggestOutlineRequest true "Topic"
// @Success 200 {array} string
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /projects/{id}/suggest-outline [post]
func (h *ProjectHandler) SuggestOutline(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	projectID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req SuggestOutlineRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	titles, err := h.Workflow.SuggestOutline(c.UserContext(), user.ID, projectID, req.MainTopic)
	if err != nil {
		return serviceError(c, err, projectNotFound)
	}
	return c.JSON(titles)
}

// Generate handles POST /api/v1/projects/:id/generate
// @Summary Replace the project's sections with generated content
// @Description Sections are generated one at a time, in order. A failed section holds placeholder text.
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param body body GenerateRequest true "Topic and ordered section titles"
// @Success 200 {array} models.DocumentSection
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 429 {object} utils.ErrorResponseStruct
// @Router /projects/{id}/generate [post]
func (h *ProjectHandler) Generate(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	projectID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req GenerateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	sections, err := h.Workflow.Generate(c.UserContext(), user.ID, projectID, req.MainTopic, req.SectionTitles.Slice())
	if err != nil {
		return serviceError(c, err, projectNotFound)
	}
	return c.JSON(sections)
}

// Export handles GET /api/v1/projects/:id/export
// @Summary Download the project as docx or pptx
// @Tags Projects
// @Produce application/vnd.openxmlformats-officedocument.wordprocessingml.document
// @Produce application/vnd.openxmlformats-officedocument.presentationml.presentation
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Success 200 {file} file
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /projects/{id}/export [get]
func (h *ProjectHandler) Export(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	projectID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	result, err := h.Exports.Export(c.UserContext(), user.ID, projectID)
	if err != nil {
		return serviceError(c, err, projectNotFound)
	}

	c.Attachment(result.Filename)
	c.Set(fiber.HeaderContentType, result.MimeType)
	return c.Send(result.Data)
}
