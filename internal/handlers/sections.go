package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/docauthor/internal/services"
)

const sectionNotFound = "Section not found"

// SectionHandler handles section refinement, metadata and history
type SectionHandler struct {
	Workflow *services.Workflow
}

// RefineRequest is the body of POST /sections/:id/refine
type RefineRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

// UpdateSectionRequest is the body of PATCH /sections/:id.
// user_notes is accepted as an alias of comment.
type UpdateSectionRequest struct {
	Comment   *string `json:"comment"`
	UserNotes *string `json:"user_notes"`
	Feedback  *string `json:"feedback" validate:"omitempty,oneof=like dislike"`
}

// HistoryResponse is one refinement history record
type HistoryResponse struct {
	ID              uint64    `json:"id"`
	Prompt          string    `json:"prompt"`
	PreviousContent *string   `json:"previous_content"`
	CreatedAt       time.Time `json:"created_at"`
}

// Refine handles POST /api/v1/sections/:id/refine
// @Summary Refine a section's content with an instruction
// @Description The content before the call is recorded in the section history, even when the LLM fails.
// @Tags Sections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Section ID"
// @Param body body RefineRequest true "Instruction"
// @Success 200 {object} models.DocumentSection
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 429 {object} utils.ErrorResponseStruct
// @Router /sections/{id}/refine [post]
func (h *SectionHandler) Refine(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	sectionID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req RefineRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	section, err := h.Workflow.Refine(c.UserContext(), user.ID, sectionID, req.Prompt)
	if err != nil {
		return serviceError(c, err, sectionNotFound)
	}
	return c.JSON(section)
}

// UpdateSection handles PATCH /api/v1/sections/:id
// @Summary Update a section's comment or feedback
// @Description Absent fields are left unchanged.
// @Tags Sections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Section ID"
// @Param body body UpdateSectionRequest true "Patch"
// @Success 200 {object} models.DocumentSection
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /sections/{id} [patch]
func (h *SectionHandler) UpdateSection(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	sectionID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req UpdateSectionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	section, err := h.Workflow.UpdateMetadata(c.UserContext(), user.ID, sectionID, services.SectionPatch{
		Comment:   req.Comment,
		UserNotes: req.UserNotes,
		Feedback:  req.Feedback,
	})
	if err != nil {
		return serviceError(c, err, sectionNotFound)
	}
	return c.JSON(section)
}

// History handles GET /api/v1/sections/:id/history
// @Summary List a section's refinement history, newest first
// @Tags Sections
// @Produce json
// @Security BearerAuth
// @Param id path int true "Section ID"
// @Success 200 {array} HistoryResponse
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /sections/{id}/history [get]
func (h *SectionHandler) History(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	sectionID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	records, err := h.Workflow.History(c.UserContext(), user.ID, sectionID)
	if err != nil {
		return serviceError(c, err, sectionNotFound)
	}

	out := make([]HistoryResponse, len(records))
	for i, r := range records {
		out[i] = HistoryResponse{
			ID:              r.ID,
			Prompt:          r.Prompt,
			PreviousContent: r.PreviousContent,
			CreatedAt:       r.CreatedAt,
		}
	}
	return c.JSON(out)
}
