package dto

import (
	"time"

	"github.com/JetsadaSomporn/docverify-api/internal/models"
)

// AssignmentCreateRequest describes the payload for creating an assignment.
type AssignmentCreateRequest struct {
	Name         string         `json:"name" validate:"required,min=3"`
	Description  string         `json:"description"`
	DueDate      string         `json:"due_date" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Requirements map[string]any `json:"requirements"`
}

// AssignmentUpdateRequest describes a partial assignment update.
type AssignmentUpdateRequest struct {
	Name         *string         `json:"name" validate:"omitempty,min=3"`
	Description  *string         `json:"description"`
	DueDate      *string         `json:"due_date" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Requirements *map[string]any `json:"requirements"`
}

// AssignmentResponse is the serialized representation returned to API clients.
type AssignmentResponse struct {
	ID           uint           `json:"id"`
	SubjectID    uint           `json:"subject_id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	AssignedAt   time.Time      `json:"assigned_at"`
	DueDate      time.Time      `json:"due_date"`
	Requirements map[string]any `json:"requirements"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	requirements := map[string]any(model.Requirements)
	if requirements == nil {
		requirements = map[string]any{}
	}

	return AssignmentResponse{
		ID:           model.ID,
		SubjectID:    model.SubjectID,
		Name:         model.Name,
		Description:  model.Description,
		AssignedAt:   model.AssignedAt,
		DueDate:      model.DueDate,
		Requirements: requirements,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts a slice of models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}

	return responses
}
