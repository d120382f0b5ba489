package dto

import (
	"time"

	"github.com/JetsadaSomporn/docverify-api/internal/models"
)

// SubjectCreateRequest describes the payload for creating a subject.
type SubjectCreateRequest struct {
	Name          string         `json:"name" validate:"required,min=3"`
	Section       string         `json:"section" validate:"omitempty,max=16"`
	Semester      int            `json:"semester" validate:"required,min=1,max=3"`
	Year          int            `json:"year" validate:"required,min=2000"`
	TrackCapacity map[string]any `json:"track_capacity"`
}

// SubjectUpdateRequest describes a partial subject update.
type SubjectUpdateRequest struct {
	Name          *string         `json:"name" validate:"omitempty,min=3"`
	Section       *string         `json:"section" validate:"omitempty,max=16"`
	Semester      *int            `json:"semester" validate:"omitempty,min=1,max=3"`
	Year          *int            `json:"year" validate:"omitempty,min=2000"`
	TrackCapacity *map[string]any `json:"track_capacity"`
}

// EnrollRequest carries a batch of student IDs to enroll.
type EnrollRequest struct {
	StudentIDs []string `json:"student_ids" validate:"required,min=1"`
}

// EnrollTeachersRequest carries a batch of user IDs to attach as teachers.
type EnrollTeachersRequest struct {
	UserIDs []uint `json:"user_ids" validate:"required,min=1"`
}

// SubjectResponse is the serialized representation returned to API clients.
type SubjectResponse struct {
	ID            uint           `json:"id"`
	Name          string         `json:"name"`
	Section       string         `json:"section"`
	Semester      int            `json:"semester"`
	Year          int            `json:"year"`
	TrackCapacity map[string]any `json:"track_capacity"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// SubjectListResponse wraps a page of subjects.
type SubjectListResponse struct {
	Subjects []SubjectResponse `json:"subjects"`
	Total    int64             `json:"total"`
}

// ImportRowError records a roster row that failed to import.
type ImportRowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportReport summarises an xlsx roster import.
type ImportReport struct {
	Imported int              `json:"imported"`
	Skipped  int              `json:"skipped"`
	Errors   []ImportRowError `json:"errors"`
}

// NewSubjectResponse converts a model into a DTO.
func NewSubjectResponse(model models.Subject) SubjectResponse {
	capacity := map[string]any(model.TrackCapacity)
	if capacity == nil {
		capacity = map[string]any{}
	}

	return SubjectResponse{
		ID:            model.ID,
		Name:          model.Name,
		Section:       model.Section,
		Semester:      model.Semester,
		Year:          model.Year,
		TrackCapacity: capacity,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

// NewSubjectResponseSlice converts a slice of models into DTOs.
func NewSubjectResponseSlice(subjects []models.Subject) []SubjectResponse {
	responses := make([]SubjectResponse, 0, len(subjects))
	for _, subject := range subjects {
		responses = append(responses, NewSubjectResponse(subject))
	}

	return responses
}
