package dto

import (
	"time"

	"github.com/JetsadaSomporn/docverify-api/internal/models"
)

// ReviewRequest carries an advisor's decision on a submitted document.
type ReviewRequest struct {
	Status   string `json:"status" validate:"required,oneof=approved rejected"`
	Feedback string `json:"feedback" validate:"omitempty,max=4000"`
}

// FlagRequest records document validation results for a submission. The
// validation itself runs outside this service; only the flags are stored.
type FlagRequest struct {
	FileCorrupted    *bool `json:"file_corrupted"`
	SignatureMissing *bool `json:"signature_missing"`
}

// SubmissionResponse is the serialized representation returned to API clients.
type SubmissionResponse struct {
	ID               uint      `json:"id"`
	AssignmentID     uint      `json:"assignment_id"`
	GroupID          uint      `json:"group_id"`
	FileName         string    `json:"file_name"`
	FilePath         string    `json:"file_path"`
	FileSize         int64     `json:"file_size"`
	UploadedBy       uint      `json:"uploaded_by"`
	Status           string    `json:"status"`
	Feedback         string    `json:"feedback,omitempty"`
	FileCorrupted    bool      `json:"file_corrupted"`
	SignatureMissing bool      `json:"signature_missing"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewSubmissionResponse converts a model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:               model.ID,
		AssignmentID:     model.AssignmentID,
		GroupID:          model.GroupID,
		FileName:         model.FileName,
		FilePath:         model.FilePath,
		FileSize:         model.FileSize,
		UploadedBy:       model.UploadedBy,
		Status:           model.Status,
		Feedback:         model.Feedback,
		FileCorrupted:    model.FileCorrupted,
		SignatureMissing: model.SignatureMissing,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

// NewSubmissionResponseSlice converts a slice of models into DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
