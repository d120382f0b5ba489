package dto

import (
	"time"

	"github.com/JetsadaSomporn/docverify-api/internal/models"
)

// NotificationResponse is one entry of the flagged-document polling feed,
// denormalised with group and assignment names for direct rendering.
type NotificationResponse struct {
	SubmissionID     uint      `json:"submission_id"`
	AssignmentID     uint      `json:"assignment_id"`
	AssignmentName   string    `json:"assignment_name"`
	GroupID          uint      `json:"group_id"`
	GroupName        string    `json:"group_name"`
	SubjectID        uint      `json:"subject_id"`
	FileName         string    `json:"file_name"`
	FileCorrupted    bool      `json:"file_corrupted"`
	SignatureMissing bool      `json:"signature_missing"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewNotificationResponse converts a flagged submission into a feed entry.
func NewNotificationResponse(model models.Submission) NotificationResponse {
	return NotificationResponse{
		SubmissionID:     model.ID,
		AssignmentID:     model.AssignmentID,
		AssignmentName:   model.Assignment.Name,
		GroupID:          model.GroupID,
		GroupName:        model.Group.Name,
		SubjectID:        model.Assignment.SubjectID,
		FileName:         model.FileName,
		FileCorrupted:    model.FileCorrupted,
		SignatureMissing: model.SignatureMissing,
		UpdatedAt:        model.UpdatedAt,
	}
}
