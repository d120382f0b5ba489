package models

import (
	"time"

	"gorm.io/gorm"
)

// Submission status values. "pending" is never stored: a group without a
// submission row is pending by definition.
const (
	SubmissionStatusSubmitted = "submitted"
	SubmissionStatusApproved  = "approved"
	SubmissionStatusRejected  = "rejected"
)

// Submission represents a single document upload attempt by a group. The
// latest attempt per (assignment, group) is the one that counts; earlier rows
// are kept as history.
type Submission struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	AssignmentID     uint           `gorm:"not null;index" json:"assignment_id"`
	GroupID          uint           `gorm:"not null;index" json:"group_id"`
	FileName         string         `gorm:"size:255;not null" json:"file_name"`
	FilePath         string         `gorm:"size:512;not null" json:"file_path"`
	FileSize         int64          `gorm:"not null" json:"file_size"`
	UploadedBy       uint           `gorm:"not null" json:"uploaded_by"`
	Status           string         `gorm:"size:32;not null" json:"status"`
	Feedback         string         `gorm:"type:text" json:"feedback"`
	ReviewedBy       *uint          `json:"reviewed_by"`
	FileCorrupted    bool           `gorm:"not null;default:false" json:"file_corrupted"`
	SignatureMissing bool           `gorm:"not null;default:false" json:"signature_missing"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	Deleted          gorm.DeletedAt `gorm:"column:deleted;index" json:"-"`
	Assignment       Assignment     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment,omitempty"`
	Group            Group          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"group,omitempty"`
}

// IsFlagged reports whether document validation marked the file as corrupted
// or missing its signature page.
func (s Submission) IsFlagged() bool {
	return s.FileCorrupted || s.SignatureMissing
}

// CanTransition reports whether a status change is allowed. Review moves a
// submitted document to approved or rejected; a rejected document goes back to
// submitted when the group uploads again.
func CanTransition(from, to string) bool {
	switch from {
	case SubmissionStatusSubmitted:
		return to == SubmissionStatusApproved || to == SubmissionStatusRejected
	case SubmissionStatusRejected:
		return to == SubmissionStatusSubmitted
	default:
		return false
	}
}
