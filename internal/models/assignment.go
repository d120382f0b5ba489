package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RequirementDueDateKey is the requirements entry carrying a duplicated copy
// of the due date. The column stays canonical; the copy exists because older
// clients read the deadline out of the requirements payload.
const RequirementDueDateKey = "full_due_datetime"

// Assignment represents a document deliverable defined for a subject.
type Assignment struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	SubjectID    uint              `gorm:"not null;index" json:"subject_id"`
	Name         string            `gorm:"size:255;not null" json:"name"`
	Description  string            `gorm:"type:text" json:"description"`
	AssignedAt   time.Time         `gorm:"not null" json:"assigned_at"`
	DueDate      time.Time         `gorm:"not null" json:"due_date"`
	Requirements datatypes.JSONMap `gorm:"type:json" json:"requirements"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Deleted      gorm.DeletedAt    `gorm:"column:deleted;index" json:"-"`
}

// IsPastDue returns true when the deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}

// StampDueDate stores the canonical due date and mirrors it into the
// requirements payload in UTC.
func (a *Assignment) StampDueDate(due time.Time) {
	a.DueDate = due.UTC()
	if a.Requirements == nil {
		a.Requirements = datatypes.JSONMap{}
	}
	a.Requirements[RequirementDueDateKey] = a.DueDate.Format(time.RFC3339)
}
