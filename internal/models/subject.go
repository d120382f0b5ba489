package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Enrollment roles on a subject.
const (
	EnrollmentStudent = "student"
	EnrollmentTeacher = "teacher"
)

// Subject represents an offered course section that groups and assignments
// hang off. Deleting a subject is a soft delete and deliberately leaves its
// groups and assignments in place.
type Subject struct {
	ID            uint                `gorm:"primaryKey" json:"id"`
	Name          string              `gorm:"size:255;not null" json:"name"`
	Section       string              `gorm:"size:16" json:"section"`
	Semester      int                 `gorm:"not null" json:"semester"`
	Year          int                 `gorm:"not null" json:"year"`
	TrackCapacity datatypes.JSONMap   `gorm:"type:json" json:"track_capacity"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	Deleted       gorm.DeletedAt      `gorm:"column:deleted;index" json:"-"`
	Enrollments   []SubjectEnrollment `json:"enrollments,omitempty"`
}

// SubjectEnrollment links a user to a subject as student or teacher.
type SubjectEnrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SubjectID uint      `gorm:"not null;uniqueIndex:idx_subject_user_role" json:"subject_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_subject_user_role" json:"user_id"`
	Role      string    `gorm:"size:16;not null;uniqueIndex:idx_subject_user_role" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user,omitempty"`
}
