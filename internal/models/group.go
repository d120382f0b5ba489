package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Membership roles within a project group.
const (
	GroupRoleMember  = "member"
	GroupRoleAdvisor = "advisor"
)

// MaxAdvisorsPerGroup caps the number of advisors a group may carry.
const MaxAdvisorsPerGroup = 2

// Group represents a student project team within a subject. Group names carry
// the track as a prefix (e.g. "BIT-03"), and members must belong to that track.
type Group struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	Name        string            `gorm:"size:128;not null;index" json:"name"`
	ProjectName string            `gorm:"size:255" json:"project_name"`
	SubjectID   uint              `gorm:"not null;index" json:"subject_id"`
	Note        string            `gorm:"type:text" json:"note"`
	AdvisorMeta datatypes.JSONMap `gorm:"type:json" json:"advisor_meta"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Deleted     gorm.DeletedAt    `gorm:"column:deleted;index" json:"-"`
	Members     []GroupMember     `json:"members,omitempty"`
}

// GroupMember links a user to a group as member or advisor.
type GroupMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GroupID   uint      `gorm:"not null;uniqueIndex:idx_group_user" json:"group_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_group_user" json:"user_id"`
	Role      string    `gorm:"size:16;not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user,omitempty"`
}

// TrackPrefix extracts the track portion of the group name, everything before
// the first dash.
func (g Group) TrackPrefix() string {
	name := strings.TrimSpace(g.Name)
	if idx := strings.Index(name, "-"); idx > 0 {
		return strings.ToUpper(name[:idx])
	}
	return strings.ToUpper(name)
}

// RosterSize counts the student members of the group.
func (g Group) RosterSize() int {
	count := 0
	for _, member := range g.Members {
		if member.Role == GroupRoleMember {
			count++
		}
	}
	return count
}

// AdvisorCount counts the advisors attached to the group.
func (g Group) AdvisorCount() int {
	count := 0
	for _, member := range g.Members {
		if member.Role == GroupRoleAdvisor {
			count++
		}
	}
	return count
}
