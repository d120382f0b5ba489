package models

import (
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Role tags a user can hold. A user may carry several tags at once, e.g. a
// teacher who is also an administrator.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
	RoleStaff   = "staff"
)

// User represents an account in the verification system. Students are
// identified by their 10-digit university ID; staff accounts created through
// OAuth have no student ID and may have no password.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	StudentID    *string        `gorm:"column:student_id;size:10;uniqueIndex" json:"student_id"`
	FirstName    string         `gorm:"size:128;not null" json:"first_name"`
	LastName     string         `gorm:"size:128" json:"last_name"`
	Email        string         `gorm:"size:160;uniqueIndex;not null" json:"email"`
	PasswordHash *string        `gorm:"size:128" json:"-"`
	Track        string         `gorm:"size:32" json:"track"`
	RolesRaw     string         `gorm:"column:roles;size:128" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Deleted      gorm.DeletedAt `gorm:"column:deleted;index" json:"-"`
	Roles        []string       `gorm:"-" json:"roles"`
}

// BeforeSave normalises the role set before persisting.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.RolesRaw = encodeRoles(u.Roles)
	return nil
}

// AfterFind hydrates the role set after retrieval.
func (u *User) AfterFind(tx *gorm.DB) error {
	u.Roles = decodeRoles(u.RolesRaw)
	return nil
}

// HasRole reports whether the user carries the given role tag.
func (u User) HasRole(role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// AddRole appends a role tag if not already present.
func (u *User) AddRole(role string) {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" || u.HasRole(role) {
		return
	}
	u.Roles = append(u.Roles, role)
}

func encodeRoles(roles []string) string {
	if len(roles) == 0 {
		return ""
	}
	cleaned := make([]string, 0, len(roles))
	seen := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		trimmed := strings.ToLower(strings.TrimSpace(role))
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		cleaned = append(cleaned, trimmed)
	}
	if len(cleaned) == 0 {
		return ""
	}
	return "|" + strings.Join(cleaned, "|") + "|"
}

func decodeRoles(raw string) []string {
	raw = strings.Trim(raw, "|")
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, "|")
	roles := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		roles = append(roles, trimmed)
	}
	return roles
}

var nonDigits = regexp.MustCompile(`\D`)

// NormalizeStudentID strips every non-digit character and reports whether the
// remainder is a valid 10-digit university ID.
func NormalizeStudentID(input string) (string, bool) {
	digits := nonDigits.ReplaceAllString(input, "")
	if len(digits) != 10 {
		return "", false
	}
	return digits, true
}
