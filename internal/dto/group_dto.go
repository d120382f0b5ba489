package dto

import (
	"time"

	"github.com/JetsadaSomporn/docverify-api/internal/models"
)

// GroupSaveRequest upserts a group by (name, subject). The member list is
// last-write-wins: the stored roster becomes exactly MemberStudentIDs.
type GroupSaveRequest struct {
	Name             string         `json:"name" validate:"required,min=2"`
	ProjectName      string         `json:"project_name" validate:"omitempty,max=255"`
	SubjectID        uint           `json:"subject_id" validate:"required"`
	Note             string         `json:"note"`
	MemberStudentIDs []string       `json:"member_student_ids"`
	AdvisorIDs       []uint         `json:"advisor_ids" validate:"omitempty,max=2"`
	AdvisorMeta      map[string]any `json:"advisor_meta"`
}

// GroupTransferRequest moves every group of a subject to another subject.
type GroupTransferRequest struct {
	TargetSubjectID uint `json:"target_subject_id" validate:"required"`
}

// GroupMemberResponse is one roster entry.
type GroupMemberResponse struct {
	UserID    uint   `json:"user_id"`
	StudentID string `json:"student_id,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// GroupResponse is the serialized representation returned to API clients.
type GroupResponse struct {
	ID          uint                  `json:"id"`
	Name        string                `json:"name"`
	ProjectName string                `json:"project_name"`
	SubjectID   uint                  `json:"subject_id"`
	Note        string                `json:"note"`
	AdvisorMeta map[string]any        `json:"advisor_meta"`
	Members     []GroupMemberResponse `json:"members"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// GroupTransferResponse reports the outcome of a subject-to-subject transfer.
type GroupTransferResponse struct {
	Moved int `json:"moved"`
}

// NewGroupResponse converts a model into a DTO.
func NewGroupResponse(model models.Group) GroupResponse {
	members := make([]GroupMemberResponse, 0, len(model.Members))
	for _, member := range model.Members {
		studentID := ""
		if member.User.StudentID != nil {
			studentID = *member.User.StudentID
		}
		members = append(members, GroupMemberResponse{
			UserID:    member.UserID,
			StudentID: studentID,
			FirstName: member.User.FirstName,
			LastName:  member.User.LastName,
			Role:      member.Role,
		})
	}

	meta := map[string]any(model.AdvisorMeta)
	if meta == nil {
		meta = map[string]any{}
	}

	return GroupResponse{
		ID:          model.ID,
		Name:        model.Name,
		ProjectName: model.ProjectName,
		SubjectID:   model.SubjectID,
		Note:        model.Note,
		AdvisorMeta: meta,
		Members:     members,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewGroupResponseSlice converts a slice of models into DTOs.
func NewGroupResponseSlice(groups []models.Group) []GroupResponse {
	responses := make([]GroupResponse, 0, len(groups))
	for _, group := range groups {
		responses = append(responses, NewGroupResponse(group))
	}

	return responses
}
