package dto

import (
	"time"

	"github.com/JetsadaSomporn/docverify-api/internal/models"
)

// UserCreateRequest describes the payload for creating a user as admin.
type UserCreateRequest struct {
	Email     string   `json:"email" validate:"required,email"`
	Password  string   `json:"password" validate:"omitempty,min=8"`
	FirstName string   `json:"first_name" validate:"required"`
	LastName  string   `json:"last_name"`
	StudentID string   `json:"student_id"`
	Track     string   `json:"track" validate:"omitempty,max=32"`
	Roles     []string `json:"roles" validate:"required,min=1,dive,oneof=student teacher admin staff"`
}

// UserUpdateRequest describes a partial user update.
type UserUpdateRequest struct {
	FirstName *string   `json:"first_name" validate:"omitempty,min=1"`
	LastName  *string   `json:"last_name"`
	Track     *string   `json:"track" validate:"omitempty,max=32"`
	Roles     *[]string `json:"roles" validate:"omitempty,min=1,dive,oneof=student teacher admin staff"`
}

// UserResponse is the serialized representation returned to API clients.
type UserResponse struct {
	ID        uint      `json:"id"`
	StudentID string    `json:"student_id,omitempty"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Track     string    `json:"track,omitempty"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserListResponse wraps a page of users.
type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Total int64          `json:"total"`
}

// NewUserResponse converts a model into a DTO.
func NewUserResponse(model models.User) UserResponse {
	studentID := ""
	if model.StudentID != nil {
		studentID = *model.StudentID
	}

	roles := model.Roles
	if roles == nil {
		roles = []string{}
	}

	return UserResponse{
		ID:        model.ID,
		StudentID: studentID,
		FirstName: model.FirstName,
		LastName:  model.LastName,
		Email:     model.Email,
		Track:     model.Track,
		Roles:     roles,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// NewUserResponseSlice converts a slice of models into DTOs.
func NewUserResponseSlice(users []models.User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, NewUserResponse(user))
	}

	return responses
}
