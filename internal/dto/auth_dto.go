package dto

// LoginRequest carries credential login input.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest carries self-registration input for students.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	StudentID string `json:"student_id" validate:"required"`
	Track     string `json:"track" validate:"omitempty,max=32"`
}

// SessionResponse is returned after a successful login or registration.
type SessionResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// OAuthRedirectResponse carries the provider URL the client should visit.
type OAuthRedirectResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}
