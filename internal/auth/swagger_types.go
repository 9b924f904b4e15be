package auth

// LoginRequest is the request body for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" example:"mrs.alvarez"`
	Password string `json:"password" example:"securepassword123"`
}

// RefreshRequest is the request body for POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" example:"dGhpcyBpcyBhIHJlZnJl..."`
}

// LogoutRequest is the request body for POST /auth/logout.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" example:"dGhpcyBpcyBhIHJlZnJl..."`
}

// SetupRequest is the request body for POST /auth/setup.
type SetupRequest struct {
	Username string `json:"username" example:"admin"`
	Email    string `json:"email" example:"admin@example.com"`
	Password string `json:"password" example:"securepassword123"`
}

// CreateUserRequest is the request body for POST /users.
type CreateUserRequest struct {
	Username    string `json:"username" example:"jordan.lee"`
	Email       string `json:"email" example:"jordan@example.com"`
	DisplayName string `json:"display_name" example:"Jordan Lee"`
	Password    string `json:"password" example:"securepassword123"`
	Role        string `json:"role" example:"tutor"`
}

// UpdateUserRequest is the request body for PUT /users/{id}.
type UpdateUserRequest struct {
	Email       string `json:"email" example:"user@example.com"`
	DisplayName string `json:"display_name" example:"Jordan Lee"`
	Role        string `json:"role" example:"tutor"`
	Disabled    bool   `json:"disabled" example:"false"`
}

// ChangePasswordRequest is the request body for PUT /auth/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" example:"oldpassword123"`
	NewPassword     string `json:"new_password" example:"newpassword456"`
}

// SetupStatusResponse is the response for GET /auth/setup/status.
type SetupStatusResponse struct {
	SetupRequired bool   `json:"setup_required" example:"false"`
	Version       string `json:"version" example:"0.1.0"`
}

// APIProblem documents the RFC 7807 error shape in Swagger responses.
type APIProblem struct {
	Type   string `json:"type" example:"https://studyhall.app/problems/auth-error"`
	Title  string `json:"title" example:"Unauthorized"`
	Status int    `json:"status" example:"401"`
	Detail string `json:"detail" example:"invalid or expired access token"`
}
