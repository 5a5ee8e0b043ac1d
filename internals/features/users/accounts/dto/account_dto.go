package dto

type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required,max=200"`
	Password   string `json:"password" validate:"required,max=128"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}
