package dto

type PasswordStrengthInput struct {
	Password string `json:"password"`
	Email    string `json:"email"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
