package auth

import (
	"strings"

	"gallery/internal/domain"
	"gallery/internal/pkg/sanitize"

	"github.com/samber/lo"
)

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

func (r *RegisterRequest) normalize() {
	r.Username = sanitize.Text(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest carries only what the client sent.
type UpdateProfileRequest struct {
	Username *string `json:"username" validate:"omitnil,min=3,max=30"`
	Bio      *string `json:"bio" validate:"omitnil,max=500"`
}

func (r *UpdateProfileRequest) normalize() {
	if r.Username != nil {
		r.Username = lo.ToPtr(sanitize.Text(*r.Username))
	}
	if r.Bio != nil {
		r.Bio = lo.ToPtr(sanitize.Text(*r.Bio))
	}
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=72"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}
