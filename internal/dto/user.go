package dto

import (
	"time"

	"github.com/yukikurage/project-management-api/internal/models"
)

// UserSummaryDTO is the compact user projection embedded in other resources
type UserSummaryDTO struct {
	ID    uint64      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

// UserDTO represents a user in API responses
type UserDTO struct {
	ID              uint64           `json:"id"`
	Name            string           `json:"name"`
	Email           string           `json:"email"`
	Username        string           `json:"username"`
	PhoneNumber     string           `json:"phoneNumber,omitempty"`
	CompanyID       *uint64          `json:"companyId"`
	Role            models.Role      `json:"role"`
	LoginType       models.LoginType `json:"loginType"`
	IsEmailVerified bool             `json:"isEmailVerified"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// AuthResponse is returned by login, refresh and OAuth callbacks
type AuthResponse struct {
	User         UserDTO `json:"user"`
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
}

// ToUserSummaryDTO converts a User model to UserSummaryDTO
func ToUserSummaryDTO(user models.User) UserSummaryDTO {
	return UserSummaryDTO{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:              user.ID,
		Name:            user.Name,
		Email:           user.Email,
		Username:        user.Username,
		PhoneNumber:     user.PhoneNumber,
		CompanyID:       user.CompanyID,
		Role:            user.Role,
		LoginType:       user.LoginType,
		IsEmailVerified: user.IsEmailVerified,
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       user.UpdatedAt,
	}
}

// ToUserDTOs converts a slice of users
func ToUserDTOs(users []models.User) []UserDTO {
	items := make([]UserDTO, len(users))
	for i, user := range users {
		items[i] = ToUserDTO(user)
	}
	return items
}
