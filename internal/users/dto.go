package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/ecosort/ecosort-backend/pkg/db/models"
	"github.com/ecosort/ecosort-backend/pkg/enums"
)

// UserDTO is the transport shape that omits credentials.
type UserDTO struct {
	ID              uuid.UUID      `json:"id"`
	Email           string         `json:"email"`
	DisplayName     string         `json:"display_name"`
	Role            enums.UserRole `json:"role"`
	TotalPoints     int            `json:"total_points"`
	ProfileImageURL *string        `json:"profile_image_url,omitempty"`
	IsActive        bool           `json:"is_active"`
	LastLoginAt     *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	DisplayName  string
	Role         enums.UserRole
}

// LeaderboardEntry is one ranked row on the community leaderboard.
type LeaderboardEntry struct {
	Rank            int       `json:"rank"`
	UserID          uuid.UUID `json:"user_id"`
	DisplayName     string    `json:"display_name"`
	ProfileImageURL *string   `json:"profile_image_url,omitempty"`
	TotalPoints     int       `json:"total_points"`
}

// FromModel converts a persisted user into its transport shape.
func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:              u.ID,
		Email:           u.Email,
		DisplayName:     u.DisplayName,
		Role:            u.Role,
		TotalPoints:     u.TotalPoints,
		ProfileImageURL: u.ProfileImageURL,
		IsActive:        u.IsActive,
		LastLoginAt:     u.LastLoginAt,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

// ToModel materializes the DTO into a user row. New sign-ups default to the
// resident role.
func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if role == "" {
		role = enums.UserRoleResident
	}

	return &models.User{
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		DisplayName:  c.DisplayName,
		Role:         role,
		IsActive:     true,
	}
}
