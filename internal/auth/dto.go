package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/yonaslemma/gursha-backend/pkg/db/models"
	"github.com/yonaslemma/gursha-backend/pkg/enums"
)

// RegisterInput carries a validated registration payload.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     *string
}

// LoginInput carries credentials for an access-token exchange.
type LoginInput struct {
	Email    string
	Password string
}

// UserDTO is the public projection of a user account.
type UserDTO struct {
	ID        uuid.UUID        `json:"id"`
	Email     string           `json:"email"`
	FirstName string           `json:"first_name"`
	LastName  string           `json:"last_name"`
	Phone     *string          `json:"phone,omitempty"`
	Role      enums.MemberRole `json:"role"`
	CreatedAt time.Time        `json:"created_at"`
}

// SessionDTO is returned from login/register with a freshly minted token.
type SessionDTO struct {
	User        UserDTO   `json:"user"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func toUserDTO(user *models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Phone:     user.Phone,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}
