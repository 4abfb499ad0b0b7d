package rest

import (
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type userResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	IsActive    bool       `json:"is_active"`
	IsSuperuser bool       `json:"is_superuser"`
	IsVerified  bool       `json:"is_verified"`
	FirstName   *string    `json:"first_name"`
	LastName    *string    `json:"last_name"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLogin   *time.Time `json:"last_login"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
		IsVerified:  u.IsVerified,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		CreatedAt:   u.CreatedAt,
		LastLogin:   u.LastLogin,
	}
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// loginRequest accepts the OAuth2 password form (username/password) or the
// same fields as JSON. Email is accepted in place of username.
type loginRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Token string `json:"token"`
}

type profileUpdateRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Password  *string `json:"password"`
}

type userUpdateRequest struct {
	profileUpdateRequest
	IsActive    *bool `json:"is_active"`
	IsSuperuser *bool `json:"is_superuser"`
	IsVerified  *bool `json:"is_verified"`
}
