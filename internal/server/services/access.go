package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

// Gate is a condition the current user must meet.
type Gate int

const (
	RequireActive Gate = iota
	RequireVerified
	RequireSuperuser
)

// AccessController resolves bearer tokens to users and enforces gates.
type AccessController struct {
	users  users.Repository
	tokens *auth.TokenCodec
}

func NewAccessController(repo users.Repository, tokens *auth.TokenCodec) *AccessController {
	return &AccessController{users: repo, tokens: tokens}
}

// ResolveCurrentUser returns the active user named by an access token.
// A missing or invalid token, a deleted user and an inactive user all give
// common.ErrorUnauthorized.
func (a *AccessController) ResolveCurrentUser(ctx context.Context, bearer string) (*models.User, error) {
	if bearer == "" {
		return nil, common.ErrorUnauthorized
	}

	claims, err := a.tokens.Verify(bearer, auth.AudienceAccess)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	user, err := a.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	if !user.IsActive {
		return nil, common.ErrorUnauthorized
	}

	return user, nil
}

// Authorize checks user against gates. No user is unauthorized; a user
// lacking a required flag is forbidden.
func (a *AccessController) Authorize(user *models.User, gates ...Gate) error {
	if user == nil {
		return common.ErrorUnauthorized
	}

	for _, g := range gates {
		switch g {
		case RequireActive:
			if !user.IsActive {
				return common.ErrorForbidden
			}
		case RequireVerified:
			if !user.IsVerified {
				return common.ErrorForbidden
			}
		case RequireSuperuser:
			if !user.IsSuperuser {
				return common.ErrorForbidden
			}
		}
	}
	return nil
}

// AuthorizeTarget lets superusers act on any account and everyone else on
// their own only.
func (a *AccessController) AuthorizeTarget(user *models.User, targetID string) error {
	if user == nil {
		return common.ErrorUnauthorized
	}
	if user.IsSuperuser || user.ID == targetID {
		return nil
	}
	return common.ErrorForbidden
}
