// Package services contains server-side business logic. UserService owns the
// account workflows: registration, login, password reset, email verification
// and profile changes. AccessController turns bearer tokens into users and
// applies the permission gates.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// PasswordHasher hashes and checks passwords. auth.Argon2Hasher implements it.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hashed string) (bool, error)
	NeedsRehash(hashed string) bool
}

// RegisterInput is the data needed to create an account.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// validate checks the input shape. Self-registration needs both names: the
// password policy compares against them.
func (in RegisterInput) validate(requireNames bool) error {
	var nameRules []validation.Rule
	if requireNames {
		nameRules = append(nameRules, validation.Required)
	}

	err := validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Password, validation.Required),
		validation.Field(&in.FirstName, nameRules...),
		validation.Field(&in.LastName, nameRules...),
	)
	if err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

// ProfileUpdate is a self-service change. Nil fields are left unchanged.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Password  *string
}

func (u ProfileUpdate) validate() error {
	err := validation.ValidateStruct(&u,
		validation.Field(&u.FirstName, validation.NilOrNotEmpty, validation.Length(3, 0)),
		validation.Field(&u.LastName, validation.NilOrNotEmpty, validation.Length(3, 0)),
	)
	if err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

// UserUpdate is the superuser variant of ProfileUpdate, which may also flip
// the account flags.
type UserUpdate struct {
	ProfileUpdate
	IsActive    *bool
	IsSuperuser *bool
	IsVerified  *bool
}

// ValidationError wraps field errors from input validation. It matches
// common.ErrorValidation with errors.Is.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == common.ErrorValidation }

// UserService implements the account workflows on top of a users.Repository.
type UserService struct {
	users               users.Repository
	hasher              PasswordHasher
	tokens              *auth.TokenCodec
	policy              auth.Policy
	logger              logging.Logger
	observers           []Observer
	accessTTL           time.Duration
	resetTTL            time.Duration
	verifyTTL           time.Duration
	requireVerification bool
	dummyHash           string
	now                 func() time.Time
}

// NewUserService constructs a UserService using the repository, credential
// primitives and server config.
func NewUserService(repo users.Repository, tokens *auth.TokenCodec, hasher PasswordHasher, cfg *config.Config, logger logging.Logger) (*UserService, error) {
	// Unknown emails are checked against this hash so they cost as much as
	// a wrong password.
	filler, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, fmt.Errorf("dummy password: %w", err)
	}
	dummy, err := hasher.Hash(filler)
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}

	return &UserService{
		users:               repo,
		hasher:              hasher,
		tokens:              tokens,
		policy:              auth.DefaultPolicy,
		logger:              logger,
		accessTTL:           cfg.AccessTokenValidityDuration,
		resetTTL:            cfg.ResetTokenValidityDuration,
		verifyTTL:           cfg.VerifyTokenValidityDuration,
		requireVerification: cfg.RequireVerification,
		dummyHash:           dummy,
		now:                 func() time.Time { return time.Now().UTC() },
	}, nil
}

// Register creates an active, unverified, non-superuser account. Email,
// password and both names are required.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	user, err := s.newUser(in, true)
	if err != nil {
		return nil, err
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.notify(ctx, EventRegistered, created, "")
	return created, nil
}

// CreateSuperuser creates a verified superuser. Names are optional here. If
// the email is taken, that account is promoted, re-activated and given the
// new password.
func (s *UserService) CreateSuperuser(ctx context.Context, in RegisterInput) (*models.User, error) {
	user, err := s.newUser(in, false)
	if err != nil {
		return nil, err
	}
	user.IsSuperuser = true
	user.IsVerified = true

	created, err := s.users.Create(ctx, user)
	if err == nil {
		s.notify(ctx, EventRegistered, created, "")
		return created, nil
	}
	if !errors.Is(err, common.ErrorAlreadyExists) {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	existing, err := s.users.GetByEmail(ctx, user.Email)
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	yes := true
	updated, err := s.users.Update(ctx, existing.ID, models.UserPatch{
		HashedPassword: &user.HashedPassword,
		IsActive:       &yes,
		IsSuperuser:    &yes,
		IsVerified:     &yes,
	})
	if err != nil {
		return nil, fmt.Errorf("error promoting user: %w", err)
	}

	s.notify(ctx, EventUpdated, updated, "")
	return updated, nil
}

func (s *UserService) newUser(in RegisterInput, requireNames bool) (*models.User, error) {
	in.Email = models.NormalizeEmail(in.Email)
	if err := in.validate(requireNames); err != nil {
		return nil, err
	}

	pc := auth.PasswordContext{Email: in.Email, FirstName: in.FirstName, LastName: in.LastName}
	if err := s.policy.Validate(in.Password, pc); err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:          in.Email,
		HashedPassword: hashed,
		IsActive:       true,
		CreatedAt:      s.now(),
	}
	if in.FirstName != "" {
		user.FirstName = &in.FirstName
	}
	if in.LastName != "" {
		user.LastName = &in.LastName
	}
	return user, nil
}

// Authenticate checks credentials and returns the user with a fresh access
// token. Unknown email and wrong password both yield
// common.ErrorBadCredentials after the same amount of hashing work.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = s.hasher.Verify(password, s.dummyHash)
			return nil, "", common.ErrorBadCredentials
		}
		return nil, "", fmt.Errorf("error loading user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.HashedPassword)
	if err != nil {
		s.logger.Warn(ctx, "stored password hash unreadable", "user_id", user.ID, "error", err)
		return nil, "", common.ErrorBadCredentials
	}
	if !ok {
		return nil, "", common.ErrorBadCredentials
	}
	if !user.IsActive {
		return nil, "", common.ErrorInactiveUser
	}
	if s.requireVerification && !user.IsVerified {
		return nil, "", common.ErrorNotVerified
	}

	token, err := s.tokens.Issue(user.ID, auth.AudienceAccess, auth.Extra{}, s.accessTTL)
	if err != nil {
		return nil, "", fmt.Errorf("issue access token: %w", err)
	}

	now := s.now()
	patch := models.UserPatch{LastLogin: &now}
	if s.hasher.NeedsRehash(user.HashedPassword) {
		if h, err := s.hasher.Hash(password); err == nil {
			patch.HashedPassword = &h
		} else {
			s.logger.Warn(ctx, "password rehash failed", "user_id", user.ID, "error", err)
		}
	}

	if updated, err := s.users.Update(ctx, user.ID, patch); err != nil {
		s.logger.Warn(ctx, "failed to record login", "user_id", user.ID, "error", err)
	} else {
		user = updated
	}

	s.notify(ctx, EventLoggedIn, user, "")
	return user, token, nil
}

// RequestPasswordReset issues a reset token for an active account and hands
// it to the observers. Unknown and inactive emails return ("", nil).
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("error loading user: %w", err)
	}
	if !user.IsActive {
		return "", nil
	}

	token, err := s.tokens.Issue(user.ID, auth.AudienceResetPassword,
		auth.Extra{PasswordFingerprint: auth.PasswordFingerprint(user.HashedPassword)}, s.resetTTL)
	if err != nil {
		return "", fmt.Errorf("issue reset token: %w", err)
	}

	s.notify(ctx, EventForgotPassword, user, token)
	return token, nil
}

// ResetPassword sets a new password using a reset token. The token is void
// once the password it was issued for has changed.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) (*models.User, error) {
	claims, err := s.tokens.Verify(token, auth.AudienceResetPassword)
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if !auth.FingerprintMatches(user.HashedPassword, claims.PasswordFingerprint) {
		return nil, common.ErrInvalidToken
	}
	if !user.IsActive {
		return nil, common.ErrInvalidToken
	}

	if err := s.policy.Validate(newPassword, passwordContext(user)); err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	updated, err := s.users.Update(ctx, user.ID, models.UserPatch{HashedPassword: &hashed})
	if err != nil {
		return nil, fmt.Errorf("error updating user: %w", err)
	}

	s.notify(ctx, EventPasswordReset, updated, "")
	return updated, nil
}

// RequestVerification issues a verify-email token for an active, unverified
// account and hands it to the observers. Other cases return ("", nil).
func (s *UserService) RequestVerification(ctx context.Context, email string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("error loading user: %w", err)
	}
	if !user.IsActive || user.IsVerified {
		return "", nil
	}

	token, err := s.tokens.Issue(user.ID, auth.AudienceVerifyEmail, auth.Extra{Email: user.Email}, s.verifyTTL)
	if err != nil {
		return "", fmt.Errorf("issue verify token: %w", err)
	}

	s.notify(ctx, EventVerificationRequested, user, token)
	return token, nil
}

// VerifyEmail marks the token's account as verified.
func (s *UserService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Verify(token, auth.AudienceVerifyEmail)
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if claims.Email != user.Email {
		return nil, common.ErrInvalidToken
	}
	if user.IsVerified {
		return nil, common.ErrorAlreadyVerified
	}

	verified := true
	updated, err := s.users.Update(ctx, user.ID, models.UserPatch{IsVerified: &verified})
	if err != nil {
		return nil, fmt.Errorf("error updating user: %w", err)
	}

	s.notify(ctx, EventVerified, updated, "")
	return updated, nil
}

// UpdateProfile applies a self-service change to user.
func (s *UserService) UpdateProfile(ctx context.Context, user *models.User, upd ProfileUpdate) (*models.User, error) {
	return s.update(ctx, user, upd, models.UserPatch{})
}

// UpdateUser applies an administrative change to the account id.
func (s *UserService) UpdateUser(ctx context.Context, id string, upd UserUpdate) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, user, upd.ProfileUpdate, models.UserPatch{
		IsActive:    upd.IsActive,
		IsSuperuser: upd.IsSuperuser,
		IsVerified:  upd.IsVerified,
	})
}

func (s *UserService) update(ctx context.Context, user *models.User, upd ProfileUpdate, patch models.UserPatch) (*models.User, error) {
	if err := upd.validate(); err != nil {
		return nil, err
	}

	patch.FirstName = upd.FirstName
	patch.LastName = upd.LastName

	if upd.Password != nil {
		if err := s.policy.Validate(*upd.Password, passwordContext(user)); err != nil {
			return nil, err
		}
		hashed, err := s.hasher.Hash(*upd.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		patch.HashedPassword = &hashed
	}

	if patch.IsEmpty() {
		return user, nil
	}

	updated, err := s.users.Update(ctx, user.ID, patch)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error updating user: %w", err)
	}

	s.notify(ctx, EventUpdated, updated, "")
	return updated, nil
}

// GetUser returns the account id or common.ErrorNotFound.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return user, nil
}

// DeleteUser removes the account id.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error deleting user: %w", err)
	}

	s.notify(ctx, EventDeleted, user, "")
	return nil
}

func passwordContext(u *models.User) auth.PasswordContext {
	return auth.PasswordContext{
		Email:     u.Email,
		FirstName: models.Deref(u.FirstName),
		LastName:  models.Deref(u.LastName),
	}
}
