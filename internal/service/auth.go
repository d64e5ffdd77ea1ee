package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/laptop-inventory/internal/model"
	"github.com/iliyamo/laptop-inventory/internal/repository"
	"github.com/iliyamo/laptop-inventory/internal/utils"
)

// Bootstrap admin credential. It is a documented convenience for first
// start, not a security boundary; operators are expected to change it.
const (
	BootstrapAdminName     = "Admin User"
	BootstrapAdminEmail    = "admin@example.com"
	BootstrapAdminPassword = "admin123"
)

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      model.PublicUser
}

// Register creates a regular account and signs the caller in.
func (s *Service) Register(ctx context.Context, name, email, password string) (AuthResult, error) {
	u, err := s.createUser(ctx, name, email, password, model.RoleUser, "User already exists")
	if err != nil {
		return AuthResult{}, err
	}
	s.log.InfoContext(ctx, "user registered", "user_id", u.ID)
	return s.issue(u)
}

// Login checks credentials. Unknown email and wrong password fail the same
// way.
func (s *Service) Login(ctx context.Context, email, password string) (AuthResult, error) {
	invalid := newError(ErrInvalidCredentials, "Invalid credentials")
	email = model.NormalizeEmail(email)
	if email == "" || password == "" {
		return AuthResult{}, invalid
	}
	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return AuthResult{}, invalid
		}
		return AuthResult{}, internal("login", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return AuthResult{}, invalid
	}
	return s.issue(u)
}

// Verify resolves a bearer token to the current user record.
func (s *Service) Verify(ctx context.Context, token string) (model.User, error) {
	if strings.TrimSpace(token) == "" {
		return model.User{}, unauthenticated("Authentication required")
	}
	claims, err := utils.ParseAccessToken(s.secret, token)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return model.User{}, unauthenticated("Token expired")
		}
		return model.User{}, unauthenticated("Invalid token")
	}
	u, err := s.store.GetUser(ctx, claims.Subject)
	if err != nil {
		if isNotFound(err) {
			return model.User{}, notFound("User not found")
		}
		return model.User{}, internal("verify", err)
	}
	return u, nil
}

// EnsureAdmin seeds the bootstrap admin when no admin account exists. It
// reports whether one was created.
func (s *Service) EnsureAdmin(ctx context.Context) (bool, error) {
	exists, err := s.store.AdminExists(ctx)
	if err != nil {
		return false, internal("ensure admin", err)
	}
	if exists {
		return false, nil
	}
	_, err = s.createUser(ctx, BootstrapAdminName, BootstrapAdminEmail, BootstrapAdminPassword, model.RoleAdmin, "User already exists")
	if err != nil {
		return false, err
	}
	s.log.WarnContext(ctx, "bootstrap admin created, change its password",
		"email", BootstrapAdminEmail, "password", BootstrapAdminPassword)
	return true, nil
}

// ProfilePatch carries self-service profile edits. Nil or empty fields are
// left untouched.
type ProfilePatch struct {
	Name  *string
	Email *string
}

// UpdateProfile lets any user change their own name and email.
func (s *Service) UpdateProfile(ctx context.Context, actor model.User, p ProfilePatch) (model.PublicUser, error) {
	if err := Authorize(actor, AnyUser); err != nil {
		return model.PublicUser{}, err
	}
	u, err := s.applyUserPatch(ctx, actor.ID, UserPatch{Name: p.Name, Email: p.Email})
	if err != nil {
		return model.PublicUser{}, err
	}
	return u.Public(), nil
}

// ChangePassword replaces the actor's password after checking the current
// one.
func (s *Service) ChangePassword(ctx context.Context, actor model.User, current, next string) error {
	if err := Authorize(actor, AnyUser); err != nil {
		return err
	}
	if err := missingFields(map[string]string{"currentPassword": current, "newPassword": next}); err != nil {
		return err
	}
	u, err := s.store.GetUser(ctx, actor.ID)
	if err != nil {
		if isNotFound(err) {
			return notFound("User not found")
		}
		return internal("change password", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, current) {
		return newError(ErrInvalidCredentials, "Current password is incorrect")
	}
	_, err = s.applyUserPatch(ctx, actor.ID, UserPatch{Password: &next})
	return err
}

func (s *Service) issue(u model.User) (AuthResult, error) {
	tok, err := utils.NewAccessToken(s.secret, u.ID, string(u.Role), s.ttl)
	if err != nil {
		return AuthResult{}, internal("issue token", err)
	}
	return AuthResult{Token: tok.Token, ExpiresAt: tok.Exp, User: u.Public()}, nil
}

// createUser validates, pre-checks the email and stores a new account.
// dupMsg is the client message for an existing email.
func (s *Service) createUser(ctx context.Context, name, email, password string, role model.Role, dupMsg string) (model.User, error) {
	name = strings.TrimSpace(name)
	email = model.NormalizeEmail(email)
	if err := missingFields(map[string]string{"name": name, "email": email, "password": password}); err != nil {
		return model.User{}, err
	}
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return model.User{}, conflict(dupMsg)
	} else if !isNotFound(err) {
		return model.User{}, internal("create user", err)
	}

	hash, err := utils.HashPassword(password, s.cost)
	if err != nil {
		return model.User{}, internal("hash password", err)
	}
	now := s.now()
	u := model.User{
		ID:           s.newID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.User{}, conflict(dupMsg)
		}
		return model.User{}, internal("create user", err)
	}
	return u, nil
}
