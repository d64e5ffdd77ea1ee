package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/laptop-inventory/internal/model"
	"github.com/iliyamo/laptop-inventory/internal/repository"
	"github.com/iliyamo/laptop-inventory/internal/utils"
)

// NewUser is the admin input for creating an account. Role defaults to user.
type NewUser struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// UserPatch is a partial update. Nil and blank fields are left as they are.
type UserPatch struct {
	Name     *string
	Email    *string
	Role     *string
	Password *string
}

// ListUsers returns every account without password hashes.
func (s *Service) ListUsers(ctx context.Context, actor model.User) ([]model.PublicUser, error) {
	if err := Authorize(actor, AdminOnly); err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, internal("list users", err)
	}
	out := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

// GetUser returns one account.
func (s *Service) GetUser(ctx context.Context, actor model.User, id string) (model.PublicUser, error) {
	if err := Authorize(actor, AdminOnly); err != nil {
		return model.PublicUser{}, err
	}
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return model.PublicUser{}, notFound("User not found")
		}
		return model.PublicUser{}, internal("get user", err)
	}
	return u.Public(), nil
}

// CreateUser lets an admin add an account with any role.
func (s *Service) CreateUser(ctx context.Context, actor model.User, in NewUser) (model.PublicUser, error) {
	if err := Authorize(actor, AdminOnly); err != nil {
		return model.PublicUser{}, err
	}
	role := model.RoleUser
	if strings.TrimSpace(in.Role) != "" {
		r, err := model.ParseRole(in.Role)
		if err != nil {
			return model.PublicUser{}, newError(ErrValidation, "Invalid role")
		}
		role = r
	}
	u, err := s.createUser(ctx, in.Name, in.Email, in.Password, role, "User already exists with this email")
	if err != nil {
		return model.PublicUser{}, err
	}
	s.log.InfoContext(ctx, "user created", "user_id", u.ID, "role", u.Role, "actor_id", actor.ID)
	return u.Public(), nil
}

// UpdateUser lets an admin edit any account, including its role and
// password.
func (s *Service) UpdateUser(ctx context.Context, actor model.User, id string, p UserPatch) (model.PublicUser, error) {
	if err := Authorize(actor, AdminOnly); err != nil {
		return model.PublicUser{}, err
	}
	u, err := s.applyUserPatch(ctx, id, p)
	if err != nil {
		return model.PublicUser{}, err
	}
	return u.Public(), nil
}

// DeleteUser removes an account that holds no laptop.
func (s *Service) DeleteUser(ctx context.Context, actor model.User, id string) error {
	if err := Authorize(actor, AdminOnly); err != nil {
		return err
	}
	if _, err := s.store.GetUser(ctx, id); err != nil {
		if isNotFound(err) {
			return notFound("User not found")
		}
		return internal("delete user", err)
	}
	n, err := s.store.CountByHolder(ctx, id)
	if err != nil {
		return internal("delete user", err)
	}
	if n > 0 {
		return conflict(errUserHasLaptops)
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		switch {
		case isNotFound(err):
			return notFound("User not found")
		case errors.Is(err, repository.ErrReferenced):
			return conflict(errUserHasLaptops)
		}
		return internal("delete user", err)
	}
	s.log.InfoContext(ctx, "user deleted", "user_id", id, "actor_id", actor.ID)
	return nil
}

const errUserHasLaptops = "Cannot delete user with assigned laptops. Please reassign or return laptops first."

// applyUserPatch loads id, applies p and stores the result.
func (s *Service) applyUserPatch(ctx context.Context, id string, p UserPatch) (model.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return model.User{}, notFound("User not found")
		}
		return model.User{}, internal("update user", err)
	}

	if v := trimmed(p.Name); v != "" {
		u.Name = v
	}
	if v := model.NormalizeEmail(deref(p.Email)); v != "" && v != u.Email {
		other, err := s.store.GetUserByEmail(ctx, v)
		switch {
		case err == nil && other.ID != u.ID:
			return model.User{}, conflict("Email already in use")
		case err != nil && !isNotFound(err):
			return model.User{}, internal("update user", err)
		}
		u.Email = v
	}
	if v := trimmed(p.Role); v != "" {
		r, err := model.ParseRole(v)
		if err != nil {
			return model.User{}, newError(ErrValidation, "Invalid role")
		}
		u.Role = r
	}
	if v := deref(p.Password); v != "" {
		hash, err := utils.HashPassword(v, s.cost)
		if err != nil {
			return model.User{}, internal("hash password", err)
		}
		u.PasswordHash = hash
	}
	u.UpdatedAt = s.now()

	if err := s.store.UpdateUser(ctx, u); err != nil {
		switch {
		case isNotFound(err):
			return model.User{}, notFound("User not found")
		case errors.Is(err, repository.ErrDuplicate):
			return model.User{}, conflict("Email already in use")
		}
		return model.User{}, internal("update user", err)
	}
	return u, nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func trimmed(p *string) string { return strings.TrimSpace(deref(p)) }
