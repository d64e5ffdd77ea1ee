package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/laptop-inventory/internal/model"
)

func TestCreateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.svc.CreateUser(ctx, f.admin, NewUser{Name: "Ops", Email: "ops@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, u.Role)

	boss, err := f.svc.CreateUser(ctx, f.admin, NewUser{Name: "Boss", Email: "boss@example.com", Password: "pw", Role: "ADMIN"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, boss.Role)

	_, err = f.svc.CreateUser(ctx, f.admin, NewUser{Name: "X", Email: "ops@example.com", Password: "pw"})
	requireKind(t, err, ErrConflict, "User already exists with this email")

	_, err = f.svc.CreateUser(ctx, f.admin, NewUser{Name: "X", Email: "x@example.com", Password: "pw", Role: "root"})
	requireKind(t, err, ErrValidation, "Invalid role")

	plain, err := f.store.GetUser(ctx, u.ID)
	require.NoError(t, err)
	_, err = f.svc.CreateUser(ctx, plain, NewUser{Name: "X", Email: "y@example.com", Password: "pw"})
	requireKind(t, err, ErrForbidden, "Admin access required")
}

func TestListAndGetUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "A", "a@example.com")

	users, err := f.svc.ListUsers(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, BootstrapAdminEmail, users[0].Email)
	assert.Equal(t, a.ID, users[1].ID)

	got, err := f.svc.GetUser(ctx, f.admin, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Public(), got)

	_, err = f.svc.GetUser(ctx, f.admin, "missing")
	requireKind(t, err, ErrNotFound, "User not found")

	_, err = f.svc.ListUsers(ctx, a)
	requireKind(t, err, ErrForbidden, "")
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "A", "a@example.com")
	f.register(t, "B", "b@example.com")

	got, err := f.svc.UpdateUser(ctx, f.admin, a.ID, UserPatch{
		Name: ptr("Alice"), Role: ptr("admin"), Password: ptr("reset"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, "a@example.com", got.Email)
	assert.Equal(t, model.RoleAdmin, got.Role)

	_, err = f.svc.Login(ctx, "a@example.com", "reset")
	assert.NoError(t, err)

	_, err = f.svc.UpdateUser(ctx, f.admin, a.ID, UserPatch{Email: ptr("B@example.com")})
	requireKind(t, err, ErrConflict, "Email already in use")

	_, err = f.svc.UpdateUser(ctx, f.admin, a.ID, UserPatch{Role: ptr("owner")})
	requireKind(t, err, ErrValidation, "Invalid role")

	_, err = f.svc.UpdateUser(ctx, f.admin, "missing", UserPatch{Name: ptr("x")})
	requireKind(t, err, ErrNotFound, "User not found")
}

func TestDeleteUser_GuardedByAssignments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "A", "a@example.com")
	b := f.register(t, "B", "b@example.com")
	l := f.laptop(t, "SN-1")

	_, err := f.svc.Borrow(ctx, a, l.ID)
	require.NoError(t, err)

	requireKind(t, f.svc.DeleteUser(ctx, f.admin, a.ID), ErrConflict, errUserHasLaptops)

	// Maintenance keeps the holder, so the guard still applies.
	_, err = f.svc.RequestMaintenance(ctx, a, l.ID)
	require.NoError(t, err)
	requireKind(t, f.svc.DeleteUser(ctx, f.admin, a.ID), ErrConflict, errUserHasLaptops)

	require.NoError(t, f.svc.DeleteUser(ctx, f.admin, b.ID))
	requireKind(t, f.svc.DeleteUser(ctx, f.admin, b.ID), ErrNotFound, "User not found")

	_, err = f.svc.CompleteMaintenance(ctx, f.admin, l.ID)
	require.NoError(t, err)
	assert.NoError(t, f.svc.DeleteUser(ctx, f.admin, a.ID))

	requireKind(t, f.svc.DeleteUser(ctx, a, f.admin.ID), ErrForbidden, "")
}
