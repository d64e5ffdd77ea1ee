package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/laptop-inventory/internal/model"
	"github.com/iliyamo/laptop-inventory/internal/queue"
	"github.com/iliyamo/laptop-inventory/internal/repository"
)

func TestScenario_BorrowReturnBorrow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "A", "a@example.com")
	b := f.register(t, "B", "b@example.com")

	l := f.laptop(t, "SN-1")
	assert.Equal(t, model.StatusAvailable, l.State.Status())
	assert.Empty(t, l.State.Holder())

	l, err := f.svc.Borrow(ctx, a, l.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAssigned, l.State.Status())
	assert.Equal(t, a.ID, l.State.Holder())

	_, err = f.svc.Borrow(ctx, b, l.ID)
	requireKind(t, err, ErrConflict, msgNotBorrowable)

	l, err = f.svc.Return(ctx, a, l.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAvailable, l.State.Status())
	assert.Empty(t, l.State.Holder())

	l, err = f.svc.Borrow(ctx, b, l.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, l.State.Holder())

	stored, err := f.store.GetLaptop(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AssignedTo(b.ID), stored.State)

	assert.Equal(t, []queue.EventType{
		queue.EventBorrowed, queue.EventReturned, queue.EventBorrowed,
	}, f.pub.types())
}

func TestScenario_DuplicateSerial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.laptop(t, "SN-1")

	_, err := f.svc.CreateLaptop(ctx, f.admin, NewLaptop{Brand: "Dell", Model: "XPS13", SerialNumber: "SN-1"})
	requireKind(t, err, ErrConflict, msgDuplicateSerial)

	all, err := f.store.ListLaptops(ctx, repository.LaptopFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreateLaptop_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "A", "a@example.com")

	_, err := f.svc.CreateLaptop(ctx, f.admin, NewLaptop{Brand: "Dell"})
	requireKind(t, err, ErrValidation, "Missing required fields: model, serialNumber")

	_, err = f.svc.CreateLaptop(ctx, u, NewLaptop{Brand: "Dell", Model: "X", SerialNumber: "S"})
	requireKind(t, err, ErrForbidden, "Admin access required")
}

func TestBorrow_OnlyFromAvailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "A", "a@example.com")
	b := f.register(t, "B", "b@example.com")
	l := f.laptop(t, "SN-1")

	_, err := f.svc.Borrow(ctx, a, l.ID)
	require.NoError(t, err)
	_, err = f.svc.RequestMaintenance(ctx, a, l.ID)
	require.NoError(t, err)

	_, err = f.svc.Borrow(ctx, b, l.ID)
	requireKind(t, err, ErrConflict, msgNotBorrowable)
	_, err = f.svc.Borrow(ctx, a, l.ID)
	requireKind(t, err, ErrConflict, msgNotBorrowable)

	_, err = f.svc.Borrow(ctx, a, "missing")
	requireKind(t, err, ErrNotFound, msgLaptopNotFound)
}

func TestBorrow_OneAssignedLaptopPerUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "A", "a@example.com")
	l1 := f.laptop(t, "SN-1")
	l2 := f.laptop(t, "SN-2")

	_, err := f.svc.Borrow(ctx, a, l1.ID)
	require.NoError(t, err)
	_, err = f.svc.Borrow(ctx, a, l2.ID)
	requireKind(t, err, ErrConflict, msgAlreadyHolding)

	// A laptop under maintenance does not count as assigned.
	_, err = f.svc.RequestMaintenance(ctx, a, l1.ID)
	require.NoError(t, err)
	_, err = f.svc.Borrow(ctx, a, l2.ID)
	assert.NoError(t, err)
}

func TestBorrow_ConcurrentRequestsHaveOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.laptop(t, "SN-1")

	const n = 8
	users := make([]model.User, n)
	for i := range users {
		users[i] = f.register(t, "U", string(rune('a'+i))+"@example.com")
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for _, u := range users {
		wg.Add(1)
		go func(u model.User) {
			defer wg.Done()
			if _, err := f.svc.Borrow(ctx, u, l.ID); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, ErrConflict)
			}
		}(u)
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestReturn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "A", "a@example.com")
	b := f.register(t, "B", "b@example.com")
	l := f.laptop(t, "SN-1")

	_, err := f.svc.Return(ctx, a, l.ID)
	requireKind(t, err, ErrForbidden, "You are not assigned to this laptop")

	_, err = f.svc.Borrow(ctx, a, l.ID)
	require.NoError(t, err)

	_, err = f.svc.Return(ctx, b, l.ID)
	requireKind(t, err, ErrForbidden, "You are not assigned to this laptop")
	_, err = f.svc.Return(ctx, f.admin, l.ID)
	requireKind(t, err, ErrForbidden, "")

	_, err = f.svc.Return(ctx, a, "missing")
	requireKind(t, err, ErrNotFound, msgLaptopNotFound)

	got, err := f.svc.Return(ctx, a, l.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Available(), got.State)
}

func TestReturn_WhileInMaintenanceIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "A", "a@example.com")
	l := f.laptop(t, "SN-1")

	_, err := f.svc.Borrow(ctx, a, l.ID)
	require.NoError(t, err)
	_, err = f.svc.RequestMaintenance(ctx, a, l.ID)
	require.NoError(t, err)

	_, err = f.svc.Return(ctx, a, l.ID)
	requireKind(t, err, ErrConflict, "Laptop is not currently assigned")
}

func TestMaintenanceCycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "A", "a@example.com")
	b := f.register(t, "B", "b@example.com")
	l := f.laptop(t, "SN-1")

	_, err := f.svc.RequestMaintenance(ctx, a, l.ID)
	requireKind(t, err, ErrForbidden, "")

	_, err = f.svc.Borrow(ctx, a, l.ID)
	require.NoError(t, err)

	_, err = f.svc.RequestMaintenance(ctx, b, l.ID)
	requireKind(t, err, ErrForbidden, "You are not assigned to this laptop")

	got, err := f.svc.RequestMaintenance(ctx, a, l.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InMaintenance(a.ID), got.State)

	_, err = f.svc.RequestMaintenance(ctx, a, l.ID)
	requireKind(t, err, ErrConflict, "Only assigned laptops can be sent to maintenance")

	mine, err := f.svc.MyLaptops(ctx, a)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	queued, err := f.svc.ListMaintenance(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, queued, 1)
	require.NotNil(t, queued[0].Holder)
	assert.Equal(t, "a@example.com", queued[0].Holder.Email)

	_, err = f.svc.CompleteMaintenance(ctx, a, l.ID)
	requireKind(t, err, ErrForbidden, "Admin access required")

	got, err = f.svc.CompleteMaintenance(ctx, f.admin, l.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Available(), got.State)

	_, err = f.svc.CompleteMaintenance(ctx, f.admin, l.ID)
	requireKind(t, err, ErrConflict, "Laptop is not under maintenance")

	assert.Equal(t, []queue.EventType{
		queue.EventBorrowed, queue.EventMaintenanceRequested, queue.EventMaintenanceCompleted,
	}, f.pub.types())
	f.pub.mu.Lock()
	assert.Equal(t, a.ID, f.pub.events[2].HolderID)
	assert.Equal(t, f.admin.ID, f.pub.events[2].ActorID)
	f.pub.mu.Unlock()
}

func TestUpdateLaptop_Fields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.laptop(t, "SN-1")
	f.laptop(t, "SN-2")

	got, err := f.svc.UpdateLaptop(ctx, f.admin, l.ID, LaptopPatch{
		Brand: ptr("Lenovo"),
		Model: ptr(""),
		Specs: &model.Specs{RAM: "16GB"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Lenovo", got.Brand)
	assert.Equal(t, "XPS13", got.Model)
	assert.Equal(t, "16GB", got.Specs.RAM)

	_, err = f.svc.UpdateLaptop(ctx, f.admin, l.ID, LaptopPatch{SerialNumber: ptr("SN-2")})
	requireKind(t, err, ErrConflict, msgDuplicateSerial)

	got, err = f.svc.UpdateLaptop(ctx, f.admin, l.ID, LaptopPatch{SerialNumber: ptr("SN-1")})
	require.NoError(t, err)
	assert.Equal(t, "SN-1", got.SerialNumber)

	_, err = f.svc.UpdateLaptop(ctx, f.admin, "missing", LaptopPatch{})
	requireKind(t, err, ErrNotFound, msgLaptopNotFound)

	_, err = f.svc.UpdateLaptop(ctx, f.admin, l.ID, LaptopPatch{Status: ptr("lost")})
	requireKind(t, err, ErrValidation, "Invalid status")
}

func TestUpdateLaptop_StateRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "A", "a@example.com")
	l := f.laptop(t, "SN-1")

	_, err := f.svc.UpdateLaptop(ctx, f.admin, l.ID, LaptopPatch{Status: ptr("assigned")})
	requireKind(t, err, ErrConflict, "An assigned laptop needs a holder")

	_, err = f.svc.UpdateLaptop(ctx, f.admin, l.ID, LaptopPatch{AssignedTo: ptr("ghost")})
	requireKind(t, err, ErrNotFound, "User not found")

	// assignedTo forces assigned whatever status says.
	got, err := f.svc.UpdateLaptop(ctx, f.admin, l.ID, LaptopPatch{Status: ptr("available"), AssignedTo: ptr(a.ID)})
	require.NoError(t, err)
	assert.Equal(t, model.AssignedTo(a.ID), got.State)

	got, err = f.svc.UpdateLaptop(ctx, f.admin, l.ID, LaptopPatch{Status: ptr("maintenance")})
	require.NoError(t, err)
	assert.Equal(t, model.InMaintenance(a.ID), got.State)

	got, err = f.svc.UpdateLaptop(ctx, f.admin, l.ID, LaptopPatch{Status: ptr("available")})
	require.NoError(t, err)
	assert.Equal(t, model.Available(), got.State)

	stored, err := f.store.GetLaptop(ctx, l.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.State.Holder())

	assert.Equal(t, []queue.EventType{queue.EventAssigned, queue.EventMaintenanceCompleted}, f.pub.types())
}

func TestAvailableNeverHasHolder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "A", "a@example.com")
	l := f.laptop(t, "SN-1")

	steps := []func() error{
		func() error { _, err := f.svc.Borrow(ctx, a, l.ID); return err },
		func() error { _, err := f.svc.Return(ctx, a, l.ID); return err },
		func() error { _, err := f.svc.Borrow(ctx, a, l.ID); return err },
		func() error { _, err := f.svc.RequestMaintenance(ctx, a, l.ID); return err },
		func() error { _, err := f.svc.CompleteMaintenance(ctx, f.admin, l.ID); return err },
		func() error {
			_, err := f.svc.UpdateLaptop(ctx, f.admin, l.ID, LaptopPatch{AssignedTo: ptr(a.ID)})
			return err
		},
		func() error {
			_, err := f.svc.UpdateLaptop(ctx, f.admin, l.ID, LaptopPatch{Status: ptr("available")})
			return err
		},
	}
	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)
		stored, err := f.store.GetLaptop(ctx, l.ID)
		require.NoError(t, err)
		if stored.State.Status() == model.StatusAvailable {
			assert.Empty(t, stored.State.Holder(), "step %d", i)
		}
	}
}

func TestDeleteLaptop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "A", "a@example.com")
	l := f.laptop(t, "SN-1")
	_, err := f.svc.Borrow(ctx, a, l.ID)
	require.NoError(t, err)

	requireKind(t, f.svc.DeleteLaptop(ctx, a, l.ID), ErrForbidden, "")

	// Assigned laptops can be deleted; only users are guarded.
	require.NoError(t, f.svc.DeleteLaptop(ctx, f.admin, l.ID))
	requireKind(t, f.svc.DeleteLaptop(ctx, f.admin, l.ID), ErrNotFound, msgLaptopNotFound)

	// With the laptop gone the user can be deleted too.
	assert.NoError(t, f.svc.DeleteUser(ctx, f.admin, a.ID))
}

func TestListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "A", "a@example.com")
	l1 := f.laptop(t, "SN-1")
	f.laptop(t, "SN-2")
	_, err := f.svc.Borrow(ctx, a, l1.ID)
	require.NoError(t, err)

	all, err := f.svc.ListLaptops(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.NotNil(t, all[0].Holder)
	assert.Equal(t, HolderRef{ID: a.ID, Name: "A", Email: "a@example.com"}, *all[0].Holder)
	assert.Nil(t, all[1].Holder)

	_, err = f.svc.ListLaptops(ctx, a)
	requireKind(t, err, ErrForbidden, "Admin access required")
	_, err = f.svc.ListMaintenance(ctx, a)
	requireKind(t, err, ErrForbidden, "")

	avail, err := f.svc.ListAvailable(ctx, a)
	require.NoError(t, err)
	require.Len(t, avail, 1)
	assert.Equal(t, "SN-2", avail[0].SerialNumber)

	mine, err := f.svc.MyLaptops(ctx, a)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, l1.ID, mine[0].ID)

	view, err := f.svc.GetLaptop(ctx, f.admin, l1.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Holder)
	assert.Equal(t, "A", view.Holder.Name)

	_, err = f.svc.GetLaptop(ctx, f.admin, "missing")
	requireKind(t, err, ErrNotFound, msgLaptopNotFound)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "A", "a@example.com")
	l1 := f.laptop(t, "SN-1")
	f.laptop(t, "SN-2")
	f.laptop(t, "SN-3")
	_, err := f.svc.Borrow(ctx, a, l1.ID)
	require.NoError(t, err)

	st, err := f.svc.Stats(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, Stats{TotalLaptops: 3, Available: 2, Assigned: 1, TotalUsers: 2}, st)

	_, err = f.svc.Stats(ctx, a)
	requireKind(t, err, ErrForbidden, "")
}
