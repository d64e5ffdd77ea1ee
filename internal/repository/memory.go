package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/laptop-inventory/internal/model"
)

// MemoryStore keeps users and laptops in process memory. It backs the test
// suites and the STORE_DRIVER=memory development mode. Records are returned
// by value so callers never alias the stored copy.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[string]model.User
	userOrder   []string
	laptops     map[string]model.Laptop
	laptopOrder []string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]model.User),
		laptops: make(map[string]model.Laptop),
	}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) Close(context.Context) error { return nil }

// ----- users -----

func (m *MemoryStore) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; ok {
		return ErrDuplicate
	}
	if m.emailTakenLocked(u.Email, "") {
		return ErrDuplicate
	}
	m.users[u.ID] = *u
	m.userOrder = append(m.userOrder, u.ID)
	return nil
}

func (m *MemoryStore) GetUser(_ context.Context, id string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.userOrder {
		if u := m.users[id]; strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, ErrNotFound
}

func (m *MemoryStore) ListUsers(context.Context) ([]model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.User, 0, len(m.userOrder))
	for _, id := range m.userOrder {
		out = append(out, m.users[id])
	}
	return out, nil
}

func (m *MemoryStore) UpdateUser(_ context.Context, u model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	if m.emailTakenLocked(u.Email, u.ID) {
		return ErrDuplicate
	}
	m.users[u.ID] = u
	return nil
}

func (m *MemoryStore) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	for _, l := range m.laptops {
		if l.State.Holder() == id {
			return ErrReferenced
		}
	}
	delete(m.users, id)
	m.userOrder = without(m.userOrder, id)
	return nil
}

func (m *MemoryStore) AdminExists(context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Role.IsAdmin() {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) CountUsers(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users), nil
}

func (m *MemoryStore) emailTakenLocked(email, exceptID string) bool {
	for id, u := range m.users {
		if id != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

// ----- laptops -----

func (m *MemoryStore) CreateLaptop(_ context.Context, l *model.Laptop) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.laptops[l.ID]; ok {
		return ErrDuplicate
	}
	if m.serialTakenLocked(l.SerialNumber, "") {
		return ErrDuplicate
	}
	m.laptops[l.ID] = *l
	m.laptopOrder = append(m.laptopOrder, l.ID)
	return nil
}

func (m *MemoryStore) GetLaptop(_ context.Context, id string) (model.Laptop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.laptops[id]
	if !ok {
		return model.Laptop{}, ErrNotFound
	}
	return l, nil
}

func (m *MemoryStore) GetLaptopBySerial(_ context.Context, serial string) (model.Laptop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.laptopOrder {
		if l := m.laptops[id]; l.SerialNumber == serial {
			return l, nil
		}
	}
	return model.Laptop{}, ErrNotFound
}

func (m *MemoryStore) ListLaptops(_ context.Context, f LaptopFilter) ([]model.Laptop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Laptop, 0, len(m.laptopOrder))
	for _, id := range m.laptopOrder {
		l := m.laptops[id]
		if f.Status != "" && l.State.Status() != f.Status {
			continue
		}
		if f.Holder != "" && l.State.Holder() != f.Holder {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (m *MemoryStore) UpdateLaptop(_ context.Context, l model.Laptop) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.laptops[l.ID]; !ok {
		return ErrNotFound
	}
	if m.serialTakenLocked(l.SerialNumber, l.ID) {
		return ErrDuplicate
	}
	m.laptops[l.ID] = l
	return nil
}

func (m *MemoryStore) SwapState(_ context.Context, id string, from, to model.LaptopState, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.laptops[id]
	if !ok {
		return ErrNotFound
	}
	if l.State != from {
		return ErrStateChanged
	}
	l.State = to
	l.UpdatedAt = at
	m.laptops[id] = l
	return nil
}

func (m *MemoryStore) DeleteLaptop(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.laptops[id]; !ok {
		return ErrNotFound
	}
	delete(m.laptops, id)
	m.laptopOrder = without(m.laptopOrder, id)
	return nil
}

func (m *MemoryStore) CountByHolder(_ context.Context, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, l := range m.laptops {
		if l.State.Holder() == userID {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CountByStatus(context.Context) (map[model.Status]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[model.Status]int{}
	for _, l := range m.laptops {
		out[l.State.Status()]++
	}
	return out, nil
}

func (m *MemoryStore) serialTakenLocked(serial, exceptID string) bool {
	for id, l := range m.laptops {
		if id != exceptID && l.SerialNumber == serial {
			return true
		}
	}
	return false
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
