package repository

import (
	"context"
	"time"

	"github.com/iliyamo/laptop-inventory/internal/model"
)

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, u model.User) error
	DeleteUser(ctx context.Context, id string) error
	AdminExists(ctx context.Context) (bool, error)
	CountUsers(ctx context.Context) (int, error)
}

// LaptopFilter narrows ListLaptops. Zero values match everything.
type LaptopFilter struct {
	Status model.Status
	Holder string
}

// LaptopStore persists inventory assets.
type LaptopStore interface {
	CreateLaptop(ctx context.Context, l *model.Laptop) error
	GetLaptop(ctx context.Context, id string) (model.Laptop, error)
	GetLaptopBySerial(ctx context.Context, serial string) (model.Laptop, error)
	ListLaptops(ctx context.Context, f LaptopFilter) ([]model.Laptop, error)
	// UpdateLaptop overwrites every field of the stored laptop.
	UpdateLaptop(ctx context.Context, l model.Laptop) error
	// SwapState moves a laptop from one state to another only if it is
	// still in from. It returns ErrStateChanged otherwise.
	SwapState(ctx context.Context, id string, from, to model.LaptopState, at time.Time) error
	DeleteLaptop(ctx context.Context, id string) error
	CountByHolder(ctx context.Context, userID string) (int, error)
	CountByStatus(ctx context.Context) (map[model.Status]int, error)
}

// Store is the single handle the service layer is built with.
type Store interface {
	UserStore
	LaptopStore
	Close(ctx context.Context) error
}
