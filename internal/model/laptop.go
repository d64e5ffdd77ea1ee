package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle position of a laptop.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusAssigned    Status = "assigned"
	StatusMaintenance Status = "maintenance"
)

// ParseStatus normalizes raw and rejects unknown statuses.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusAvailable, StatusAssigned, StatusMaintenance:
		return s, nil
	}
	return "", fmt.Errorf("unknown status %q", raw)
}

// ErrInconsistentState is returned by StateFrom when a stored status and
// holder cannot describe a valid laptop.
var ErrInconsistentState = errors.New("inconsistent laptop state")

// LaptopState couples a laptop's status with the user holding it. The fields
// are unexported so the only way to build one is through Available,
// AssignedTo and InMaintenance; an available laptop never has a holder and an
// assigned one always has.
type LaptopState struct {
	status Status
	holder string
}

// Available is the state of a laptop on the shelf.
func Available() LaptopState { return LaptopState{status: StatusAvailable} }

// AssignedTo is the state of a laptop lent to holder.
func AssignedTo(holder string) LaptopState {
	return LaptopState{status: StatusAssigned, holder: holder}
}

// InMaintenance is the state of a laptop under repair. The borrower, when
// there is one, stays recorded as the holder.
func InMaintenance(holder string) LaptopState {
	return LaptopState{status: StatusMaintenance, holder: holder}
}

// StateFrom rebuilds a state from its stored columns.
func StateFrom(status Status, holder string) (LaptopState, error) {
	switch status {
	case StatusAvailable:
		if holder != "" {
			return LaptopState{}, fmt.Errorf("%w: available laptop held by %s", ErrInconsistentState, holder)
		}
		return Available(), nil
	case StatusAssigned:
		if holder == "" {
			return LaptopState{}, fmt.Errorf("%w: assigned laptop without holder", ErrInconsistentState)
		}
		return AssignedTo(holder), nil
	case StatusMaintenance:
		return InMaintenance(holder), nil
	}
	return LaptopState{}, fmt.Errorf("%w: status %q", ErrInconsistentState, status)
}

// Status returns the lifecycle status. The zero LaptopState reads as available.
func (s LaptopState) Status() Status {
	if s.status == "" {
		return StatusAvailable
	}
	return s.status
}

// Holder returns the id of the user holding the laptop, or "".
func (s LaptopState) Holder() string { return s.holder }

// HeldBy reports whether userID is the recorded holder.
func (s LaptopState) HeldBy(userID string) bool {
	return s.holder != "" && s.holder == userID
}

func (s LaptopState) String() string {
	if s.holder == "" {
		return string(s.Status())
	}
	return fmt.Sprintf("%s(%s)", s.Status(), s.holder)
}

// Specs are descriptive hardware attributes. No rule depends on them.
type Specs struct {
	Processor string `json:"processor,omitempty" bson:"processor,omitempty"`
	RAM       string `json:"ram,omitempty" bson:"ram,omitempty"`
	Storage   string `json:"storage,omitempty" bson:"storage,omitempty"`
	Display   string `json:"display,omitempty" bson:"display,omitempty"`
}

// Laptop represents an inventory asset.
//
// Fields:
//
//	ID           – opaque unique identifier (UUID string).
//	Brand, Model – free text.
//	SerialNumber – unique across all laptops.
//	Specs        – informational hardware attributes.
//	State        – status plus holder, see LaptopState.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type Laptop struct {
	ID           string
	Brand        string
	Model        string
	SerialNumber string
	Specs        Specs
	State        LaptopState
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
