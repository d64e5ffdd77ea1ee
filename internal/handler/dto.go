package handler

import (
	"encoding/json"
	"time"

	"github.com/iliyamo/laptop-inventory/internal/model"
	"github.com/iliyamo/laptop-inventory/internal/service"
)

// ----- responses -----

type messageResp struct {
	Message string `json:"message"`
}

type authResp struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
	User      model.PublicUser `json:"user"`
}

type userResp struct {
	User model.PublicUser `json:"user"`
}

// holderJSON renders assignedTo as null, a bare user id, or the populated
// {id, name, email} object.
type holderJSON struct {
	id  string
	ref *service.HolderRef
}

func (h holderJSON) MarshalJSON() ([]byte, error) {
	switch {
	case h.ref != nil:
		return json.Marshal(struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
		}{h.ref.ID, h.ref.Name, h.ref.Email})
	case h.id != "":
		return json.Marshal(h.id)
	}
	return []byte("null"), nil
}

type laptopResp struct {
	ID           string       `json:"id"`
	Brand        string       `json:"brand"`
	Model        string       `json:"model"`
	SerialNumber string       `json:"serialNumber"`
	Specs        model.Specs  `json:"specs"`
	Status       model.Status `json:"status"`
	AssignedTo   holderJSON   `json:"assignedTo"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

func toLaptopResp(l model.Laptop, ref *service.HolderRef) laptopResp {
	return laptopResp{
		ID:           l.ID,
		Brand:        l.Brand,
		Model:        l.Model,
		SerialNumber: l.SerialNumber,
		Specs:        l.Specs,
		Status:       l.State.Status(),
		AssignedTo:   holderJSON{id: l.State.Holder(), ref: ref},
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

func laptopList(ls []model.Laptop) []laptopResp {
	out := make([]laptopResp, 0, len(ls))
	for _, l := range ls {
		out = append(out, toLaptopResp(l, nil))
	}
	return out
}

func viewList(vs []service.LaptopView) []laptopResp {
	out := make([]laptopResp, 0, len(vs))
	for _, v := range vs {
		out = append(out, toLaptopResp(v.Laptop, v.Holder))
	}
	return out
}

// ----- requests -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type laptopReq struct {
	Brand        string      `json:"brand"`
	Model        string      `json:"model"`
	SerialNumber string      `json:"serialNumber"`
	Specs        model.Specs `json:"specs"`
}

// laptopPatchReq keeps pointers so absent fields stay untouched.
type laptopPatchReq struct {
	Brand        *string      `json:"brand"`
	Model        *string      `json:"model"`
	SerialNumber *string      `json:"serialNumber"`
	Specs        *model.Specs `json:"specs"`
	Status       *string      `json:"status"`
	AssignedTo   *string      `json:"assignedTo"`
}

func (r laptopPatchReq) patch() service.LaptopPatch {
	return service.LaptopPatch{
		Brand:        r.Brand,
		Model:        r.Model,
		SerialNumber: r.SerialNumber,
		Specs:        r.Specs,
		Status:       r.Status,
		AssignedTo:   r.AssignedTo,
	}
}

type userReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type userPatchReq struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Role     *string `json:"role"`
	Password *string `json:"password"`
}

type profileReq struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type passwordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
