package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/laptop-inventory/internal/model"
	"github.com/iliyamo/laptop-inventory/internal/queue"
	"github.com/iliyamo/laptop-inventory/internal/repository"
)

const (
	msgLaptopNotFound  = "Laptop not found"
	msgDuplicateSerial = "Laptop with this serial number already exists"
	msgNotBorrowable   = "Laptop is not available for borrowing"
	msgAlreadyHolding  = "You already have a laptop assigned"
)

// NewLaptop is the admin input for adding an asset.
type NewLaptop struct {
	Brand        string
	Model        string
	SerialNumber string
	Specs        model.Specs
}

// LaptopPatch is a partial admin update. Nil and blank fields are left as
// they are. A non-blank AssignedTo forces the laptop into assigned.
type LaptopPatch struct {
	Brand        *string
	Model        *string
	SerialNumber *string
	Specs        *model.Specs
	Status       *string
	AssignedTo   *string
}

// HolderRef is the populated form of a laptop's holder.
type HolderRef struct {
	ID    string
	Name  string
	Email string
}

// LaptopView is a laptop with its holder resolved. Holder is nil when the
// laptop has none or the account could not be loaded.
type LaptopView struct {
	model.Laptop
	Holder *HolderRef
}

// CreateLaptop adds an available laptop.
func (s *Service) CreateLaptop(ctx context.Context, actor model.User, in NewLaptop) (model.Laptop, error) {
	if err := Authorize(actor, AdminOnly); err != nil {
		return model.Laptop{}, err
	}
	in.Brand = strings.TrimSpace(in.Brand)
	in.Model = strings.TrimSpace(in.Model)
	in.SerialNumber = strings.TrimSpace(in.SerialNumber)
	if err := missingFields(map[string]string{
		"brand": in.Brand, "model": in.Model, "serialNumber": in.SerialNumber,
	}); err != nil {
		return model.Laptop{}, err
	}
	if err := s.serialFree(ctx, in.SerialNumber, ""); err != nil {
		return model.Laptop{}, err
	}

	now := s.now()
	l := model.Laptop{
		ID:           s.newID(),
		Brand:        in.Brand,
		Model:        in.Model,
		SerialNumber: in.SerialNumber,
		Specs:        in.Specs,
		State:        model.Available(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateLaptop(ctx, &l); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.Laptop{}, conflict(msgDuplicateSerial)
		}
		return model.Laptop{}, internal("create laptop", err)
	}
	s.log.InfoContext(ctx, "laptop created", "laptop_id", l.ID, "serial", l.SerialNumber, "actor_id", actor.ID)
	return l, nil
}

// GetLaptop returns one laptop with its holder populated.
func (s *Service) GetLaptop(ctx context.Context, actor model.User, id string) (LaptopView, error) {
	if err := Authorize(actor, AdminOnly); err != nil {
		return LaptopView{}, err
	}
	l, err := s.loadLaptop(ctx, id)
	if err != nil {
		return LaptopView{}, err
	}
	views, err := s.populate(ctx, []model.Laptop{l})
	if err != nil {
		return LaptopView{}, err
	}
	return views[0], nil
}

// ListLaptops returns the whole inventory with holders populated.
func (s *Service) ListLaptops(ctx context.Context, actor model.User) ([]LaptopView, error) {
	return s.listPopulated(ctx, actor, repository.LaptopFilter{})
}

// ListMaintenance returns laptops under repair with holders populated.
func (s *Service) ListMaintenance(ctx context.Context, actor model.User) ([]LaptopView, error) {
	return s.listPopulated(ctx, actor, repository.LaptopFilter{Status: model.StatusMaintenance})
}

// ListAvailable returns the laptops anyone may borrow.
func (s *Service) ListAvailable(ctx context.Context, actor model.User) ([]model.Laptop, error) {
	if err := Authorize(actor, AnyUser); err != nil {
		return nil, err
	}
	out, err := s.store.ListLaptops(ctx, repository.LaptopFilter{Status: model.StatusAvailable})
	if err != nil {
		return nil, internal("list available", err)
	}
	return out, nil
}

// MyLaptops returns every laptop recorded against the actor, including one
// under maintenance.
func (s *Service) MyLaptops(ctx context.Context, actor model.User) ([]model.Laptop, error) {
	if err := Authorize(actor, AnyUser); err != nil {
		return nil, err
	}
	out, err := s.store.ListLaptops(ctx, repository.LaptopFilter{Holder: actor.ID})
	if err != nil {
		return nil, internal("my laptops", err)
	}
	return out, nil
}

// UpdateLaptop overwrites the given fields. Status and AssignedTo combine
// as follows: AssignedTo wins and forces assigned; status available clears
// the holder; status maintenance keeps it; status assigned needs a holder.
func (s *Service) UpdateLaptop(ctx context.Context, actor model.User, id string, p LaptopPatch) (model.Laptop, error) {
	if err := Authorize(actor, AdminOnly); err != nil {
		return model.Laptop{}, err
	}
	l, err := s.loadLaptop(ctx, id)
	if err != nil {
		return model.Laptop{}, err
	}
	prev := l.State

	if v := trimmed(p.Brand); v != "" {
		l.Brand = v
	}
	if v := trimmed(p.Model); v != "" {
		l.Model = v
	}
	if v := trimmed(p.SerialNumber); v != "" && v != l.SerialNumber {
		if err := s.serialFree(ctx, v, l.ID); err != nil {
			return model.Laptop{}, err
		}
		l.SerialNumber = v
	}
	if p.Specs != nil {
		l.Specs = *p.Specs
	}

	next := prev
	if v := trimmed(p.Status); v != "" {
		st, err := model.ParseStatus(v)
		if err != nil {
			return model.Laptop{}, newError(ErrValidation, "Invalid status")
		}
		switch st {
		case model.StatusAvailable:
			next = model.Available()
		case model.StatusMaintenance:
			next = model.InMaintenance(prev.Holder())
		case model.StatusAssigned:
			next = model.AssignedTo(prev.Holder())
		}
	}
	if target := trimmed(p.AssignedTo); target != "" {
		if _, err := s.store.GetUser(ctx, target); err != nil {
			if isNotFound(err) {
				return model.Laptop{}, notFound("User not found")
			}
			return model.Laptop{}, internal("update laptop", err)
		}
		next = model.AssignedTo(target)
	}
	if next.Status() == model.StatusAssigned && next.Holder() == "" {
		return model.Laptop{}, conflict("An assigned laptop needs a holder")
	}
	l.State = next
	l.UpdatedAt = s.now()

	if err := s.store.UpdateLaptop(ctx, l); err != nil {
		switch {
		case isNotFound(err):
			return model.Laptop{}, notFound(msgLaptopNotFound)
		case errors.Is(err, repository.ErrDuplicate):
			return model.Laptop{}, conflict(msgDuplicateSerial)
		}
		return model.Laptop{}, internal("update laptop", err)
	}

	switch {
	case next.Status() == model.StatusAssigned && next != prev:
		s.emit(ctx, queue.EventAssigned, l, next.Holder(), actor)
	case prev.Status() == model.StatusMaintenance && next.Status() == model.StatusAvailable:
		s.emit(ctx, queue.EventMaintenanceCompleted, l, prev.Holder(), actor)
	}
	return l, nil
}

// DeleteLaptop removes a laptop whatever its state.
func (s *Service) DeleteLaptop(ctx context.Context, actor model.User, id string) error {
	if err := Authorize(actor, AdminOnly); err != nil {
		return err
	}
	if err := s.store.DeleteLaptop(ctx, id); err != nil {
		if isNotFound(err) {
			return notFound(msgLaptopNotFound)
		}
		return internal("delete laptop", err)
	}
	s.log.InfoContext(ctx, "laptop deleted", "laptop_id", id, "actor_id", actor.ID)
	return nil
}

// Borrow assigns an available laptop to the actor. A user may hold at most
// one assigned laptop.
func (s *Service) Borrow(ctx context.Context, actor model.User, id string) (model.Laptop, error) {
	if err := Authorize(actor, AnyUser); err != nil {
		return model.Laptop{}, err
	}
	l, err := s.loadLaptop(ctx, id)
	if err != nil {
		return model.Laptop{}, err
	}
	if l.State.Status() != model.StatusAvailable {
		return model.Laptop{}, conflict(msgNotBorrowable)
	}
	held, err := s.store.ListLaptops(ctx, repository.LaptopFilter{Status: model.StatusAssigned, Holder: actor.ID})
	if err != nil {
		return model.Laptop{}, internal("borrow", err)
	}
	if len(held) > 0 {
		return model.Laptop{}, conflict(msgAlreadyHolding)
	}

	l, err = s.transition(ctx, l, model.AssignedTo(actor.ID), msgNotBorrowable)
	if err != nil {
		return model.Laptop{}, err
	}
	s.log.InfoContext(ctx, "laptop borrowed", "laptop_id", l.ID, "user_id", actor.ID)
	s.emit(ctx, queue.EventBorrowed, l, actor.ID, actor)
	return l, nil
}

// Return puts the actor's assigned laptop back on the shelf.
func (s *Service) Return(ctx context.Context, actor model.User, id string) (model.Laptop, error) {
	l, err := s.loadLaptop(ctx, id)
	if err != nil {
		return model.Laptop{}, err
	}
	if err := Authorize(actor, HolderOf(l)); err != nil {
		return model.Laptop{}, err
	}
	if l.State.Status() != model.StatusAssigned {
		return model.Laptop{}, conflict("Laptop is not currently assigned")
	}

	l, err = s.transition(ctx, l, model.Available(), "Laptop is not currently assigned")
	if err != nil {
		return model.Laptop{}, err
	}
	s.log.InfoContext(ctx, "laptop returned", "laptop_id", l.ID, "user_id", actor.ID)
	s.emit(ctx, queue.EventReturned, l, actor.ID, actor)
	return l, nil
}

// RequestMaintenance sends the actor's assigned laptop to repair. The actor
// stays recorded as the holder.
func (s *Service) RequestMaintenance(ctx context.Context, actor model.User, id string) (model.Laptop, error) {
	l, err := s.loadLaptop(ctx, id)
	if err != nil {
		return model.Laptop{}, err
	}
	if err := Authorize(actor, HolderOf(l)); err != nil {
		return model.Laptop{}, err
	}
	if l.State.Status() != model.StatusAssigned {
		return model.Laptop{}, conflict("Only assigned laptops can be sent to maintenance")
	}

	l, err = s.transition(ctx, l, model.InMaintenance(actor.ID), "Only assigned laptops can be sent to maintenance")
	if err != nil {
		return model.Laptop{}, err
	}
	s.log.InfoContext(ctx, "maintenance requested", "laptop_id", l.ID, "user_id", actor.ID)
	s.emit(ctx, queue.EventMaintenanceRequested, l, actor.ID, actor)
	return l, nil
}

// CompleteMaintenance returns a repaired laptop to the shelf and clears its
// holder.
func (s *Service) CompleteMaintenance(ctx context.Context, actor model.User, id string) (model.Laptop, error) {
	if err := Authorize(actor, AdminOnly); err != nil {
		return model.Laptop{}, err
	}
	l, err := s.loadLaptop(ctx, id)
	if err != nil {
		return model.Laptop{}, err
	}
	if l.State.Status() != model.StatusMaintenance {
		return model.Laptop{}, conflict("Laptop is not under maintenance")
	}
	prevHolder := l.State.Holder()

	l, err = s.transition(ctx, l, model.Available(), "Laptop is not under maintenance")
	if err != nil {
		return model.Laptop{}, err
	}
	s.log.InfoContext(ctx, "maintenance completed", "laptop_id", l.ID, "actor_id", actor.ID)
	s.emit(ctx, queue.EventMaintenanceCompleted, l, prevHolder, actor)
	return l, nil
}

// transition stores l's move to next. lost is the client message when a
// concurrent request changed the laptop first.
func (s *Service) transition(ctx context.Context, l model.Laptop, next model.LaptopState, lost string) (model.Laptop, error) {
	at := s.now()
	if err := s.store.SwapState(ctx, l.ID, l.State, next, at); err != nil {
		switch {
		case isNotFound(err):
			return model.Laptop{}, notFound(msgLaptopNotFound)
		case errors.Is(err, repository.ErrStateChanged):
			return model.Laptop{}, conflict(lost)
		}
		return model.Laptop{}, internal("swap state", err)
	}
	l.State = next
	l.UpdatedAt = at
	return l, nil
}

func (s *Service) loadLaptop(ctx context.Context, id string) (model.Laptop, error) {
	l, err := s.store.GetLaptop(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return model.Laptop{}, notFound(msgLaptopNotFound)
		}
		return model.Laptop{}, internal("get laptop", err)
	}
	return l, nil
}

// serialFree reports a conflict when serial belongs to a laptop other than
// exceptID.
func (s *Service) serialFree(ctx context.Context, serial, exceptID string) error {
	other, err := s.store.GetLaptopBySerial(ctx, serial)
	switch {
	case err == nil && other.ID != exceptID:
		return conflict(msgDuplicateSerial)
	case err != nil && !isNotFound(err):
		return internal("check serial", err)
	}
	return nil
}

func (s *Service) listPopulated(ctx context.Context, actor model.User, f repository.LaptopFilter) ([]LaptopView, error) {
	if err := Authorize(actor, AdminOnly); err != nil {
		return nil, err
	}
	laptops, err := s.store.ListLaptops(ctx, f)
	if err != nil {
		return nil, internal("list laptops", err)
	}
	return s.populate(ctx, laptops)
}

// populate resolves each holder once. A holder whose account is gone is
// left unresolved rather than failing the listing.
func (s *Service) populate(ctx context.Context, laptops []model.Laptop) ([]LaptopView, error) {
	refs := map[string]*HolderRef{}
	out := make([]LaptopView, 0, len(laptops))
	for _, l := range laptops {
		v := LaptopView{Laptop: l}
		if h := l.State.Holder(); h != "" {
			ref, seen := refs[h]
			if !seen {
				u, err := s.store.GetUser(ctx, h)
				switch {
				case err == nil:
					ref = &HolderRef{ID: u.ID, Name: u.Name, Email: u.Email}
				case !isNotFound(err):
					return nil, internal("populate holder", err)
				}
				refs[h] = ref
			}
			v.Holder = ref
		}
		out = append(out, v)
	}
	return out, nil
}
