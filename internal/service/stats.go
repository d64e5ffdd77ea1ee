package service

import (
	"context"

	"github.com/iliyamo/laptop-inventory/internal/model"
)

// Stats is the admin dashboard summary.
type Stats struct {
	TotalLaptops int `json:"totalLaptops"`
	Available    int `json:"available"`
	Assigned     int `json:"assigned"`
	Maintenance  int `json:"maintenance"`
	TotalUsers   int `json:"totalUsers"`
}

// Stats counts laptops per status and accounts.
func (s *Service) Stats(ctx context.Context, actor model.User) (Stats, error) {
	if err := Authorize(actor, AdminOnly); err != nil {
		return Stats{}, err
	}
	byStatus, err := s.store.CountByStatus(ctx)
	if err != nil {
		return Stats{}, internal("count laptops", err)
	}
	users, err := s.store.CountUsers(ctx)
	if err != nil {
		return Stats{}, internal("count users", err)
	}
	st := Stats{
		Available:   byStatus[model.StatusAvailable],
		Assigned:    byStatus[model.StatusAssigned],
		Maintenance: byStatus[model.StatusMaintenance],
		TotalUsers:  users,
	}
	st.TotalLaptops = st.Available + st.Assigned + st.Maintenance
	return st, nil
}
