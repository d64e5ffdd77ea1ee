// Package service holds the inventory rules: who may do what, and how a
// laptop moves between available, assigned and maintenance. Handlers call
// it with the acting user already resolved; storage is reached only through
// repository.Store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/laptop-inventory/internal/model"
	"github.com/iliyamo/laptop-inventory/internal/queue"
	"github.com/iliyamo/laptop-inventory/internal/repository"
)

// EventPublisher receives lifecycle events after a transition is stored.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.LaptopEvent) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, queue.LaptopEvent) error { return nil }

// publishTimeout bounds how long a request waits on the broker.
const publishTimeout = 3 * time.Second

// Options configures a Service. Zero values pick sensible defaults.
type Options struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
	Events     EventPublisher
	Logger     *slog.Logger
	Now        func() time.Time
	NewID      func() string
}

// Service implements authentication, user administration and the laptop
// lifecycle on top of a Store.
type Service struct {
	store  repository.Store
	secret string
	ttl    time.Duration
	cost   int
	events EventPublisher
	log    *slog.Logger
	now    func() time.Time
	newID  func() string
}

// New builds a Service. It panics when store is nil, mirroring the handler
// constructors.
func New(store repository.Store, opts Options) *Service {
	if store == nil {
		panic("nil store passed to service.New")
	}
	s := &Service{
		store:  store,
		secret: opts.JWTSecret,
		ttl:    opts.TokenTTL,
		cost:   opts.BcryptCost,
		events: opts.Events,
		log:    opts.Logger,
		now:    opts.Now,
		newID:  opts.NewID,
	}
	if s.ttl <= 0 {
		s.ttl = 24 * time.Hour
	}
	if s.cost == 0 {
		s.cost = 10
	}
	if s.events == nil {
		s.events = nopPublisher{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// internal wraps an unexpected store failure. The message never reaches
// clients.
func internal(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

// emit publishes a lifecycle event without failing the request that caused
// it. holder is the user the transition concerns, which for a return is the
// previous holder.
func (s *Service) emit(ctx context.Context, typ queue.EventType, l model.Laptop, holder string, actor model.User) {
	ev := queue.LaptopEvent{
		Type:         typ,
		LaptopID:     l.ID,
		SerialNumber: l.SerialNumber,
		Brand:        l.Brand,
		Model:        l.Model,
		HolderID:     holder,
		ActorID:      actor.ID,
		OccurredAt:   l.UpdatedAt,
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.events.Publish(pctx, ev); err != nil {
		s.log.WarnContext(ctx, "lifecycle event dropped", "type", typ, "laptop_id", l.ID, "err", err)
	}
}

func isNotFound(err error) bool { return errors.Is(err, repository.ErrNotFound) }
