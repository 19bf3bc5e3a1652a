package gated

import (
	"context"
	"fmt"
	"sync"

	"github.com/Apurer/school-activities-api/internal/domains/documents/domain"
	"github.com/Apurer/school-activities-api/internal/domains/documents/ports"
)

var _ ports.Gateway = (*Gateway)(nil)

// State is the lifecycle position of the gate.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "uninitialized"
	}
}

// Gateway forwards to the underlying store only once it has been marked ready.
// Before that, and after a terminal failure, every call returns ports.ErrUnavailable.
type Gateway struct {
	mu      sync.RWMutex
	state   State
	inner   ports.Gateway
	lastErr error
}

// New returns an uninitialized gate.
func New() *Gateway {
	return &Gateway{}
}

// Ready installs the connected gateway and opens the gate.
func (g *Gateway) Ready(inner ports.Gateway) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if inner == nil {
		g.state = StateFailed
		g.lastErr = fmt.Errorf("nil gateway")
		return
	}
	g.inner = inner
	g.state = StateReady
	g.lastErr = nil
}

// Fail closes the gate permanently with cause.
func (g *Gateway) Fail(cause error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inner = nil
	g.state = StateFailed
	g.lastErr = cause
}

// State reports the current lifecycle state and the failure cause, if any.
func (g *Gateway) State() (State, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state, g.lastErr
}

// IsReady reports whether calls are forwarded.
func (g *Gateway) IsReady() bool {
	s, _ := g.State()
	return s == StateReady
}

func (g *Gateway) current() (ports.Gateway, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.state != StateReady || g.inner == nil {
		if g.lastErr != nil {
			return nil, fmt.Errorf("%w: %s: %v", ports.ErrUnavailable, g.state, g.lastErr)
		}
		return nil, fmt.Errorf("%w: %s", ports.ErrUnavailable, g.state)
	}
	return g.inner, nil
}

// Collection binds a handle without consulting the store, so it never fails.
func (g *Gateway) Collection(name string) domain.Collection {
	return domain.NewCollection(name)
}

func (g *Gateway) ParseID(raw string) (domain.ID, error) {
	inner, err := g.current()
	if err != nil {
		return nil, err
	}
	return inner.ParseID(raw)
}

func (g *Gateway) Find(ctx context.Context, c domain.Collection, filter domain.Filter) ([]domain.Document, error) {
	inner, err := g.current()
	if err != nil {
		return nil, err
	}
	return inner.Find(ctx, c, filter)
}

func (g *Gateway) FindOne(ctx context.Context, c domain.Collection, id domain.ID) (domain.Document, error) {
	inner, err := g.current()
	if err != nil {
		return nil, err
	}
	return inner.FindOne(ctx, c, id)
}

func (g *Gateway) InsertOne(ctx context.Context, c domain.Collection, doc domain.Document) (domain.Document, error) {
	inner, err := g.current()
	if err != nil {
		return nil, err
	}
	return inner.InsertOne(ctx, c, doc)
}

func (g *Gateway) UpdateOne(ctx context.Context, c domain.Collection, id domain.ID, set domain.Document) (ports.UpdateResult, error) {
	inner, err := g.current()
	if err != nil {
		return ports.UpdateResult{}, err
	}
	return inner.UpdateOne(ctx, c, id, set)
}

func (g *Gateway) DeleteOne(ctx context.Context, c domain.Collection, id domain.ID) (ports.DeleteResult, error) {
	inner, err := g.current()
	if err != nil {
		return ports.DeleteResult{}, err
	}
	return inner.DeleteOne(ctx, c, id)
}

func (g *Gateway) BulkWrite(ctx context.Context, c domain.Collection, ops []domain.UpdateOp) (ports.BulkResult, error) {
	inner, err := g.current()
	if err != nil {
		return ports.BulkResult{}, err
	}
	return inner.BulkWrite(ctx, c, ops)
}
