// Package memory implements an in-process document store for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Apurer/school-activities-api/internal/domains/documents/domain"
	"github.com/Apurer/school-activities-api/internal/domains/documents/ports"
)

var _ ports.Gateway = (*Gateway)(nil)

// Gateway keeps collections in insertion order and hands out clones only.
type Gateway struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

type collection struct {
	order []string
	docs  map[string]domain.Document
}

// objectID adapts primitive.ObjectID to domain.ID.
type objectID struct {
	primitive.ObjectID
}

func (id objectID) String() string { return id.Hex() }

func NewGateway() *Gateway {
	return &Gateway{collections: map[string]*collection{}}
}

func (g *Gateway) Collection(name string) domain.Collection {
	return domain.NewCollection(name)
}

func (g *Gateway) ParseID(raw string) (domain.ID, error) {
	oid, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidID, raw)
	}
	return objectID{oid}, nil
}

func (g *Gateway) Find(ctx context.Context, c domain.Collection, filter domain.Filter) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	col, ok := g.collections[c.Name()]
	if !ok {
		return []domain.Document{}, nil
	}
	out := make([]domain.Document, 0, len(col.order))
	for _, id := range col.order {
		doc := col.docs[id]
		match, err := filter.Matches(doc)
		if err != nil {
			return nil, err
		}
		if match {
			out = append(out, doc.Clone())
		}
	}
	return out, nil
}

func (g *Gateway) FindOne(ctx context.Context, c domain.Collection, id domain.ID) (domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	col, ok := g.collections[c.Name()]
	if !ok {
		return nil, nil
	}
	doc, ok := col.docs[id.String()]
	if !ok {
		return nil, nil
	}
	return doc.Clone(), nil
}

func (g *Gateway) InsertOne(ctx context.Context, c domain.Collection, doc domain.Document) (domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clone := doc.WithoutID()
	id := primitive.NewObjectID().Hex()
	clone[domain.IDField] = id

	g.mu.Lock()
	defer g.mu.Unlock()
	col := g.collectionLocked(c.Name())
	col.order = append(col.order, id)
	col.docs[id] = clone
	return clone.Clone(), nil
}

func (g *Gateway) UpdateOne(ctx context.Context, c domain.Collection, id domain.ID, set domain.Document) (ports.UpdateResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.UpdateResult{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	col, ok := g.collections[c.Name()]
	if !ok {
		return ports.UpdateResult{}, nil
	}
	doc, ok := col.docs[id.String()]
	if !ok {
		return ports.UpdateResult{}, nil
	}
	// WithoutID deep-copies, so nothing the caller holds is stored.
	for k, v := range set.WithoutID() {
		doc[k] = v
	}
	return ports.UpdateResult{MatchedCount: 1}, nil
}

func (g *Gateway) DeleteOne(ctx context.Context, c domain.Collection, id domain.ID) (ports.DeleteResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.DeleteResult{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	col, ok := g.collections[c.Name()]
	if !ok {
		return ports.DeleteResult{}, nil
	}
	key := id.String()
	if _, ok := col.docs[key]; !ok {
		return ports.DeleteResult{}, nil
	}
	delete(col.docs, key)
	for i, existing := range col.order {
		if existing == key {
			col.order = append(col.order[:i], col.order[i+1:]...)
			break
		}
	}
	return ports.DeleteResult{DeletedCount: 1}, nil
}

// BulkWrite applies ops in order and stops at the first failing op, leaving
// earlier ops applied.
func (g *Gateway) BulkWrite(ctx context.Context, c domain.Collection, ops []domain.UpdateOp) (ports.BulkResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.BulkResult{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	var result ports.BulkResult
	col, ok := g.collections[c.Name()]
	if !ok {
		return result, nil
	}
	for i, op := range ops {
		doc, err := col.first(op.Filter)
		if err != nil {
			return result, fmt.Errorf("bulk op %d: %w", i, err)
		}
		if doc == nil {
			continue
		}
		result.MatchedCount++
		modified, err := apply(doc, op)
		if err != nil {
			return result, fmt.Errorf("bulk op %d: %w", i, err)
		}
		if modified {
			result.ModifiedCount++
		}
	}
	return result, nil
}

func (g *Gateway) collectionLocked(name string) *collection {
	col, ok := g.collections[name]
	if !ok {
		col = &collection{docs: map[string]domain.Document{}}
		g.collections[name] = col
	}
	return col
}

func (c *collection) first(filter domain.Filter) (domain.Document, error) {
	for _, id := range c.order {
		doc := c.docs[id]
		ok, err := filter.Matches(doc)
		if err != nil {
			return nil, err
		}
		if ok {
			return doc, nil
		}
	}
	return nil, nil
}

func apply(doc domain.Document, op domain.UpdateOp) (bool, error) {
	for field := range op.Inc {
		if _, ok := doc[field]; !ok {
			continue
		}
		if _, ok := domain.ToFloat(doc[field]); !ok {
			return false, fmt.Errorf("cannot increment non-numeric field %q", field)
		}
	}
	modified := false
	for field, delta := range op.Inc {
		if delta == 0 {
			continue
		}
		doc[field] = increment(doc[field], delta)
		modified = true
	}
	for field, v := range op.Set.WithoutID() {
		if !domain.ValuesEqual(doc[field], v) {
			modified = true
		}
		doc[field] = v
	}
	return modified, nil
}

func increment(current any, delta int64) any {
	switch n := current.(type) {
	case nil:
		return delta
	case int:
		return n + int(delta)
	case int32:
		return n + int32(delta)
	case int64:
		return n + delta
	case float32:
		return n + float32(delta)
	default:
		f, _ := domain.ToFloat(n)
		return f + float64(delta)
	}
}
