package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Apurer/school-activities-api/internal/domains/documents/domain"
	"github.com/Apurer/school-activities-api/internal/domains/documents/ports"
)

var _ ports.Gateway = (*Gateway)(nil)

// Gateway runs document operations against a MongoDB database. Caller manages the client lifecycle.
type Gateway struct {
	db *mongo.Database
}

// NewGateway binds the gateway to db.
func NewGateway(db *mongo.Database) *Gateway {
	return &Gateway{db: db}
}

type objectID struct {
	primitive.ObjectID
}

func (id objectID) String() string { return id.Hex() }

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
	coll, err := g.coll(c)
	if err != nil {
		return nil, err
	}
	cursor, err := coll.Find(ctx, toBSONFilter(filter))
	if err != nil {
		return nil, err
	}
	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, err
	}
	docs := make([]domain.Document, 0, len(raw))
	for _, m := range raw {
		docs = append(docs, fromBSON(m))
	}
	return docs, nil
}

func (g *Gateway) FindOne(ctx context.Context, c domain.Collection, id domain.ID) (domain.Document, error) {
	coll, err := g.coll(c)
	if err != nil {
		return nil, err
	}
	oid, err := toObjectID(id)
	if err != nil {
		return nil, err
	}
	var raw bson.M
	if err := coll.FindOne(ctx, bson.M{domain.IDField: oid}).Decode(&raw); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return fromBSON(raw), nil
}

func (g *Gateway) InsertOne(ctx context.Context, c domain.Collection, doc domain.Document) (domain.Document, error) {
	coll, err := g.coll(c)
	if err != nil {
		return nil, err
	}
	body := doc.WithoutID()
	oid := primitive.NewObjectID()
	payload := bson.M{domain.IDField: oid}
	for k, v := range body {
		payload[k] = v
	}
	if _, err := coll.InsertOne(ctx, payload); err != nil {
		return nil, err
	}
	body[domain.IDField] = oid.Hex()
	return body, nil
}

func (g *Gateway) UpdateOne(ctx context.Context, c domain.Collection, id domain.ID, set domain.Document) (ports.UpdateResult, error) {
	coll, err := g.coll(c)
	if err != nil {
		return ports.UpdateResult{}, err
	}
	oid, err := toObjectID(id)
	if err != nil {
		return ports.UpdateResult{}, err
	}
	res, err := coll.UpdateOne(ctx, bson.M{domain.IDField: oid}, bson.M{"$set": bson.M(set.WithoutID())})
	if err != nil {
		return ports.UpdateResult{}, err
	}
	return ports.UpdateResult{MatchedCount: res.MatchedCount}, nil
}

func (g *Gateway) DeleteOne(ctx context.Context, c domain.Collection, id domain.ID) (ports.DeleteResult, error) {
	coll, err := g.coll(c)
	if err != nil {
		return ports.DeleteResult{}, err
	}
	oid, err := toObjectID(id)
	if err != nil {
		return ports.DeleteResult{}, err
	}
	res, err := coll.DeleteOne(ctx, bson.M{domain.IDField: oid})
	if err != nil {
		return ports.DeleteResult{}, err
	}
	return ports.DeleteResult{DeletedCount: res.DeletedCount}, nil
}

func (g *Gateway) BulkWrite(ctx context.Context, c domain.Collection, ops []domain.UpdateOp) (ports.BulkResult, error) {
	coll, err := g.coll(c)
	if err != nil {
		return ports.BulkResult{}, err
	}
	if len(ops) == 0 {
		return ports.BulkResult{}, nil
	}
	models := make([]mongo.WriteModel, 0, len(ops))
	for _, op := range ops {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(toBSONFilter(op.Filter)).
			SetUpdate(toBSONUpdate(op)))
	}
	res, err := coll.BulkWrite(ctx, models)
	if err != nil {
		return ports.BulkResult{}, err
	}
	return ports.BulkResult{MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}, nil
}

func (g *Gateway) coll(c domain.Collection) (*mongo.Collection, error) {
	if g == nil || g.db == nil {
		return nil, errors.New("mongo gateway not configured")
	}
	return g.db.Collection(c.Name()), nil
}

func toObjectID(id domain.ID) (primitive.ObjectID, error) {
	switch v := id.(type) {
	case objectID:
		return v.ObjectID, nil
	case nil:
		return primitive.NilObjectID, domain.ErrInvalidID
	default:
		oid, err := primitive.ObjectIDFromHex(v.String())
		if err != nil {
			return primitive.NilObjectID, fmt.Errorf("%w: %q", domain.ErrInvalidID, v.String())
		}
		return oid, nil
	}
}
