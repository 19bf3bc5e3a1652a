package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/school-activities-api/internal/domains/documents/domain"
)

func TestGateway_InsertAssignsIdentifierAndFindOneReturnsIt(t *testing.T) {
	ctx := context.Background()
	g := NewGateway()
	lessons := g.Collection("lessons")

	created, err := g.InsertOne(ctx, lessons, domain.Document{"title": "Math 101", "_id": "client-chosen"})
	require.NoError(t, err)
	require.NotEqual(t, "client-chosen", created[domain.IDField])

	id, err := g.ParseID(created[domain.IDField].(string))
	require.NoError(t, err)
	found, err := g.FindOne(ctx, lessons, id)
	require.NoError(t, err)
	require.Equal(t, created, found)
}

func TestGateway_ParseIDRejectsMalformedIdentifiers(t *testing.T) {
	_, err := NewGateway().ParseID("not-an-object-id")
	require.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestGateway_FindPreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	g := NewGateway()
	c := g.Collection("messages")
	for _, title := range []string{"a", "b", "c"} {
		_, err := g.InsertOne(ctx, c, domain.Document{"title": title})
		require.NoError(t, err)
	}

	docs, err := g.Find(ctx, c, domain.MatchAll())
	require.NoError(t, err)
	require.Len(t, docs, 3)
	require.Equal(t, "a", docs[0]["title"])
	require.Equal(t, "c", docs[2]["title"])
}

func TestGateway_FindOnUnknownCollectionIsEmpty(t *testing.T) {
	g := NewGateway()
	docs, err := g.Find(context.Background(), g.Collection("nothing"), domain.MatchAll())
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestGateway_UpdateOneMergesFields(t *testing.T) {
	ctx := context.Background()
	g := NewGateway()
	c := g.Collection("lessons")
	created, err := g.InsertOne(ctx, c, domain.Document{"title": "Art", "price": 10})
	require.NoError(t, err)
	id, err := g.ParseID(created[domain.IDField].(string))
	require.NoError(t, err)

	res, err := g.UpdateOne(ctx, c, id, domain.Document{"price": 12})
	require.NoError(t, err)
	require.EqualValues(t, 1, res.MatchedCount)

	found, err := g.FindOne(ctx, c, id)
	require.NoError(t, err)
	require.Equal(t, "Art", found["title"])
	require.Equal(t, 12, found["price"])
}

func TestGateway_UpdateOneDoesNotKeepCallerValues(t *testing.T) {
	ctx := context.Background()
	g := NewGateway()
	c := g.Collection("lessons")
	created, err := g.InsertOne(ctx, c, domain.Document{"title": "Art"})
	require.NoError(t, err)
	id, err := g.ParseID(created[domain.IDField].(string))
	require.NoError(t, err)

	schedule := map[string]any{"day": "Mon"}
	tags := []string{"paint"}
	rooms := []map[string]any{{"name": "A1"}}
	_, err = g.UpdateOne(ctx, c, id, domain.Document{"schedule": schedule, "tags": tags, "rooms": rooms})
	require.NoError(t, err)

	schedule["day"] = "Fri"
	tags[0] = "clay"
	rooms[0]["name"] = "B2"

	found, err := g.FindOne(ctx, c, id)
	require.NoError(t, err)
	require.Equal(t, "Mon", found["schedule"].(domain.Document)["day"])
	require.Equal(t, []string{"paint"}, found["tags"])
	require.Equal(t, "A1", found["rooms"].([]map[string]any)[0]["name"])
}

func TestGateway_DeleteOneTwice(t *testing.T) {
	ctx := context.Background()
	g := NewGateway()
	c := g.Collection("lessons")
	created, err := g.InsertOne(ctx, c, domain.Document{"title": "Art"})
	require.NoError(t, err)
	id, err := g.ParseID(created[domain.IDField].(string))
	require.NoError(t, err)

	res, err := g.DeleteOne(ctx, c, id)
	require.NoError(t, err)
	require.EqualValues(t, 1, res.DeletedCount)

	res, err = g.DeleteOne(ctx, c, id)
	require.NoError(t, err)
	require.EqualValues(t, 0, res.DeletedCount)
}

func TestGateway_BulkWriteDecrementsOncePerInstruction(t *testing.T) {
	ctx := context.Background()
	g := NewGateway()
	c := g.Collection("lessons")
	_, err := g.InsertOne(ctx, c, domain.Document{"id": 7, "AvailableInventory": 5})
	require.NoError(t, err)

	dec := domain.UpdateOp{
		Filter: domain.AllOf(domain.Eq("id", float64(7))),
		Inc:    map[string]int64{"AvailableInventory": -1},
	}
	missing := domain.UpdateOp{
		Filter: domain.AllOf(domain.Eq("id", 99)),
		Inc:    map[string]int64{"AvailableInventory": -1},
	}
	res, err := g.BulkWrite(ctx, c, []domain.UpdateOp{dec, dec, missing})
	require.NoError(t, err)
	require.EqualValues(t, 2, res.MatchedCount)
	require.EqualValues(t, 2, res.ModifiedCount)

	docs, err := g.Find(ctx, c, domain.MatchAll())
	require.NoError(t, err)
	require.Equal(t, 3, docs[0]["AvailableInventory"])
}

func TestGateway_BulkWriteRejectsNonNumericIncrement(t *testing.T) {
	ctx := context.Background()
	g := NewGateway()
	c := g.Collection("lessons")
	_, err := g.InsertOne(ctx, c, domain.Document{"id": 1, "AvailableInventory": "five"})
	require.NoError(t, err)

	_, err = g.BulkWrite(ctx, c, []domain.UpdateOp{{
		Filter: domain.AllOf(domain.Eq("id", 1)),
		Inc:    map[string]int64{"AvailableInventory": -1},
	}})
	require.Error(t, err)
}

func TestGateway_RespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := NewGateway()
	_, err := g.Find(ctx, g.Collection("lessons"), domain.MatchAll())
	require.ErrorIs(t, err, context.Canceled)
}
