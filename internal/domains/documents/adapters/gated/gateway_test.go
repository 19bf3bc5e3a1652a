package gated

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/school-activities-api/internal/domains/documents/adapters/memory"
	"github.com/Apurer/school-activities-api/internal/domains/documents/domain"
	"github.com/Apurer/school-activities-api/internal/domains/documents/ports"
)

func TestGateway_UninitializedRejectsEveryCall(t *testing.T) {
	g := New()
	ctx := context.Background()
	c := g.Collection("lessons")
	require.Equal(t, "lessons", c.Name())

	_, err := g.ParseID("65a1b2c3d4e5f60718293a4b")
	require.ErrorIs(t, err, ports.ErrUnavailable)
	_, err = g.Find(ctx, c, domain.MatchAll())
	require.ErrorIs(t, err, ports.ErrUnavailable)
	_, err = g.InsertOne(ctx, c, domain.Document{"title": "Art"})
	require.ErrorIs(t, err, ports.ErrUnavailable)
	_, err = g.BulkWrite(ctx, c, nil)
	require.ErrorIs(t, err, ports.ErrUnavailable)

	state, cause := g.State()
	require.Equal(t, StateUninitialized, state)
	require.NoError(t, cause)
	require.False(t, g.IsReady())
}

func TestGateway_ReadyForwardsToInner(t *testing.T) {
	g := New()
	g.Ready(memory.NewGateway())
	ctx := context.Background()
	c := g.Collection("messages")

	created, err := g.InsertOne(ctx, c, domain.Document{"text": "hi"})
	require.NoError(t, err)
	id, err := g.ParseID(created[domain.IDField].(string))
	require.NoError(t, err)

	found, err := g.FindOne(ctx, c, id)
	require.NoError(t, err)
	require.Equal(t, "hi", found["text"])
	require.True(t, g.IsReady())
}

func TestGateway_FailedKeepsCause(t *testing.T) {
	g := New()
	g.Ready(memory.NewGateway())
	g.Fail(errors.New("server selection timeout"))

	_, err := g.Find(context.Background(), g.Collection("lessons"), domain.MatchAll())
	require.ErrorIs(t, err, ports.ErrUnavailable)
	require.Contains(t, err.Error(), "failed")
	require.Contains(t, err.Error(), "server selection timeout")

	state, cause := g.State()
	require.Equal(t, StateFailed, state)
	require.EqualError(t, cause, "server selection timeout")
}
