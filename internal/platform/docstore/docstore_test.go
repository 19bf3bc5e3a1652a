package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/school-activities-api/internal/domains/documents/adapters/gated"
	docdomain "github.com/Apurer/school-activities-api/internal/domains/documents/domain"
	"github.com/Apurer/school-activities-api/internal/domains/documents/ports"
)

type stubSecrets struct {
	value string
	err   error
	asked []string
}

func (s *stubSecrets) Resolve(_ context.Context, name string) (string, error) {
	s.asked = append(s.asked, name)
	return s.value, s.err
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestOpen_WithoutURIUsesMemory(t *testing.T) {
	store := Open(context.Background(), Options{})
	t.Cleanup(store.Close)

	require.NoError(t, store.Wait(waitCtx(t)))
	require.True(t, store.IsReady())
	created, err := store.InsertOne(context.Background(), store.Collection("lessons"), docdomain.Document{"title": "Art"})
	require.NoError(t, err)
	require.NotEmpty(t, created[docdomain.IDField])
}

func TestOpen_SecretFailureFailsGate(t *testing.T) {
	secrets := &stubSecrets{err: errors.New("permission denied")}
	store := Open(context.Background(), Options{URISecret: "projects/p/secrets/mongo", Secrets: secrets})
	t.Cleanup(store.Close)

	require.Error(t, store.Wait(waitCtx(t)))
	state, _ := store.State()
	require.Equal(t, gated.StateFailed, state)
	require.Equal(t, []string{"projects/p/secrets/mongo"}, secrets.asked)

	_, err := store.Find(context.Background(), store.Collection("lessons"), docdomain.MatchAll())
	require.ErrorIs(t, err, ports.ErrUnavailable)
}

func TestOpen_SecretWithoutResolverFails(t *testing.T) {
	store := Open(context.Background(), Options{URISecret: "projects/p/secrets/mongo"})
	t.Cleanup(store.Close)

	require.Error(t, store.Wait(waitCtx(t)))
	require.False(t, store.IsReady())
}

func TestOpen_ExhaustedAttemptsFailGate(t *testing.T) {
	store := Open(context.Background(), Options{URI: "not-a-mongo-uri", ConnectAttempts: 1, Database: "test"})
	t.Cleanup(store.Close)

	require.Error(t, store.Wait(waitCtx(t)))
	require.False(t, store.IsReady())
}
