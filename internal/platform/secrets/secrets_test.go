package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionName(t *testing.T) {
	require.Equal(t, "projects/p/secrets/mongo/versions/latest", VersionName(" projects/p/secrets/mongo "))
	require.Equal(t, "projects/p/secrets/mongo/versions/3", VersionName("projects/p/secrets/mongo/versions/3"))
	require.Empty(t, VersionName(""))
}

func TestResolve_TrimsPayload(t *testing.T) {
	var requested string
	r := NewResolverFunc(func(_ context.Context, name string) ([]byte, error) {
		requested = name
		return []byte("mongodb://db:27017\n"), nil
	})

	value, err := r.Resolve(context.Background(), "projects/p/secrets/mongo")
	require.NoError(t, err)
	require.Equal(t, "mongodb://db:27017", value)
	require.Equal(t, "projects/p/secrets/mongo/versions/latest", requested)
}

func TestResolve_Failures(t *testing.T) {
	r := NewResolverFunc(func(context.Context, string) ([]byte, error) {
		return nil, errors.New("permission denied")
	})
	_, err := r.Resolve(context.Background(), "projects/p/secrets/mongo")
	require.ErrorContains(t, err, "permission denied")

	empty := NewResolverFunc(func(context.Context, string) ([]byte, error) { return []byte("  "), nil })
	_, err = empty.Resolve(context.Background(), "projects/p/secrets/mongo")
	require.ErrorContains(t, err, "empty payload")

	var unset *Resolver
	_, err = unset.Resolve(context.Background(), "x")
	require.Error(t, err)
	require.NoError(t, unset.Close())
}
