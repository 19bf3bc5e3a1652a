// Package secrets resolves configuration values stored in Google Secret Manager.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

var errNotConfigured = errors.New("secret resolver not configured")

// Resolver reads secret payloads by resource name.
type Resolver struct {
	access func(ctx context.Context, name string) ([]byte, error)
	close  func() error
}

// NewResolver dials Secret Manager with application default credentials.
func NewResolver(ctx context.Context) (*Resolver, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("secretmanager.NewClient failed: %w", err)
	}
	return &Resolver{
		access: func(ctx context.Context, name string) ([]byte, error) {
			resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
			if err != nil {
				return nil, err
			}
			if resp == nil || resp.Payload == nil {
				return nil, nil
			}
			return resp.Payload.Data, nil
		},
		close: client.Close,
	}, nil
}

// NewResolverFunc builds a resolver around an arbitrary accessor.
func NewResolverFunc(access func(ctx context.Context, name string) ([]byte, error)) *Resolver {
	return &Resolver{access: access}
}

// Resolve returns the trimmed payload of name. A name without a version resolves
// the latest version.
func (r *Resolver) Resolve(ctx context.Context, name string) (string, error) {
	if r == nil || r.access == nil {
		return "", errNotConfigured
	}
	name = VersionName(name)
	if name == "" {
		return "", errors.New("secret name is empty")
	}
	data, err := r.access(ctx, name)
	if err != nil {
		return "", fmt.Errorf("AccessSecretVersion failed (%s): %w", name, err)
	}
	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", fmt.Errorf("empty payload (%s)", name)
	}
	return value, nil
}

// Close releases the underlying client.
func (r *Resolver) Close() error {
	if r == nil || r.close == nil {
		return nil
	}
	return r.close()
}

// VersionName appends /versions/latest when name does not pin a version.
func VersionName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, "/versions/") {
		return name
	}
	return name + "/versions/latest"
}
