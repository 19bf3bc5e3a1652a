package application

import (
	"fmt"
	"strings"

	"github.com/Apurer/school-activities-api/internal/domains/documents/domain"
	"github.com/Apurer/school-activities-api/internal/domains/documents/ports"
)

// Resolver binds collection path segments to gateway handles. Without an
// allowlist every name resolves, system collections included.
type Resolver struct {
	gateway ports.Gateway
	allowed map[string]struct{}
}

// NewResolver builds a resolver; an empty allowlist leaves binding unrestricted.
func NewResolver(gateway ports.Gateway, allowlist ...string) *Resolver {
	r := &Resolver{gateway: gateway}
	for _, name := range allowlist {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if r.allowed == nil {
			r.allowed = map[string]struct{}{}
		}
		r.allowed[name] = struct{}{}
	}
	return r
}

// Resolve returns the handle for name.
func (r *Resolver) Resolve(name string) (domain.Collection, error) {
	if r.allowed != nil {
		if _, ok := r.allowed[name]; !ok {
			return domain.Collection{}, fmt.Errorf("%w: %q", ErrCollectionNotFound, name)
		}
	}
	return r.gateway.Collection(name), nil
}

// Restricted reports whether an allowlist is active.
func (r *Resolver) Restricted() bool {
	return r.allowed != nil
}
