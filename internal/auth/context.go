package auth

import "context"

type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal returns a context with the given principal.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the principal from the context, or nil.
func PrincipalFromContext(ctx context.Context) *Principal {
	v := ctx.Value(principalKey)
	if v == nil {
		return nil
	}
	p, _ := v.(*Principal)
	return p
}
