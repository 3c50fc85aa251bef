package auth

import "context"

type contextKey struct{}

// Identity is a verified caller as asserted by the external identity provider.
// It carries facts only; mapping it to a local user is the Resolver's job.
type Identity struct {
	Subject  string
	Email    string
	Name     string
	Username string
	Image    string
}

// WithIdentity attaches id to ctx. Only HTTP middleware should call this;
// services take the identity as an explicit argument.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// Caller returns the identity stored in ctx, or nil when the request is anonymous.
func Caller(ctx context.Context) *Identity {
	id, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	return &id
}
