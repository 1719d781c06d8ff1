package di

// Token is a typed key for a service of type T.
type Token[T any] struct {
	key string
}

// NewToken creates a token. By convention public tokens use "context.Name"
// and module-private tokens use "context:name".
func NewToken[T any](key string) Token[T] {
	return Token[T]{key: key}
}

// Key returns the registry key of the token.
func (t Token[T]) Key() string {
	return t.key
}

// RegisterToken registers a lazy factory for the token's type.
func RegisterToken[T any](c Container, t Token[T], factory func(ServiceRegistry) T) {
	c.RegisterFactory(t.key, func(sr ServiceRegistry) any {
		return factory(sr)
	})
}

// GetToken resolves the service registered for the token. A factory that
// produced a nil interface resolves to T's zero value.
func GetToken[T any](sr ServiceRegistry, t Token[T]) T {
	v := sr.Get(t.key)
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}
