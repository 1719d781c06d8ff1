package di_test

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/tokensale-client/internal/di"
)

type greeter struct{ name string }

func TestContainer_TokenFactoryRunsOnce(t *testing.T) {
	c := di.NewContainer()
	c.Register("name", "sepolia")

	var calls atomic.Int32
	tok := di.NewToken[*greeter]("test.Greeter")
	di.RegisterToken(c, tok, func(sr di.ServiceRegistry) *greeter {
		calls.Add(1)
		return &greeter{name: sr.Get("name").(string)}
	})

	var wg sync.WaitGroup
	results := make([]*greeter, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = di.GetToken(c, tok)
		}(i)
	}
	wg.Wait()

	require.Equal(t, int32(1), calls.Load())
	for _, g := range results {
		assert.Same(t, results[0], g)
	}
	assert.Equal(t, "sepolia", results[0].name)
}

func TestContainer_UnknownKeyPanics(t *testing.T) {
	c := di.NewContainer()
	assert.False(t, c.Has("missing"))
	assert.Panics(t, func() { c.Get("missing") })
}

func TestGetToken_NilInterfaceResolvesToZero(t *testing.T) {
	c := di.NewContainer()
	tok := di.NewToken[fmt.Stringer]("test:stringer")
	di.RegisterToken(c, tok, func(di.ServiceRegistry) fmt.Stringer { return nil })

	assert.Nil(t, di.GetToken(c, tok))
}
