// Package di provides a small dependency injection container with typed tokens.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry resolves registered services by key.
type ServiceRegistry interface {
	Get(key string) any
	Has(key string) bool
}

// Container is a ServiceRegistry that also accepts registrations.
type Container interface {
	ServiceRegistry
	Register(key string, value any)
	RegisterFactory(key string, factory func(ServiceRegistry) any)
}

type entry struct {
	once    sync.Once
	factory func(ServiceRegistry) any
	value   any
}

type container struct {
	mu       sync.RWMutex
	services map[string]*entry
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &container{
		services: make(map[string]*entry),
	}
}

// Register stores a ready-made value under key.
func (c *container) Register(key string, value any) {
	e := &entry{value: value}
	e.once.Do(func() {})

	c.mu.Lock()
	c.services[key] = e
	c.mu.Unlock()
}

// RegisterFactory stores a lazy singleton factory under key.
// The factory runs at most once, on first Get.
func (c *container) RegisterFactory(key string, factory func(ServiceRegistry) any) {
	c.mu.Lock()
	c.services[key] = &entry{factory: factory}
	c.mu.Unlock()
}

// Get resolves key, constructing the service on first use.
// It panics on unknown keys: a missing registration is a wiring bug.
func (c *container) Get(key string) any {
	c.mu.RLock()
	e, ok := c.services[key]
	c.mu.RUnlock()

	if !ok {
		panic(fmt.Sprintf("di: service %q not registered", key))
	}

	e.once.Do(func() {
		e.value = e.factory(c)
	})
	return e.value
}

// Has reports whether key is registered.
func (c *container) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.services[key]
	return ok
}
