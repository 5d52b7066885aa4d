// Package di wires a shared cache configuration into any number of memoised
// functions. An application typically decides once where its cache lives and
// which codec and hasher to use; the container carries that decision so each
// function only supplies its name, signature, and target.
package di

import (
	"github.com/mtorpey/pypersist/keys"
	"github.com/mtorpey/pypersist/persist"
	"github.com/mtorpey/pypersist/store"
)

// Container holds the cache settings shared by every function it wraps.
type Container struct {
	base persist.Config
}

// NewContainer validates the shared settings once up front. The base
// config's Funcname and Signature are ignored; each Wrap call supplies its
// own.
func NewContainer(base persist.Config) (*Container, error) {
	addr := base.Cache
	if addr == "" {
		addr = persist.DefaultCache
	}
	if _, err := store.ParseAddress(addr); err != nil {
		return nil, err
	}
	return &Container{base: base}, nil
}

// NewContainerWithDefaults builds a container writing to the default file
// cache with the default codec and hasher.
func NewContainerWithDefaults() (*Container, error) {
	return NewContainer(persist.Config{})
}

// Config returns a copy of the shared configuration.
func (c *Container) Config() persist.Config {
	return c.base
}

// Wrap memoises target under funcname, combining the shared settings with
// the function's own signature.
func (c *Container) Wrap(funcname string, sig keys.Signature, target persist.Target) (*persist.Func, error) {
	cfg := c.base
	cfg.Funcname = funcname
	cfg.Signature = sig
	return persist.New(target, cfg)
}
