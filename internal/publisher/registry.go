package publisher

import (
	"fmt"
	"net/url"
	"strings"
)

// Registry maps hostnames to handlers. Handlers are matched in insertion order.
type Registry struct {
	handlers []*Handler
	fallback *Handler
}

// NewRegistry builds an empty registry that resolves everything to fallback.
func NewRegistry(fallback *Handler) *Registry {
	if fallback == nil {
		fallback = Generic()
	}
	return &Registry{fallback: fallback}
}

// DefaultRegistry returns a registry with every builtin publisher and the generic fallback.
func DefaultRegistry() *Registry {
	reg := NewRegistry(Generic())
	for _, h := range Builtin() {
		reg.Register(h)
	}
	return reg
}

// Register adds a handler or replaces one of the same kind, keeping its position.
func (r *Registry) Register(h *Handler) {
	if h == nil {
		return
	}
	for i, existing := range r.handlers {
		if existing.Kind == h.Kind {
			r.handlers[i] = h
			return
		}
	}
	r.handlers = append(r.handlers, h)
}

// Resolve returns the first handler with an alias contained in hostname, or the fallback.
func (r *Registry) Resolve(hostname string) *Handler {
	host := strings.ToLower(strings.TrimSpace(hostname))
	if host == "" {
		return r.fallback
	}
	for _, h := range r.handlers {
		for _, alias := range h.Aliases {
			if alias != "" && strings.Contains(host, alias) {
				return h
			}
		}
	}
	return r.fallback
}

// ResolveURL resolves by the host of rawURL.
func (r *Registry) ResolveURL(rawURL string) *Handler {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return r.fallback
	}
	return r.Resolve(u.Hostname())
}

// Lookup returns the handler registered for kind.
func (r *Registry) Lookup(kind Kind) (*Handler, error) {
	if kind == r.fallback.Kind {
		return r.fallback, nil
	}
	for _, h := range r.handlers {
		if h.Kind == kind {
			return h, nil
		}
	}
	return nil, fmt.Errorf("handler %s is not registered", kind)
}

// Handlers returns the registered handlers in match order.
func (r *Registry) Handlers() []*Handler {
	out := make([]*Handler, len(r.handlers))
	copy(out, r.handlers)
	return out
}
