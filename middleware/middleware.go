// Package middleware wraps each Advise call in a chain of handlers that can
// inspect or reject the request and post-process the response.
package middleware

import (
	"context"

	"github.com/sweetpotato0/agri-advisor/answer"
)

// Context is the state of one Advise call as it passes through the chain.
type Context struct {
	Query    string
	Language string // caller's hint, possibly empty

	// RequestID is assigned by the request ID enricher unless the caller
	// set one.
	RequestID string

	// Response is nil until the final handler runs.
	Response *answer.Response

	ctx context.Context
}

func NewContext(ctx context.Context, query, language string) *Context {
	return &Context{Query: query, Language: language, ctx: ctx}
}

// Context returns the request's context.Context.
func (c *Context) Context() context.Context {
	return c.ctx
}

// SetContext replaces the request's context.Context; nil is ignored.
func (c *Context) SetContext(ctx context.Context) {
	if ctx != nil {
		c.ctx = ctx
	}
}

// Handler continues processing of c.
type Handler func(c *Context) error

// Middleware is one link of a Chain. Execute must call next to continue
// and may act on c.Response after it returns.
type Middleware interface {
	Name() string
	Execute(c *Context, next Handler) error
}

// Chain runs middlewares in the order they were added.
type Chain struct {
	links []Middleware
}

func NewChain(links ...Middleware) *Chain {
	return &Chain{links: links}
}

// Add appends m and returns the chain.
func (ch *Chain) Add(m Middleware) *Chain {
	ch.links = append(ch.links, m)
	return ch
}

// Names lists the middlewares in execution order.
func (ch *Chain) Names() []string {
	names := make([]string, 0, len(ch.links))
	for _, m := range ch.links {
		names = append(names, m.Name())
	}
	return names
}

// Execute runs c through every middleware and then final.
func (ch *Chain) Execute(c *Context, final Handler) error {
	h := final
	for i := len(ch.links) - 1; i >= 0; i-- {
		m, next := ch.links[i], h
		h = func(c *Context) error { return m.Execute(c, next) }
	}
	return h(c)
}

type requestIDKey struct{}

// WithRequestID stores id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request ID stored in ctx, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
