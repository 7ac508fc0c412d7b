// Package enricher tags requests before the rest of the chain sees them.
package enricher

import (
	"github.com/google/uuid"
	"github.com/sweetpotato0/agri-advisor/middleware"
)

// RequestID assigns a request ID unless the caller supplied one and makes
// it available through middleware.RequestIDFrom.
type RequestID struct {
	NewID func() string
}

// NewRequestID issues random UUIDs.
func NewRequestID() *RequestID {
	return &RequestID{NewID: uuid.NewString}
}

func (*RequestID) Name() string { return "request_id" }

func (m *RequestID) Execute(c *middleware.Context, next middleware.Handler) error {
	if c.RequestID == "" {
		c.RequestID = m.NewID()
	}
	c.SetContext(middleware.WithRequestID(c.Context(), c.RequestID))
	return next(c)
}
