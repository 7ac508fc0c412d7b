// Package errorhandler turns failures further down the chain into
// responses or typed errors.
package errorhandler

import (
	"fmt"
	"runtime/debug"

	"github.com/sweetpotato0/agri-advisor/errors"
	"github.com/sweetpotato0/agri-advisor/middleware"
	"github.com/sweetpotato0/agri-advisor/pkg/logging"
)

// Converter hands any error from the rest of the chain to Convert, which
// may set c.Response and return nil to recover.
type Converter struct {
	Convert func(c *middleware.Context, err error) error
}

func NewConverter(convert func(*middleware.Context, error) error) *Converter {
	return &Converter{Convert: convert}
}

func (*Converter) Name() string { return "error_converter" }

func (m *Converter) Execute(c *middleware.Context, next middleware.Handler) error {
	err := next(c)
	if err == nil || m.Convert == nil {
		return err
	}
	return m.Convert(c, err)
}

// Recovery turns a panic further down the chain into ErrInternal.
type Recovery struct{}

func NewRecovery() Recovery { return Recovery{} }

func (Recovery) Name() string { return "recovery" }

func (Recovery) Execute(c *middleware.Context, next middleware.Handler) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		logging.WithComponent("middleware").Error("advise chain panicked",
			"request_id", c.RequestID, "panic", r, "stack", string(debug.Stack()))
		err = fmt.Errorf("recovered panic %v: %w", r, errors.ErrInternal)
	}()
	return next(c)
}
