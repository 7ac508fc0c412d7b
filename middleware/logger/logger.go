// Package logger writes one access log line per Advise call. Question text
// is never logged, only its length.
package logger

import (
	"log/slog"
	"time"

	"github.com/sweetpotato0/agri-advisor/middleware"
	"github.com/sweetpotato0/agri-advisor/pkg/logging"
)

// DefaultSlow is the duration above which a call is logged as slow.
const DefaultSlow = 5 * time.Second

// Access logs the start of a call at debug level and its outcome once the
// rest of the chain returns.
type Access struct {
	Logger *slog.Logger
	Slow   time.Duration
	now    func() time.Time
}

// NewAccess uses the "middleware" component logger when l is nil.
func NewAccess(l *slog.Logger) *Access {
	if l == nil {
		l = logging.WithComponent("middleware")
	}
	return &Access{Logger: l, Slow: DefaultSlow, now: time.Now}
}

func (*Access) Name() string { return "access_log" }

func (m *Access) Execute(c *middleware.Context, next middleware.Handler) error {
	start := m.now()
	m.Logger.Debug("advise started",
		"request_id", c.RequestID,
		"language", c.Language,
		"query_chars", len([]rune(c.Query)),
	)

	err := next(c)
	took := m.now().Sub(start)
	attrs := []any{"request_id", c.RequestID, "duration", took}
	if err != nil {
		m.Logger.Warn("advise failed", append(attrs, "error", err)...)
		return err
	}
	if r := c.Response; r != nil {
		attrs = append(attrs,
			"language", r.Language,
			"origin", r.Origin,
			"confidence", r.Confidence,
			"basis", r.FactualBasis,
			"sources", len(r.Sources),
			"disclaimers", len(r.Disclaimers),
		)
	}
	if m.Slow > 0 && took > m.Slow {
		m.Logger.Warn("advise slow", attrs...)
		return nil
	}
	m.Logger.Info("advise done", attrs...)
	return nil
}
