package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"time"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// FieldError is one rejected value, named by its YAML path.
type FieldError struct {
	Path    string
	Message string
}

func (e *FieldError) Error() string {
	return e.Path + ": " + e.Message
}

// Validator collects field errors. Validators returned by In share the
// collected errors and prefix their field names.
type Validator struct {
	prefix string
	errs   *[]error
}

// NewValidator creates an empty validator.
func NewValidator() *Validator {
	return &Validator{errs: new([]error)}
}

// In returns a validator for the nested section name.
func (v *Validator) In(name string) *Validator {
	return &Validator{prefix: v.path(name), errs: v.errs}
}

func (v *Validator) path(field string) string {
	if v.prefix == "" {
		return field
	}
	return v.prefix + "." + field
}

func (v *Validator) addf(field, format string, args ...any) *Validator {
	*v.errs = append(*v.errs, &FieldError{Path: v.path(field), Message: fmt.Sprintf(format, args...)})
	return v
}

func (v *Validator) NonEmpty(field, value string) *Validator {
	if value == "" {
		return v.addf(field, "must be set")
	}
	return v
}

func (v *Validator) Positive(field string, n int) *Validator {
	if n <= 0 {
		return v.addf(field, "must be positive, got %d", n)
	}
	return v
}

func (v *Validator) PositiveDuration(field string, d time.Duration) *Validator {
	if d <= 0 {
		return v.addf(field, "must be a positive duration, got %s", d)
	}
	return v
}

// IntRange checks lo <= n <= hi.
func (v *Validator) IntRange(field string, n, lo, hi int) *Validator {
	if n < lo || n > hi {
		return v.addf(field, "must be in [%d, %d], got %d", lo, hi, n)
	}
	return v
}

// FloatRange checks lo <= f <= hi.
func (v *Validator) FloatRange(field string, f, lo, hi float64) *Validator {
	if f < lo || f > hi {
		return v.addf(field, "must be in [%g, %g], got %g", lo, hi, f)
	}
	return v
}

func (v *Validator) OneOf(field, value string, allowed ...string) *Validator {
	if !slices.Contains(allowed, value) {
		return v.addf(field, "must be one of %q, got %q", allowed, value)
	}
	return v
}

func (v *Validator) Port(field string, port int) *Validator {
	return v.IntRange(field, port, 1, 65535)
}

// URI checks that raw parses with a host and one of schemes.
func (v *Validator) URI(field, raw string, schemes ...string) *Validator {
	if raw == "" {
		return v.addf(field, "must be set")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return v.addf(field, "invalid URL: %v", err)
	}
	if !slices.Contains(schemes, u.Scheme) || u.Host == "" {
		return v.addf(field, "must be a %q URL with a host, got %q", schemes, raw)
	}
	return v
}

// Errors returns the collected field errors.
func (v *Validator) Errors() []error {
	return slices.Clone(*v.errs)
}

// Err joins the collected errors under ErrInvalidConfig, or returns nil.
func (v *Validator) Err() error {
	if len(*v.errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(*v.errs...))
}

func (r RedisConfig) validate(v *Validator) {
	v.NonEmpty("addr", r.Addr).IntRange("db", r.DB, 0, 15).NonEmpty("prefix", r.Prefix)
}

func (p PostgresConfig) validate(v *Validator) {
	v.NonEmpty("host", p.Host).
		Port("port", p.Port).
		NonEmpty("user", p.User).
		NonEmpty("password", p.Password).
		NonEmpty("db_name", p.DBName).
		OneOf("ssl_mode", p.SSLMode, "disable", "require", "verify-ca", "verify-full")
}

func (m MongoConfig) validate(v *Validator) {
	v.URI("uri", m.URI, "mongodb", "mongodb+srv").NonEmpty("database", m.Database).NonEmpty("collection", m.Collection)
}

func (s SQLiteConfig) validate(v *Validator) {
	v.NonEmpty("path", s.Path).NonEmpty("table", s.Table)
}

func (s SourceConfig) validate(v *Validator) {
	v.OneOf("kind", s.Kind, "catalog", "http", "bulletin")
	if s.Kind == "http" || s.Kind == "bulletin" {
		v.URI("url", s.URL, "http", "https")
	}
}

func (g GenerationConfig) validate(v *Validator) {
	v.OneOf("provider", g.Provider, "none", "openai", "claude", "gemini", "groq", "cohere", "http")
	switch g.Provider {
	case "none":
		return
	case "http":
		v.URI("base_url", g.BaseURL, "http", "https")
	default:
		v.NonEmpty("api_key", g.APIKey).NonEmpty("model", g.Model)
		if g.BaseURL != "" {
			v.URI("base_url", g.BaseURL, "http", "https")
		}
	}
	v.FloatRange("temperature", g.Temperature, 0, 2).
		Positive("max_tokens", g.MaxTokens).
		PositiveDuration("timeout", g.Timeout)
}
