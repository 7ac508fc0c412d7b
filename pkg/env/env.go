// Package env reads typed values from environment variables with defaults.
package env

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// String returns the value of key or def when unset or empty.
func String(key, def string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return def
}

// Int returns the integer value of key or def when unset or unparsable.
func Int(key string, def int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return def
}

// Float returns the float value of key or def when unset or unparsable.
func Float(key string, def float64) float64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	}
	return def
}

// Bool accepts 1/0, true/false, yes/no and on/off.
func Bool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

// Duration returns the duration value of key (time.ParseDuration syntax) or def.
func Duration(key string, def time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return def
}

// List splits a comma separated value, dropping empty items.
func List(key string, def []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
