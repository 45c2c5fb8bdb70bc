package envconfig

import (
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Get returns the value of the requested environment variable or the supplied fallback when empty.
func Get(name string, fallback string) string {
	if value, ok := os.LookupEnv(name); ok && value != "" {
		return value
	}
	return fallback
}

// Duration parses a Go duration from the environment, falling back when unset or invalid.
func Duration(name string, fallback time.Duration) time.Duration {
	raw := Get(name, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

// Float parses a float from the environment, falling back when unset or invalid.
func Float(name string, fallback float64) float64 {
	raw := Get(name, "")
	if raw == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return f
}

// Validate validates a struct using validator tags.
func Validate(v any) error {
	return validate.Struct(v)
}
