package storage

import (
	"fmt"
	"strings"
	"time"
)

// ParseExpiry reads the textual expiry forms used in configuration files:
// "never" (or empty), a Go duration such as "90s" or "12h", or an RFC 3339 instant.
func ParseExpiry(s string) (Expiry, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "never") {
		return Never(), nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return After(d), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return At(t), nil
	}
	return Expiry{}, fmt.Errorf("%w: expiry %q is not never, a duration or an RFC 3339 time", ErrInvalidConfig, s)
}

// MarshalText renders e in the form ParseExpiry accepts.
func (e Expiry) MarshalText() ([]byte, error) {
	switch e.kind {
	case expiryAfter:
		return []byte(e.after.String()), nil
	case expiryAt:
		return []byte(e.at.Format(time.RFC3339)), nil
	default:
		return []byte("never"), nil
	}
}

// UnmarshalText implements encoding.TextUnmarshaler via ParseExpiry.
func (e *Expiry) UnmarshalText(b []byte) error {
	v, err := ParseExpiry(string(b))
	if err != nil {
		return err
	}
	*e = v
	return nil
}
