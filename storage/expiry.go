package storage

import (
	"fmt"
	"time"
)

// neverDate is the far-future instant Never resolves to. It stays inside the
// range every mainstream filesystem can store as a modification time.
var neverDate = time.Unix(60*60*24*365*68, 0)

type expiryKind uint8

const (
	expiryNever expiryKind = iota
	expiryAfter
	expiryAt
)

// Expiry decides when a cached object goes stale. It is resolved to a
// concrete instant once, at write time; stores persist the instant, not the rule.
//
// The zero value is Never.
type Expiry struct {
	kind  expiryKind
	after time.Duration
	at    time.Time
}

// Never returns an expiry that resolves to a far-future sentinel instant.
func Never() Expiry { return Expiry{kind: expiryNever} }

// After returns an expiry that resolves to now+d at write time.
// Negative durations are allowed and produce an already-expired entry.
func After(d time.Duration) Expiry { return Expiry{kind: expiryAfter, after: d} }

// Seconds is After expressed in (possibly fractional) seconds.
func Seconds(n float64) Expiry { return After(time.Duration(n * float64(time.Second))) }

// At returns an expiry fixed to t.
func At(t time.Time) Expiry { return Expiry{kind: expiryAt, at: t} }

// Date resolves the expiry to an instant. After is evaluated against the
// current clock on every call, which is why stores call Date exactly once.
func (e Expiry) Date() time.Time {
	switch e.kind {
	case expiryAfter:
		return time.Now().Add(e.after)
	case expiryAt:
		return e.at
	default:
		return neverDate
	}
}

// IsExpired reports whether the resolved instant is in the past.
func (e Expiry) IsExpired() bool {
	return e.Date().Before(time.Now())
}

// Resolve pins the expiry to its current instant and returns it as At.
func (e Expiry) Resolve() Expiry {
	return At(e.Date())
}

// IsNever reports whether e is the Never rule.
func (e Expiry) IsNever() bool { return e.kind == expiryNever }

func (e Expiry) String() string {
	switch e.kind {
	case expiryAfter:
		return fmt.Sprintf("after(%s)", e.after)
	case expiryAt:
		return "at(" + e.at.Format(time.RFC3339Nano) + ")"
	default:
		return "never"
	}
}

// pick returns the first explicit expiry or the fallback.
func pick(fallback Expiry, explicit []Expiry) Expiry {
	if len(explicit) > 0 {
		return explicit[0]
	}
	return fallback
}
