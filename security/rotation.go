package security

import "time"

// KeyRotationWindow bounds the validity of a key version during rotation.
// A zero bound leaves that side of the window open.
type KeyRotationWindow struct {
	NotBefore time.Time
	NotAfter  time.Time
}

// Allows reports whether the key may encrypt or decrypt at the given time.
func (w KeyRotationWindow) Allows(at time.Time) bool {
	ts := at.UTC()
	if !w.NotBefore.IsZero() && ts.Before(w.NotBefore.UTC()) {
		return false
	}
	return w.NotAfter.IsZero() || !ts.After(w.NotAfter.UTC())
}
