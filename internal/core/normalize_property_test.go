package core

import (
	"testing"

	"pgregory.net/rapid"
)

// Property: Normalize is idempotent; a second application changes nothing.
func TestProperty_NormalizeIdempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := rapid.String().Draw(rt, "s")
		once := Normalize(s)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize not idempotent: %q -> %q -> %q", s, once, twice)
		}
	})
}

// Property: strings without mapped characters pass through unchanged.
func TestProperty_NormalizeASCIIIdentity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := rapid.StringMatching(`[ -~]*`).Draw(rt, "s")
		if got := Normalize(s); got != s {
			t.Fatalf("ASCII input changed: %q -> %q", s, got)
		}
	})
}
