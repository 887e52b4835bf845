package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New returns a time-ordered ULID. Dispatch ids use it to correlate the log
// lines and HTTP responses of a single dispatch.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// Valid reports whether s parses as a ULID.
func Valid(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}
