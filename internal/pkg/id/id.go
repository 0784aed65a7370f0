package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. Verification requests use it as an
// identity token: completing a request requires the stored id to still match.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
