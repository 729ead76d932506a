package project

import "github.com/oklog/ulid/v2"

// NewID returns a new 26-char ULID project id. Clients may also supply their
// own id on create; uniqueness is enforced by the primary key.
func NewID() string {
	return ulid.Make().String()
}
