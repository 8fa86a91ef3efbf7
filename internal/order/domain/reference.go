package domain

import "github.com/oklog/ulid/v2"

const ReferencePrefix = "order_"

// ReferenceGenerator produces provider-facing order references.
type ReferenceGenerator func() string

// NewExternalReference returns "order_" followed by a ULID: a millisecond timestamp plus
// 80 bits of monotonic randomness.
func NewExternalReference() string {
	return ReferencePrefix + ulid.Make().String()
}
