// Package hash derives the 64-bit column identifiers stored in blob index
// entries.
package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of the given field name.
func ID(fieldName string) uint64 {
	return xxhash.Sum64String(fieldName)
}
