// Package checksum computes the integrity digest attached to every Result
// (§6): a rolling 32-bit hash over the final output bytes, rendered as a
// fixed-width hex string so two builds of the same output always compare
// equal textually.
package checksum

import "fmt"

// Sum computes h <- (h<<5) - h + b for every byte b of data, wrapping on
// 32-bit overflow, and renders the result as 16 hex characters (the low
// 32 bits zero-extended into a 64-bit field, matching the width other
// Result fields use for display).
func Sum(data []byte) string {
	var h uint32
	for _, b := range data {
		h = (h << 5) - h + uint32(b)
	}
	return fmt.Sprintf("%016x", uint64(h))
}
