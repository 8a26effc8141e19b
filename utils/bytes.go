// Package utils holds small helpers shared by the wire encoders.
package utils

// JoinBytes concatenates the given byte slices into a single new slice.
//
// Parameters:
//   - s: Zero or more byte slices to concatenate
//
// Returns:
//   - A new byte slice containing all input slices in order
func JoinBytes(s ...[]byte) []byte {
	n := 0
	for _, v := range s {
		n += len(v)
	}

	b, i := make([]byte, n), 0
	for _, v := range s {
		i += copy(b[i:], v)
	}

	return b
}
