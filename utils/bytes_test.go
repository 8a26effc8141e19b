package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinBytes(t *testing.T) {
	t.Run("count byte, header and payload", func(t *testing.T) {
		got := JoinBytes([]byte{1}, []byte{0, 0, 0, 0, 0, 1, 0, 1}, []byte{0xCD, 0xAB})
		assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 1, 0, 1, 0xCD, 0xAB}, got)
	})

	t.Run("empty and nil parts are skipped", func(t *testing.T) {
		got := JoinBytes(nil, []byte{}, []byte("a"), nil)
		assert.Equal(t, []byte("a"), got)
	})

	t.Run("result does not alias inputs", func(t *testing.T) {
		part := []byte{1, 2}
		got := JoinBytes(part)
		got[0] = 9
		assert.Equal(t, byte(1), part[0])
	})

	t.Run("no args returns empty", func(t *testing.T) {
		assert.Empty(t, JoinBytes())
	})
}
