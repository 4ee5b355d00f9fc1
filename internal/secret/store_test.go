package secret

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	key := TargetKey("t1")
	assert.Equal(t, "publish-target:t1", key)

	v, err := s.Get(key)
	require.NoError(t, err)
	assert.Empty(t, v)

	buf := []byte("pw")
	require.NoError(t, s.Set(key, buf))
	buf[0] = 'x'
	v, err = s.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "pw", string(v))

	require.NoError(t, s.Delete(key))
	v, _ = s.Get(key)
	assert.Empty(t, v)
}
