package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyer_DeterministicForMaps(t *testing.T) {
	keyer := NewDefaultKeyer()

	key1, err := keyer.Key("account", map[string]any{"b": 2, "a": 1, "c": 3})
	require.NoError(t, err)
	key2, err := keyer.Key("account", map[string]any{"c": 3, "a": 1, "b": 2})
	require.NoError(t, err)

	assert.Equal(t, key1, key2)
}

func TestKeyer_Format(t *testing.T) {
	key, err := NewDefaultKeyer().Key("account", "user-1")
	require.NoError(t, err)

	parts := strings.Split(key, ":")
	require.Len(t, parts, 3)
	assert.Equal(t, "fanout", parts[0])
	assert.Equal(t, "account", parts[1])
	assert.Len(t, parts[2], 16)
}

func TestKeyer_DistinguishesArguments(t *testing.T) {
	keyer := &DefaultKeyer{Prefix: "test"}

	a, err := keyer.Key("account", "user-1")
	require.NoError(t, err)
	b, err := keyer.Key("account", "user-2")
	require.NoError(t, err)
	c, err := keyer.Key("payment", "user-1")
	require.NoError(t, err)
	d, err := keyer.Key("account", []any{1, 2})
	require.NoError(t, err)
	e, err := keyer.Key("account", []any{2, 1})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, d, e)
	assert.True(t, strings.HasPrefix(a, "test:account:"))
}

func TestKeyer_EmptyPrefixFallsBack(t *testing.T) {
	key, err := (&DefaultKeyer{}).Key("ns")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "fanout:ns:"))
}
