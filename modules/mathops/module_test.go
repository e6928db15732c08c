package mathops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/exprgrid/internal/operator"
	"github.com/vk/exprgrid/internal/registry"
)

func TestIncrement(t *testing.T) {
	v, err := Increment(operator.Args{"seed": 5})
	require.NoError(t, err)
	assert.Equal(t, 6, v)

	v, err = Increment(operator.Args{"seed": float64(5)})
	require.NoError(t, err)
	assert.Equal(t, 6, v, "configuration loaders may hand over floats")

	_, err = Increment(operator.Args{"seed": "five"})
	assert.ErrorContains(t, err, "expected an integer")
}

func TestDescribe(t *testing.T) {
	v, err := Describe(operator.Args{"value": 6})
	require.NoError(t, err)
	assert.Equal(t, "value: 6", v)

	v, err = Describe(operator.Args{"value": 6, "prefix": "total"})
	require.NoError(t, err)
	assert.Equal(t, "total: 6", v)
}

func TestRegister(t *testing.T) {
	r := registry.New()
	(&Module{}).Register(r)

	// Registering twice must trip the duplicate-name guard.
	assert.Panics(t, func() { (&Module{}).Register(r) })
}
