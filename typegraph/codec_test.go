package typegraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestSnapshotRoundTrip(t *testing.T) {
	rt := NewResolvedType()
	user := Object("User",
		PropertyInfo{Name: "id", Type: Primitive("string")},
		PropertyInfo{Name: "friends", Type: ArrayOf(Reference("User")), Optional: true},
	)
	rt.Add("User", user)
	rt.Root = user

	data, err := EncodeSnapshot(rt)
	require.NoError(t, err)

	got, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, rt.Order, got.Order)
	require.Contains(t, got.Closure, "User")
	assert.Equal(t, "User", got.Root.Name)
	require.Len(t, got.Root.Properties, 2)
	assert.Equal(t, KindArray, got.Root.Properties[1].Type.Kind)
	assert.Equal(t, KindReference, got.Root.Properties[1].Type.Elem.Kind)
}

func TestSnapshotNilGraph(t *testing.T) {
	_, err := EncodeSnapshot(nil)
	assert.Error(t, err)
}

func TestSnapshotVersionGuard(t *testing.T) {
	data, err := msgpack.Marshal(snapshot{Version: 99, Graph: NewResolvedType()})
	require.NoError(t, err)

	_, err = DecodeSnapshot(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version 99")
}

func TestSnapshotGarbage(t *testing.T) {
	_, err := DecodeSnapshot([]byte("not msgpack"))
	assert.Error(t, err)
}
