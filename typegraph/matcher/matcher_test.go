package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/forge/typegraph"
)

func TestBasicMatchers(t *testing.T) {
	t.Run("Kind", func(t *testing.T) {
		m := Kind(typegraph.KindUnion)
		assert.True(t, m.Match(typegraph.UnionOf(typegraph.Primitive("string"))))
		assert.False(t, m.Match(typegraph.Primitive("string")))
		assert.False(t, m.Match(nil))
		assert.Equal(t, "kind(union)", m.Describe())
	})

	t.Run("Primitive unconstrained", func(t *testing.T) {
		m := Primitive()
		assert.True(t, m.Match(typegraph.Primitive("int")))
		assert.False(t, m.Match(typegraph.Object("User")))
		assert.Equal(t, "primitive", m.Describe())
	})

	t.Run("Primitive named", func(t *testing.T) {
		m := Primitive("string", "bool")
		assert.True(t, m.Match(typegraph.Primitive("bool")))
		assert.False(t, m.Match(typegraph.Primitive("int")))
		assert.Equal(t, "primitive(string|bool)", m.Describe())
	})

	t.Run("Object by name", func(t *testing.T) {
		assert.True(t, Object().Match(typegraph.Object("User")))
		assert.True(t, Object("User").Match(typegraph.Object("User")))
		assert.False(t, Object("User").Match(typegraph.Object("Group")))
	})

	t.Run("Array with element matcher", func(t *testing.T) {
		m := Array(Primitive("string"))
		assert.True(t, m.Match(typegraph.ArrayOf(typegraph.Primitive("string"))))
		assert.False(t, m.Match(typegraph.ArrayOf(typegraph.Primitive("int"))))
		assert.False(t, m.Match(typegraph.Primitive("string")))
		assert.Equal(t, "array(primitive(string))", m.Describe())
	})

	t.Run("Reference by name", func(t *testing.T) {
		m := Reference("User")
		assert.True(t, m.Match(typegraph.Reference("User")))
		assert.False(t, m.Match(typegraph.Reference("Group")))
	})

	t.Run("Func", func(t *testing.T) {
		m := Func("has-props", func(n *typegraph.TypeInfo) bool {
			return n != nil && len(n.Properties) > 0
		})
		assert.True(t, m.Match(typegraph.Object("U", typegraph.PropertyInfo{Name: "x"})))
		assert.False(t, m.Match(typegraph.Object("U")))
		assert.Equal(t, "has-props", m.Describe())
	})
}

func TestCombinators(t *testing.T) {
	str := typegraph.Primitive("string")

	t.Run("And", func(t *testing.T) {
		assert.True(t, And(Primitive(), Primitive("string")).Match(str))
		assert.False(t, And(Primitive(), Primitive("int")).Match(str))
		assert.True(t, And().Match(str))
	})

	t.Run("Or", func(t *testing.T) {
		assert.True(t, Or(Primitive("int"), Primitive("string")).Match(str))
		assert.False(t, Or(Primitive("int"), Primitive("bool")).Match(str))
		assert.False(t, Or().Match(str))
	})

	t.Run("Not", func(t *testing.T) {
		assert.False(t, Not(Primitive()).Match(str))
		assert.True(t, Not(Union()).Match(str))
	})

	t.Run("Describe composes", func(t *testing.T) {
		m := And(Object(), Not(Object("User")))
		assert.Equal(t, "and(object, not(object(User)))", m.Describe())
	})
}

func TestDeepSearch(t *testing.T) {
	// profile: { name: string, tags: string[], contact: { email: string } }
	profile := typegraph.Object("Profile",
		typegraph.PropertyInfo{Name: "name", Type: typegraph.Primitive("string")},
		typegraph.PropertyInfo{Name: "tags", Type: typegraph.ArrayOf(typegraph.Primitive("string"))},
		typegraph.PropertyInfo{Name: "contact", Type: typegraph.Object("",
			typegraph.PropertyInfo{Name: "email", Type: typegraph.Primitive("string")},
		)},
	)

	t.Run("ContainsDeep finds nested nodes", func(t *testing.T) {
		assert.True(t, ContainsDeep(profile, Primitive("string")))
		assert.False(t, ContainsDeep(profile, Primitive("int")))
	})

	t.Run("ContainsDeep matches the root itself", func(t *testing.T) {
		assert.True(t, ContainsDeep(profile, Object("Profile")))
	})

	t.Run("FindDeep reports duplicates per occurrence", func(t *testing.T) {
		got := FindDeep(profile, Primitive("string"))
		assert.Len(t, got, 3)
	})

	t.Run("FindDeep is pre-order", func(t *testing.T) {
		got := FindDeep(profile, Or(Object(), Primitive("string")))
		require.Len(t, got, 5)
		assert.Equal(t, "Profile", got[0].Name)
		assert.Equal(t, "string", got[1].Name)
	})

	t.Run("references are not followed", func(t *testing.T) {
		node := typegraph.Object("Node",
			typegraph.PropertyInfo{Name: "next", Type: typegraph.Reference("Node")},
		)
		got := FindDeep(node, Reference("Node"))
		assert.Len(t, got, 1)
		assert.False(t, ContainsDeep(node, Primitive("string")))
	})

	t.Run("unions and tuples are traversed", func(t *testing.T) {
		u := typegraph.UnionOf(
			typegraph.Primitive("string"),
			typegraph.TupleOf(typegraph.Primitive("int"), typegraph.Primitive("bool")),
		)
		assert.True(t, ContainsDeep(u, Primitive("bool")))
	})

	t.Run("nil root", func(t *testing.T) {
		assert.False(t, ContainsDeep(nil, Primitive()))
		assert.Empty(t, FindDeep(nil, Primitive()))
	})
}
