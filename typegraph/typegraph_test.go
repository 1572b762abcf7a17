package typegraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	t.Run("primitive", func(t *testing.T) {
		n := Primitive("string")
		assert.Equal(t, KindPrimitive, n.Kind)
		assert.Equal(t, "string", n.Name)
	})

	t.Run("object keeps property order", func(t *testing.T) {
		n := Object("User",
			PropertyInfo{Name: "id", Type: Primitive("string")},
			PropertyInfo{Name: "age", Type: Primitive("int"), Optional: true},
		)
		require.Len(t, n.Properties, 2)
		assert.Equal(t, "id", n.Properties[0].Name)
		assert.Equal(t, "age", n.Properties[1].Name)
		assert.True(t, n.Properties[1].Optional)
	})

	t.Run("array", func(t *testing.T) {
		n := ArrayOf(Primitive("int"))
		assert.Equal(t, KindArray, n.Kind)
		require.NotNil(t, n.Elem)
		assert.Equal(t, "int", n.Elem.Name)
	})

	t.Run("union keeps member order", func(t *testing.T) {
		n := UnionOf(Primitive("string"), Primitive("int"))
		require.Len(t, n.Members, 2)
		assert.Equal(t, "string", n.Members[0].Name)
	})

	t.Run("reference with arguments", func(t *testing.T) {
		n := Reference("Box", Primitive("string"))
		assert.Equal(t, KindReference, n.Kind)
		assert.Equal(t, "Box", n.Name)
		require.Len(t, n.TypeArguments, 1)
	})

	t.Run("enum", func(t *testing.T) {
		n := Enum("Color", EnumMember{Name: "Red", Value: "red"})
		assert.Equal(t, KindEnum, n.Kind)
		require.Len(t, n.EnumMembers, 1)
		assert.Equal(t, "red", n.EnumMembers[0].Value)
	})
}

func TestPredicates(t *testing.T) {
	t.Run("IsObject", func(t *testing.T) {
		assert.True(t, Object("User").IsObject())
		assert.False(t, Primitive("string").IsObject())
		assert.False(t, (*TypeInfo)(nil).IsObject())
	})

	t.Run("IsPrimitive without names matches any primitive", func(t *testing.T) {
		assert.True(t, Primitive("int").IsPrimitive())
		assert.False(t, Object("User").IsPrimitive())
	})

	t.Run("IsPrimitive with names", func(t *testing.T) {
		n := Primitive("string")
		assert.True(t, n.IsPrimitive("int", "string"))
		assert.False(t, n.IsPrimitive("int", "bool"))
	})

	t.Run("IsComposite", func(t *testing.T) {
		assert.True(t, UnionOf(Primitive("string")).IsComposite())
		assert.True(t, IntersectionOf(Object("A")).IsComposite())
		assert.False(t, Primitive("string").IsComposite())
	})

	t.Run("Property lookup", func(t *testing.T) {
		n := Object("User", PropertyInfo{Name: "id", Type: Primitive("string")})
		p := n.Property("id")
		require.NotNil(t, p)
		assert.Equal(t, "string", p.Type.Name)
		assert.Nil(t, n.Property("missing"))
	})
}

func TestString(t *testing.T) {
	tests := []struct {
		name string
		node *TypeInfo
		want string
	}{
		{"primitive", Primitive("string"), "string"},
		{"named object", Object("User"), "User"},
		{"array", ArrayOf(Primitive("int")), "int[]"},
		{"nested array", ArrayOf(ArrayOf(Primitive("int"))), "int[][]"},
		{"union", UnionOf(Primitive("string"), Primitive("int")), "string | int"},
		{"intersection", IntersectionOf(Object("A"), Object("B")), "A & B"},
		{"reference", Reference("User"), "User"},
		{"generic reference", Reference("Box", Primitive("string")), "Box<string>"},
		{"string literal", Literal("on"), `"on"`},
		{"bool literal", Literal(true), "true"},
		{"unknown", Unknown(), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.node.String())
		})
	}
}

func TestInstanceName(t *testing.T) {
	assert.Equal(t, "User", InstanceName("User", nil))
	assert.Equal(t, "Box<string>", InstanceName("Box", []*TypeInfo{Primitive("string")}))
	assert.Equal(t, "Pair<string, int>", InstanceName("Pair", []*TypeInfo{Primitive("string"), Primitive("int")}))
}

func TestResolvedType(t *testing.T) {
	t.Run("Add preserves first-touch order", func(t *testing.T) {
		rt := NewResolvedType()
		rt.Add("A", Object("A"))
		rt.Add("B", Object("B"))
		rt.Add("A", Object("A"))

		assert.Equal(t, []string{"A", "B"}, rt.Order)
		assert.Len(t, rt.Closure, 2)
	})

	t.Run("Lookup", func(t *testing.T) {
		rt := NewResolvedType()
		obj := Object("A")
		rt.Add("A", obj)

		got, ok := rt.Lookup("A")
		require.True(t, ok)
		assert.Same(t, obj, got)

		_, ok = rt.Lookup("B")
		assert.False(t, ok)
	})

	t.Run("Deref follows references into the closure", func(t *testing.T) {
		rt := NewResolvedType()
		obj := Object("User")
		rt.Add("User", obj)

		assert.Same(t, obj, rt.Deref(Reference("User")))
	})

	t.Run("Deref returns non-references unchanged", func(t *testing.T) {
		rt := NewResolvedType()
		p := Primitive("string")
		assert.Same(t, p, rt.Deref(p))
	})

	t.Run("Deref of unresolvable reference returns the reference", func(t *testing.T) {
		rt := NewResolvedType()
		ref := Reference("Missing")
		assert.Same(t, ref, rt.Deref(ref))
	})
}
