package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/forge/compiler/load"
	"github.com/syssam/forge/plugin"
	"github.com/syssam/forge/typegraph"
	"github.com/syssam/forge/typegraph/matcher"
)

func sourceOf(t *testing.T, schema string) *load.YAMLSource {
	t.Helper()
	src := load.NewYAMLSource()
	require.NoError(t, src.AddFile("schema.yaml", []byte(schema)))
	return src
}

func TestResolveSimpleObject(t *testing.T) {
	src := sourceOf(t, `
types:
  - name: User
    members:
      - name: id
        type: string
      - name: age
        type: int
        optional: true
      - name: tags
        type: {array: string}
`)
	r := New(src)
	rt, err := r.Resolve("schema.yaml", "User")
	require.NoError(t, err)

	require.NotNil(t, rt.Root)
	assert.True(t, rt.Root.IsObject())
	assert.Equal(t, "User", rt.Root.Name)
	require.Len(t, rt.Root.Properties, 3)

	assert.Equal(t, "string", rt.Root.Properties[0].Type.Name)
	assert.True(t, rt.Root.Properties[1].Optional)
	assert.Equal(t, typegraph.KindArray, rt.Root.Properties[2].Type.Kind)

	require.Equal(t, []string{"User"}, rt.Order)
	node, ok := rt.Lookup("User")
	require.True(t, ok)
	assert.Same(t, rt.Root, node)
}

func TestResolveIdempotent(t *testing.T) {
	src := sourceOf(t, `
types:
  - name: User
    members:
      - name: id
        type: string
`)
	r := New(src)
	first, err := r.Resolve("schema.yaml", "User")
	require.NoError(t, err)
	second, err := r.Resolve("schema.yaml", "User")
	require.NoError(t, err)

	assert.Equal(t, first, second, "repeated resolution yields structurally equal graphs")
}

func TestResolveWithCache(t *testing.T) {
	src := sourceOf(t, `
types:
  - name: User
    members:
      - name: id
        type: string
`)
	cache := NewCache()
	r := New(src, WithCache(cache))

	first, err := r.Resolve("schema.yaml", "User")
	require.NoError(t, err)
	second, err := r.Resolve("schema.yaml", "User")
	require.NoError(t, err)

	assert.Same(t, first, second, "cache hit returns the stored graph")
	assert.Equal(t, 1, cache.Len())
}

func TestResolveDependencyClosure(t *testing.T) {
	src := sourceOf(t, `
types:
  - name: User
    members:
      - name: address
        type: Address
  - name: Address
    members:
      - name: city
        type: string
`)
	rt, err := New(src).Resolve("schema.yaml", "User")
	require.NoError(t, err)

	// Dependencies complete before their dependents.
	assert.Equal(t, []string{"Address", "User"}, rt.Order)

	prop := rt.Root.Property("address")
	require.NotNil(t, prop)
	assert.Equal(t, typegraph.KindReference, prop.Type.Kind)

	target := rt.Deref(prop.Type)
	assert.True(t, target.IsObject())
	assert.Equal(t, "Address", target.Name)
}

func TestResolveSelfReference(t *testing.T) {
	src := sourceOf(t, `
types:
  - name: Node
    members:
      - name: value
        type: string
      - name: next
        type: Node
        optional: true
`)
	rt, err := New(src).Resolve("schema.yaml", "Node")
	require.NoError(t, err)

	assert.Equal(t, []string{"Node"}, rt.Order, "a self-referential type appears once in the closure")

	next := rt.Root.Property("next")
	require.NotNil(t, next)
	assert.Equal(t, typegraph.KindReference, next.Type.Kind)
	assert.Equal(t, "Node", next.Type.Name)
	assert.Same(t, rt.Root, rt.Deref(next.Type))
}

func TestResolveMutualRecursion(t *testing.T) {
	src := sourceOf(t, `
types:
  - name: Author
    members:
      - name: books
        type: {array: Book}
  - name: Book
    members:
      - name: author
        type: Author
`)
	rt, err := New(src).Resolve("schema.yaml", "Author")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"Author", "Book"}, rt.Order)

	book, ok := rt.Lookup("Book")
	require.True(t, ok)
	back := book.Property("author")
	require.NotNil(t, back)
	assert.Equal(t, typegraph.KindReference, back.Type.Kind)
	assert.Same(t, rt.Root, rt.Deref(back.Type))
}

func TestResolveGenericSubstitution(t *testing.T) {
	src := sourceOf(t, `
types:
  - name: Box
    params:
      - name: T
    members:
      - name: value
        type: T
      - name: values
        type: {array: T}
`)
	r := New(src)

	t.Run("instantiated", func(t *testing.T) {
		rt, err := r.Resolve("schema.yaml", "Box", typegraph.Primitive("string"))
		require.NoError(t, err)

		assert.Equal(t, []string{"Box<string>"}, rt.Order)
		v := rt.Root.Property("value")
		require.NotNil(t, v)
		assert.True(t, v.Type.IsPrimitive("string"))

		vs := rt.Root.Property("values")
		require.NotNil(t, vs)
		assert.True(t, vs.Type.Elem.IsPrimitive("string"))
	})

	t.Run("distinct instantiations get distinct keys", func(t *testing.T) {
		s, err := r.Resolve("schema.yaml", "Box", typegraph.Primitive("string"))
		require.NoError(t, err)
		i, err := r.Resolve("schema.yaml", "Box", typegraph.Primitive("int"))
		require.NoError(t, err)

		assert.Equal(t, []string{"Box<string>"}, s.Order)
		assert.Equal(t, []string{"Box<int>"}, i.Order)
		assert.True(t, i.Root.Property("value").Type.IsPrimitive("int"))
	})

	t.Run("open generic keeps parameter nodes", func(t *testing.T) {
		rt, err := r.Resolve("schema.yaml", "Box")
		require.NoError(t, err)

		require.Len(t, rt.Root.GenericParams, 1)
		assert.Equal(t, "T", rt.Root.GenericParams[0].Name)
		assert.Equal(t, typegraph.KindGeneric, rt.Root.Property("value").Type.Kind)
	})
}

func TestResolveGenericConstraintsAndDefaults(t *testing.T) {
	src := sourceOf(t, `
types:
  - name: Box
    params:
      - name: T
        constraint: {union: [string, int]}
        default: string
    members:
      - name: value
        type: T
`)
	r := New(src)

	t.Run("satisfying argument", func(t *testing.T) {
		rt, err := r.Resolve("schema.yaml", "Box", typegraph.Primitive("int"))
		require.NoError(t, err)
		assert.True(t, rt.Root.Property("value").Type.IsPrimitive("int"))
	})

	t.Run("violating argument", func(t *testing.T) {
		_, err := r.Resolve("schema.yaml", "Box", typegraph.Primitive("bool"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrGenericArgument)
		assert.Contains(t, err.Error(), "T")
	})

	t.Run("default applies when no argument", func(t *testing.T) {
		rt, err := r.Resolve("schema.yaml", "Box")
		require.NoError(t, err)
		assert.True(t, rt.Root.Property("value").Type.IsPrimitive("string"))
	})

	t.Run("too many arguments", func(t *testing.T) {
		_, err := r.Resolve("schema.yaml", "Box",
			typegraph.Primitive("string"), typegraph.Primitive("int"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrGenericArgument)
	})
}

func TestResolveGenericReferenceInProperty(t *testing.T) {
	src := sourceOf(t, `
types:
  - name: Response
    members:
      - name: payload
        type: {named: Box, args: [string]}
  - name: Box
    params:
      - name: T
    members:
      - name: value
        type: T
`)
	rt, err := New(src).Resolve("schema.yaml", "Response")
	require.NoError(t, err)

	assert.Equal(t, []string{"Box<string>", "Response"}, rt.Order)

	payload := rt.Root.Property("payload")
	require.NotNil(t, payload)
	box := rt.Deref(payload.Type)
	require.True(t, box.IsObject())
	assert.True(t, box.Property("value").Type.IsPrimitive("string"))
}

func TestResolveAliases(t *testing.T) {
	src := sourceOf(t, `
types:
  - name: Status
    kind: alias
    type: {union: [{literal: "on"}, {literal: "off"}]}
  - name: Settings
    kind: alias
    type:
      object:
        - name: status
          type: Status
`)
	r := New(src)

	t.Run("alias to union", func(t *testing.T) {
		rt, err := r.Resolve("schema.yaml", "Status")
		require.NoError(t, err)
		require.Equal(t, typegraph.KindUnion, rt.Root.Kind)
		require.Len(t, rt.Root.Members, 2)
		assert.Equal(t, "on", rt.Root.Members[0].Value)
	})

	t.Run("alias to object adopts the declaration name", func(t *testing.T) {
		rt, err := r.Resolve("schema.yaml", "Settings")
		require.NoError(t, err)
		assert.True(t, rt.Root.IsObject())
		assert.Equal(t, "Settings", rt.Root.Name)
	})
}

func TestResolveEnum(t *testing.T) {
	src := sourceOf(t, `
types:
  - name: Color
    kind: enum
    values:
      - name: Red
        value: red
      - name: Blue
        value: blue
`)
	rt, err := New(src).Resolve("schema.yaml", "Color")
	require.NoError(t, err)

	assert.Equal(t, typegraph.KindEnum, rt.Root.Kind)
	require.Len(t, rt.Root.EnumMembers, 2)
	assert.Equal(t, "Red", rt.Root.EnumMembers[0].Name)
}

func TestResolveNotFound(t *testing.T) {
	src := sourceOf(t, `
types:
  - name: User
    members:
      - name: pet
        type: Ghost
`)
	r := New(src)

	t.Run("root declaration missing", func(t *testing.T) {
		_, err := r.Resolve("schema.yaml", "Missing")
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
		assert.ErrorIs(t, err, ErrDeclarationNotFound)
		assert.ErrorIs(t, err, load.ErrNotFound)
		assert.Contains(t, err.Error(), `"Missing"`)
	})

	t.Run("referenced declaration missing", func(t *testing.T) {
		_, err := r.Resolve("schema.yaml", "User")
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
		assert.Contains(t, err.Error(), `"Ghost"`)
	})
}

func TestResolveCircularAlias(t *testing.T) {
	src := sourceOf(t, `
types:
  - name: A
    kind: alias
    type: {union: [string, B]}
  - name: B
    kind: alias
    type: {union: [int, A]}
`)
	_, err := New(src).Resolve("schema.yaml", "A")
	require.Error(t, err)
	assert.True(t, IsCircular(err))
	assert.ErrorIs(t, err, ErrCircular)
	assert.Contains(t, err.Error(), "A -> B -> A")
}

func TestResolveUnsupportedShapes(t *testing.T) {
	schema := `
types:
  - name: Lookup
    members:
      - name: table
        type: {mapped: true}
      - name: name
        type: string
`
	t.Run("degrades to unknown by default", func(t *testing.T) {
		rt, err := New(sourceOf(t, schema)).Resolve("schema.yaml", "Lookup")
		require.NoError(t, err)

		table := rt.Root.Property("table")
		require.NotNil(t, table)
		assert.Equal(t, typegraph.KindUnknown, table.Type.Kind)
		assert.True(t, rt.Root.Property("name").Type.IsPrimitive("string"),
			"one unsupported shape does not block its siblings")
	})

	t.Run("fails under strict shapes", func(t *testing.T) {
		_, err := New(sourceOf(t, schema), WithStrictShapes()).Resolve("schema.yaml", "Lookup")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnsupportedShape)
	})
}

type renamePlugin struct{}

func (renamePlugin) Name() string { return "rename" }

func (renamePlugin) ResolveMatcher() matcher.Matcher { return matcher.Object("Address") }

func (renamePlugin) RewriteResolve(decl *load.Declaration, node *typegraph.TypeInfo) (*typegraph.TypeInfo, error) {
	out := *node
	out.Properties = append(out.Properties, typegraph.PropertyInfo{
		Name: "country", Type: typegraph.Primitive("string"), Optional: true,
	})
	return &out, nil
}

func TestResolvePluginOverride(t *testing.T) {
	src := sourceOf(t, `
types:
  - name: User
    members:
      - name: address
        type: Address
  - name: Address
    members:
      - name: city
        type: string
`)
	pipe := plugin.NewPipeline(renamePlugin{})
	rt, err := New(src, WithPipeline(pipe)).Resolve("schema.yaml", "User")
	require.NoError(t, err)

	addr, ok := rt.Lookup("Address")
	require.True(t, ok)
	require.NotNil(t, addr.Property("country"), "hook override replaces the closure entry")
	assert.Nil(t, rt.Root.Property("country"), "hook leaves non-matching nodes alone")
}
