package load

import (
	"go/constant"
	"go/token"
	"go/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPkg() *types.Package {
	return types.NewPackage("example.com/model", "model")
}

func TestExprOf(t *testing.T) {
	pkg := testPkg()

	t.Run("basic types map to named expressions", func(t *testing.T) {
		e := exprOf(types.Typ[types.String])
		assert.Equal(t, ExprNamed, e.Kind)
		assert.Equal(t, "string", e.Name)
	})

	t.Run("slices map to arrays", func(t *testing.T) {
		e := exprOf(types.NewSlice(types.Typ[types.Int]))
		require.Equal(t, ExprArray, e.Kind)
		assert.Equal(t, "int", e.Elem.Name)
	})

	t.Run("pointers are transparent", func(t *testing.T) {
		e := exprOf(types.NewPointer(types.Typ[types.Bool]))
		assert.Equal(t, ExprNamed, e.Kind)
		assert.Equal(t, "bool", e.Name)
	})

	t.Run("named types keep their name", func(t *testing.T) {
		named := types.NewNamed(
			types.NewTypeName(token.NoPos, pkg, "User", nil),
			types.NewStruct(nil, nil), nil,
		)
		e := exprOf(named)
		assert.Equal(t, ExprNamed, e.Kind)
		assert.Equal(t, "User", e.Name)
	})

	t.Run("empty interface maps to any", func(t *testing.T) {
		iface := types.NewInterfaceType(nil, nil)
		iface.Complete()
		e := exprOf(iface)
		assert.Equal(t, ExprNamed, e.Kind)
		assert.Equal(t, "any", e.Name)
	})

	t.Run("anonymous structs map to object expressions", func(t *testing.T) {
		st := types.NewStruct([]*types.Var{
			types.NewField(token.NoPos, pkg, "X", types.Typ[types.Int], false),
		}, nil)
		e := exprOf(st)
		require.Equal(t, ExprObject, e.Kind)
		require.Len(t, e.Props, 1)
		assert.Equal(t, "X", e.Props[0].Name)
	})

	t.Run("signatures map to function expressions", func(t *testing.T) {
		sig := types.NewSignatureType(nil, nil, nil,
			types.NewTuple(types.NewParam(token.NoPos, pkg, "s", types.Typ[types.String])),
			types.NewTuple(types.NewParam(token.NoPos, pkg, "", types.Typ[types.Bool])),
			false,
		)
		e := exprOf(sig)
		require.Equal(t, ExprFunction, e.Kind)
		require.Len(t, e.Params, 1)
		assert.Equal(t, "string", e.Params[0].Name)
		require.NotNil(t, e.Return)
		assert.Equal(t, "bool", e.Return.Name)
	})

	t.Run("maps have no counterpart", func(t *testing.T) {
		e := exprOf(types.NewMap(types.Typ[types.String], types.Typ[types.Int]))
		assert.Equal(t, ExprMapped, e.Kind)
	})
}

func TestStructMembers(t *testing.T) {
	pkg := testPkg()
	st := types.NewStruct([]*types.Var{
		types.NewField(token.NoPos, pkg, "ID", types.Typ[types.String], false),
		types.NewField(token.NoPos, pkg, "Age", types.NewPointer(types.Typ[types.Int]), false),
		types.NewField(token.NoPos, pkg, "secret", types.Typ[types.String], false),
	}, nil)

	members := structMembers(st)
	require.Len(t, members, 2, "unexported fields are dropped")

	assert.Equal(t, "ID", members[0].Name)
	assert.False(t, members[0].Optional)

	assert.Equal(t, "Age", members[1].Name)
	assert.True(t, members[1].Optional, "pointer fields are optional")
	assert.Equal(t, "int", members[1].Type.Name, "pointer is unwrapped")
}

func TestTypeSetUnion(t *testing.T) {
	union := types.NewUnion([]*types.Term{
		types.NewTerm(false, types.Typ[types.String]),
		types.NewTerm(false, types.Typ[types.Int]),
	})
	iface := types.NewInterfaceType(nil, []types.Type{union})
	iface.Complete()

	e := typeSetUnion(iface)
	require.NotNil(t, e)
	require.Equal(t, ExprUnion, e.Kind)
	require.Len(t, e.Members, 2)
	assert.Equal(t, "string", e.Members[0].Name)
	assert.Equal(t, "int", e.Members[1].Name)
}

func TestConstValue(t *testing.T) {
	assert.Equal(t, "red", constValue(constant.MakeString("red")))
	assert.Equal(t, int64(3), constValue(constant.MakeInt64(3)))
	assert.Equal(t, 1.5, constValue(constant.MakeFloat64(1.5)))
	assert.Equal(t, true, constValue(constant.MakeBool(true)))
}

func TestPackageSourceLookup(t *testing.T) {
	src := &PackageSource{decls: map[string]map[string]*Declaration{
		"example.com/model": {
			"User": {Name: "User", File: "example.com/model", Kind: DeclInterface},
		},
	}}

	t.Run("declaration", func(t *testing.T) {
		decl, err := src.Declaration("example.com/model", "User")
		require.NoError(t, err)
		assert.Equal(t, "User", decl.Name)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := src.Declaration("example.com/model", "Ghost")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown package", func(t *testing.T) {
		_, err := src.Declaration("example.com/other", "User")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("packages and type names", func(t *testing.T) {
		assert.Equal(t, []string{"example.com/model"}, src.Packages())
		assert.Equal(t, []string{"User"}, src.TypeNames("example.com/model"))
	})
}
