package load

import (
	"fmt"
	"go/constant"
	"go/types"

	"golang.org/x/tools/go/packages"
)

// PackageSource serves declarations extracted from compiled Go packages. The
// file key of a declaration is its package import path. The mapping from Go
// constructs is structural: structs become interface declarations, interface
// type sets become unions, typed const groups become enums, and shapes with
// no counterpart (maps, channels) surface as unresolvable expressions the
// resolver degrades to unknown.
type PackageSource struct {
	decls map[string]map[string]*Declaration
}

// LoadPackages type-checks the packages matched by the given patterns and
// extracts a declaration per exported named type.
func LoadPackages(patterns ...string) (*PackageSource, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedTypes | packages.NeedTypesInfo,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("forge: load packages: %w", err)
	}
	if packages.PrintErrors(pkgs) > 0 {
		return nil, fmt.Errorf("forge: packages matched by %v contain errors", patterns)
	}
	src := &PackageSource{decls: make(map[string]map[string]*Declaration)}
	for _, pkg := range pkgs {
		src.decls[pkg.PkgPath] = extractPackage(pkg)
	}
	return src, nil
}

// Declaration implements Source.
func (s *PackageSource) Declaration(file, name string) (*Declaration, error) {
	decls, ok := s.decls[file]
	if !ok {
		return nil, fmt.Errorf("no package %q: %w", file, ErrNotFound)
	}
	decl, ok := decls[name]
	if !ok {
		return nil, fmt.Errorf("no declaration %q in %s: %w", name, file, ErrNotFound)
	}
	return decl, nil
}

// Packages returns the import paths this source can serve.
func (s *PackageSource) Packages() []string {
	paths := make([]string, 0, len(s.decls))
	for p := range s.decls {
		paths = append(paths, p)
	}
	return paths
}

// TypeNames returns the declared type names of one loaded package.
func (s *PackageSource) TypeNames(pkgPath string) []string {
	names := make([]string, 0, len(s.decls[pkgPath]))
	for n := range s.decls[pkgPath] {
		names = append(names, n)
	}
	return names
}

func extractPackage(pkg *packages.Package) map[string]*Declaration {
	scope := pkg.Types.Scope()
	enums := collectEnumMembers(scope)
	decls := make(map[string]*Declaration)
	for _, name := range scope.Names() {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || !tn.Exported() {
			continue
		}
		if decl := declarationOf(pkg.PkgPath, tn, enums); decl != nil {
			decls[name] = decl
		}
	}
	return decls
}

func declarationOf(pkgPath string, tn *types.TypeName, enums map[string][]EnumMember) *Declaration {
	decl := &Declaration{Name: tn.Name(), File: pkgPath}
	if tn.IsAlias() {
		decl.Kind = DeclAlias
		decl.Aliased = exprOf(types.Unalias(tn.Type()))
		return decl
	}
	named, ok := tn.Type().(*types.Named)
	if !ok {
		return nil
	}
	decl.TypeParams = typeParamsOf(named.TypeParams())
	switch u := named.Underlying().(type) {
	case *types.Struct:
		decl.Kind = DeclInterface
		decl.Members = structMembers(u)
	case *types.Interface:
		if union := typeSetUnion(u); union != nil {
			decl.Kind = DeclAlias
			decl.Aliased = union
			break
		}
		decl.Kind = DeclInterface
		decl.Members = interfaceMembers(u)
	case *types.Basic:
		if members, ok := enums[tn.Name()]; ok {
			decl.Kind = DeclEnum
			decl.EnumMembers = members
			break
		}
		decl.Kind = DeclAlias
		decl.Aliased = Named(u.Name())
	default:
		decl.Kind = DeclAlias
		decl.Aliased = exprOf(u)
	}
	return decl
}

func structMembers(st *types.Struct) []Member {
	var members []Member
	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		if !f.Exported() {
			continue
		}
		ft := f.Type()
		optional := false
		// Pointer fields map to optional properties: nil is their unset state.
		if ptr, ok := ft.(*types.Pointer); ok {
			optional = true
			ft = ptr.Elem()
		}
		members = append(members, Member{
			Name:     f.Name(),
			Type:     exprOf(ft),
			Optional: optional,
		})
	}
	return members
}

func interfaceMembers(iface *types.Interface) []Member {
	var members []Member
	for i := 0; i < iface.NumExplicitMethods(); i++ {
		m := iface.ExplicitMethod(i)
		if !m.Exported() {
			continue
		}
		members = append(members, Member{Name: m.Name(), Type: exprOf(m.Type())})
	}
	return members
}

// typeSetUnion extracts a union expression from an interface whose type set
// is a single embedded union term (the constraint-interface form).
func typeSetUnion(iface *types.Interface) *TypeExpr {
	if iface.NumEmbeddeds() != 1 || iface.NumExplicitMethods() != 0 {
		return nil
	}
	union, ok := iface.EmbeddedType(0).(*types.Union)
	if !ok {
		return nil
	}
	return unionExpr(union)
}

func unionExpr(union *types.Union) *TypeExpr {
	members := make([]*TypeExpr, 0, union.Len())
	for i := 0; i < union.Len(); i++ {
		members = append(members, exprOf(union.Term(i).Type()))
	}
	return &TypeExpr{Kind: ExprUnion, Members: members}
}

func typeParamsOf(tps *types.TypeParamList) []TypeParam {
	if tps == nil || tps.Len() == 0 {
		return nil
	}
	params := make([]TypeParam, 0, tps.Len())
	for i := 0; i < tps.Len(); i++ {
		tp := tps.At(i)
		params = append(params, TypeParam{
			Name:       tp.Obj().Name(),
			Constraint: constraintExpr(tp.Constraint()),
		})
	}
	return params
}

func constraintExpr(c types.Type) *TypeExpr {
	iface, ok := c.Underlying().(*types.Interface)
	if !ok || iface.Empty() {
		return nil
	}
	if union := typeSetUnion(iface); union != nil {
		return union
	}
	return exprOf(c)
}

func exprOf(t types.Type) *TypeExpr {
	switch tt := types.Unalias(t).(type) {
	case *types.Basic:
		return Named(tt.Name())
	case *types.Named:
		args := make([]*TypeExpr, 0, tt.TypeArgs().Len())
		for i := 0; i < tt.TypeArgs().Len(); i++ {
			args = append(args, exprOf(tt.TypeArgs().At(i)))
		}
		return Named(tt.Obj().Name(), args...)
	case *types.Pointer:
		return exprOf(tt.Elem())
	case *types.Slice:
		return &TypeExpr{Kind: ExprArray, Elem: exprOf(tt.Elem())}
	case *types.Array:
		return &TypeExpr{Kind: ExprArray, Elem: exprOf(tt.Elem())}
	case *types.Signature:
		params := make([]*TypeExpr, 0, tt.Params().Len())
		for i := 0; i < tt.Params().Len(); i++ {
			params = append(params, exprOf(tt.Params().At(i).Type()))
		}
		var ret *TypeExpr
		if tt.Results().Len() > 0 {
			ret = exprOf(tt.Results().At(0).Type())
		}
		return &TypeExpr{Kind: ExprFunction, Params: params, Return: ret}
	case *types.Struct:
		return &TypeExpr{Kind: ExprObject, Props: structMembers(tt)}
	case *types.Union:
		return unionExpr(tt)
	case *types.Interface:
		if tt.Empty() {
			return Named("any")
		}
		if union := typeSetUnion(tt); union != nil {
			return union
		}
		return &TypeExpr{Kind: ExprMapped}
	case *types.TypeParam:
		return Named(tt.Obj().Name())
	default:
		// Maps, channels and anything else without a graph counterpart.
		return &TypeExpr{Kind: ExprMapped}
	}
}

func collectEnumMembers(scope *types.Scope) map[string][]EnumMember {
	enums := make(map[string][]EnumMember)
	for _, name := range scope.Names() {
		c, ok := scope.Lookup(name).(*types.Const)
		if !ok || !c.Exported() {
			continue
		}
		named, ok := c.Type().(*types.Named)
		if !ok || named.Obj().Pkg() != c.Pkg() {
			continue
		}
		enums[named.Obj().Name()] = append(enums[named.Obj().Name()], EnumMember{
			Name:  c.Name(),
			Value: constValue(c.Val()),
		})
	}
	return enums
}

func constValue(v constant.Value) any {
	switch v.Kind() {
	case constant.String:
		return constant.StringVal(v)
	case constant.Int:
		if i, exact := constant.Int64Val(v); exact {
			return i
		}
	case constant.Float:
		if f, exact := constant.Float64Val(v); exact {
			return f
		}
	case constant.Bool:
		return constant.BoolVal(v)
	}
	return v.ExactString()
}
